package replacement

// LRU evicts the least recently used way. Ways that have never been touched
// are evicted first, the lowest way ID first.
type LRU struct {
	numSets int
	numWays int
	sets    []lruSet
}

type lruSet struct {
	lastVisit []uint64
	visited   []bool
}

// NewLRU creates an LRU policy for numSets sets of numWays ways each.
func NewLRU(numSets, numWays int) *LRU {
	mustBeValidShape(numSets, numWays)

	p := &LRU{
		numSets: numSets,
		numWays: numWays,
		sets:    make([]lruSet, numSets),
	}

	for i := range p.sets {
		p.sets[i] = lruSet{
			lastVisit: make([]uint64, numWays),
			visited:   make([]bool, numWays),
		}
	}

	return p
}

// NumWays returns the number of ways in each set.
func (p *LRU) NumWays() int {
	return p.numWays
}

// FindVictim returns the least recently used way in a set.
func (p *LRU) FindVictim(setID int) int {
	mustBeInRange("set", setID, p.numSets)

	set := &p.sets[setID]

	for wayID, visited := range set.visited {
		if !visited {
			return wayID
		}
	}

	victim := 0
	for wayID := 1; wayID < p.numWays; wayID++ {
		if set.lastVisit[wayID] < set.lastVisit[victim] {
			victim = wayID
		}
	}

	return victim
}

// Touch records that the way is visited at the given time.
func (p *LRU) Touch(setID, wayID int, now uint64) {
	mustBeInRange("set", setID, p.numSets)
	mustBeInRange("way", wayID, p.numWays)

	set := &p.sets[setID]
	set.visited[wayID] = true
	set.lastVisit[wayID] = now
}
