package replacement

// TreePLRU is a tree-based pseudo least-recently-used policy. Each set keeps
// one direction bit per internal node of a binary tree whose leaves are the
// ways. A touch points every node on the way's path towards the way. A victim
// is found by walking from the root against the direction bits.
//
// The tree is built by halving the way range, so numWays does not need to be a
// power of two and every leaf the walk reaches is a real way.
type TreePLRU struct {
	numSets int
	numWays int
	trees   [][]bool
	lastRef [][]uint64
}

// NewTreePLRU creates a TreePLRU for numSets sets of numWays ways each.
func NewTreePLRU(numSets, numWays int) *TreePLRU {
	mustBeValidShape(numSets, numWays)

	p := &TreePLRU{
		numSets: numSets,
		numWays: numWays,
		trees:   make([][]bool, numSets),
		lastRef: make([][]uint64, numSets),
	}

	numNodes := 1
	for numNodes < numWays {
		numNodes <<= 1
	}

	for i := range p.trees {
		p.trees[i] = make([]bool, 2*numNodes)
		p.lastRef[i] = make([]uint64, numWays)
	}

	return p
}

// NumWays returns the number of ways in each set.
func (p *TreePLRU) NumWays() int {
	return p.numWays
}

// FindVictim returns the way that should be replaced next in the set.
func (p *TreePLRU) FindVictim(setID int) int {
	mustBeInRange("set", setID, p.numSets)

	tree := p.trees[setID]
	node, lo, hi := 0, 0, p.numWays

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if tree[node] {
			node, hi = 2*node+1, mid
		} else {
			node, lo = 2*node+2, mid
		}
	}

	return lo
}

// Touch marks the way as the most recently used way of the set.
func (p *TreePLRU) Touch(setID, wayID int, now uint64) {
	mustBeInRange("set", setID, p.numSets)
	mustBeInRange("way", wayID, p.numWays)

	tree := p.trees[setID]
	node, lo, hi := 0, 0, p.numWays

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if wayID < mid {
			tree[node] = false
			node, hi = 2*node+1, mid
		} else {
			tree[node] = true
			node, lo = 2*node+2, mid
		}
	}

	p.lastRef[setID][wayID] = now
}

// LastTouch returns the time the way was last touched.
func (p *TreePLRU) LastTouch(setID, wayID int) uint64 {
	mustBeInRange("set", setID, p.numSets)
	mustBeInRange("way", wayID, p.numWays)

	return p.lastRef[setID][wayID]
}
