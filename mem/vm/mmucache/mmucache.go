// Package mmucache emulates the cache that an MMU keeps for the upper levels
// of a page walk.
//
// The cache does not hold real page-table entries. It lazily builds a tree of
// synthetic page tables the first time a virtual address touches them, and
// keeps a small fully associative cache of the recent translation steps
// (parent table, index) -> child table. Each Translate call walks the levels
// and counts how many steps hit or miss in the cache.
package mmucache

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/mmucache/sim/hooking"
)

// ErrInvariantViolation is returned by Verify when the internal state of the
// cache is inconsistent.
var ErrInvariantViolation = errors.New("mmu cache invariant violated")

// The cache is one single fully associative set.
const setID = 0

// A VictimFinder decides which way of a set should be replaced. The MMU cache
// uses a single set, and passes hits+misses as the time of each touch.
type VictimFinder interface {
	// FindVictim returns the way to replace. It must be in [0, numWays).
	FindVictim(setID int) int

	// Touch marks the way as most recently used at the given logical time.
	Touch(setID, wayID int, now uint64)
}

// A CachedEntry is a live translation step held by the cache.
type CachedEntry struct {
	WayID int         `json:"way_id"`
	Tag   uint64      `json:"tag"`
	Table PageTableID `json:"table"`
}

type entry struct {
	valid bool
	tag   uint64
	table PageTableID
}

// Stats summarizes the activity of an MMU cache.
type Stats struct {
	Name           string  `json:"name"`
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
	NumPageTables  int     `json:"num_page_tables"`
	NumLiveEntries int     `json:"num_live_entries"`
	NumEntries     int     `json:"num_entries"`
}

// Comp is an MMU cache.
type Comp struct {
	hooking.HookableBase

	name string
	lock sync.Mutex

	vAddrBits    uint64
	indexBits    uint64
	numLevels    int
	tagShift     uint64
	log2PageSize uint64

	entries      []entry
	victimFinder VictimFinder
	registry     *registry
	allocator    *addrAllocator
	root         PageTableID

	hits   uint64
	misses uint64

	checkInvariants bool
	released        bool
}

// Name returns the name of the MMU cache.
func (c *Comp) Name() string {
	return c.name
}

// Translate walks all the levels for the virtual address. Bits above the
// configured virtual address width are dropped.
func (c *Comp) Translate(vAddr uint64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	_, err := c.translate(vAddr, nil)

	return err
}

// TranslateAll translates the addresses in order and stops at the first
// error.
func (c *Comp) TranslateAll(vAddrs []uint64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, vAddr := range vAddrs {
		if _, err := c.translate(vAddr, nil); err != nil {
			return fmt.Errorf("translating 0x%x: %w", vAddr, err)
		}
	}

	return nil
}

// Walk translates the virtual address and returns the page table reached at
// each level.
func (c *Comp) Walk(vAddr uint64) ([]PageTableID, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.translate(vAddr, make([]PageTableID, 0, c.numLevels))
}

func (c *Comp) translate(
	vAddr uint64,
	visited []PageTableID,
) ([]PageTableID, error) {
	c.mustBeAlive()

	vAddr &= lowBits(c.vAddrBits)
	table := c.root

	for level := 0; level < c.numLevels; level++ {
		next, err := c.step(table, c.index(vAddr, level), level, vAddr)
		if err != nil {
			return visited, err
		}

		if visited != nil {
			visited = append(visited, next)
		}

		table = next
	}

	if c.checkInvariants {
		if err := c.verify(); err != nil {
			log.Panic(err)
		}
	}

	return visited, nil
}

func (c *Comp) index(vAddr uint64, level int) uint64 {
	shift := c.vAddrBits - c.indexBits*uint64(level+1)
	return (vAddr >> shift) & lowBits(c.indexBits)
}

func (c *Comp) tag(parent *PageTable, index uint64) uint64 {
	return (index << c.tagShift) + parent.baseAddr
}

func (c *Comp) now() uint64 {
	return c.hits + c.misses
}

func (c *Comp) step(
	parentID PageTableID,
	index uint64,
	level int,
	vAddr uint64,
) (PageTableID, error) {
	parent := c.registry.get(parentID)
	tag := c.tag(parent, index)

	step := Step{
		VAddr:    vAddr,
		Level:    level,
		Index:    index,
		Tag:      tag,
		ParentID: parentID,
	}

	if wayID, found := c.find(tag); found {
		c.hits++
		c.victimFinder.Touch(setID, wayID, c.now())

		step.Seq = c.now()
		step.WayID = wayID
		step.TableID = c.entries[wayID].table
		step.TableAddr = c.registry.get(step.TableID).baseAddr
		c.invokeStepHook(HookPosHit, step, nil)

		return step.TableID, nil
	}

	c.misses++
	step.Seq = c.now()

	childID, err := c.childOf(parent, index, step)
	if err != nil {
		return NoPageTable, err
	}

	wayID := c.victimFinder.FindVictim(setID)
	if wayID < 0 || wayID >= len(c.entries) {
		log.Panicf("victim finder returned way %d, the cache has %d ways",
			wayID, len(c.entries))
	}

	step.WayID = wayID
	step.TableID = childID
	step.TableAddr = c.registry.get(childID).baseAddr

	if old := c.entries[wayID]; old.valid {
		c.invokeStepHook(HookPosEvict, step,
			CachedEntry{WayID: wayID, Tag: old.tag, Table: old.table})
	}

	c.entries[wayID] = entry{valid: true, tag: tag, table: childID}
	c.victimFinder.Touch(setID, wayID, c.now())
	c.invokeStepHook(HookPosMiss, step, nil)

	return childID, nil
}

// childOf returns the page table at the index of the parent, creating it on
// first touch.
func (c *Comp) childOf(
	parent *PageTable,
	index uint64,
	step Step,
) (PageTableID, error) {
	if childID, ok := parent.children[index]; ok {
		return childID, nil
	}

	addr, err := c.allocator.allocate(c.registry)
	if err != nil {
		return NoPageTable, err
	}

	childID := c.registry.create(addr)
	parent.children[index] = childID

	step.TableID = childID
	step.TableAddr = addr
	c.invokeStepHook(HookPosAlloc, step, nil)

	return childID, nil
}

func (c *Comp) find(tag uint64) (int, bool) {
	for wayID, e := range c.entries {
		if e.valid && e.tag == tag {
			return wayID, true
		}
	}

	return 0, false
}

// Lookup returns the live entry with the tag. It does not update the
// recency of the entry.
func (c *Comp) Lookup(tag uint64) (CachedEntry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	wayID, found := c.find(tag)
	if !found {
		return CachedEntry{}, false
	}

	return CachedEntry{
		WayID: wayID,
		Tag:   tag,
		Table: c.entries[wayID].table,
	}, true
}

// IsTagPresent tells if a live entry has the tag.
func (c *Comp) IsTagPresent(tag uint64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	_, found := c.find(tag)

	return found
}

// Tag returns the tag that the translation step from the parent page table
// at the index is cached under.
func (c *Comp) Tag(parent PageTableID, index uint64) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	return c.tag(c.registry.get(parent), index)
}

// RootTable returns the top-level page table. It never changes.
func (c *Comp) RootTable() PageTableID {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	return c.root
}

// Table returns the page table with the ID. The page table must not be
// modified by the caller.
func (c *Comp) Table(id PageTableID) *PageTable {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	return c.registry.get(id)
}

// Hits returns the number of translation steps that hit.
func (c *Comp) Hits() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.hits
}

// Misses returns the number of translation steps that missed.
func (c *Comp) Misses() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.misses
}

// NumLevels returns how many translation steps one Translate call takes.
func (c *Comp) NumLevels() int {
	return c.numLevels
}

// Stats returns a snapshot of the statistics of the MMU cache.
func (c *Comp) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stats()
}

func (c *Comp) stats() Stats {
	s := Stats{
		Name:       c.name,
		Hits:       c.hits,
		Misses:     c.misses,
		NumEntries: len(c.entries),
	}

	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}

	if c.released {
		return s
	}

	s.NumPageTables = c.registry.size()
	for _, e := range c.entries {
		if e.valid {
			s.NumLiveEntries++
		}
	}

	return s
}

// A Snapshot is a copy of the state of an MMU cache that can be inspected
// while the cache keeps translating.
type Snapshot struct {
	Stats

	VAddrBits    uint64        `json:"vaddr_bits"`
	IndexBits    uint64        `json:"index_bits"`
	NumLevels    int           `json:"num_levels"`
	TagShift     uint64        `json:"tag_shift"`
	Log2PageSize uint64        `json:"log2_page_size"`
	RootTable    PageTableID   `json:"root_table"`
	RootAddr     uint64        `json:"root_addr"`
	Entries      []CachedEntry `json:"entries"`
}

// Snapshot copies the configuration, the statistics, and the live entries
// of the MMU cache.
func (c *Comp) Snapshot() Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()

	s := Snapshot{Stats: c.stats()}
	s.VAddrBits = c.vAddrBits
	s.IndexBits = c.indexBits
	s.NumLevels = c.numLevels
	s.TagShift = c.tagShift
	s.Log2PageSize = c.log2PageSize
	s.RootTable = NoPageTable

	if c.released {
		return s
	}

	s.RootTable = c.root
	s.RootAddr = c.registry.get(c.root).baseAddr

	for wayID, e := range c.entries {
		if e.valid {
			s.Entries = append(s.Entries,
				CachedEntry{WayID: wayID, Tag: e.tag, Table: e.table})
		}
	}

	return s
}

// Release drops all the page tables and entries, and returns how many page
// tables were released. The cache cannot be used afterwards.
func (c *Comp) Release() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	for i := range c.entries {
		c.entries[i] = entry{}
	}

	n := c.registry.release()
	c.root = NoPageTable
	c.released = true

	return n
}

func (c *Comp) mustBeAlive() {
	if c.registry == nil {
		log.Panic("mmu cache is not built with a Builder")
	}

	if c.released {
		log.Panicf("mmu cache %s is already released", c.name)
	}
}
