package mmucache

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/mmucache/mem/replacement"
)

// A Builder can build MMU caches.
type Builder struct {
	vAddrBits       uint64
	indexBits       uint64
	numLevels       int
	numEntries      int
	tagShift        uint64
	tableAddrBits   uint64
	log2PageSize    uint64
	maxAllocRetries int
	randSource      RandSource
	victimFinder    VictimFinder
	checkInvariants bool
}

// MakeBuilder returns a Builder with the parameters of an x86-64 style
// 4-level page table, of which the top 3 levels are cached.
func MakeBuilder() Builder {
	return Builder{
		vAddrBits:       48,
		indexBits:       9,
		numLevels:       3,
		numEntries:      12,
		tagShift:        3,
		tableAddrBits:   30,
		log2PageSize:    12,
		maxAllocRetries: 1024,
	}
}

// WithVAddrBits sets the number of virtual address bits that are translated.
// Higher bits are ignored.
func (b Builder) WithVAddrBits(n uint64) Builder {
	b.vAddrBits = n
	return b
}

// WithIndexBits sets the number of virtual address bits consumed by each
// level.
func (b Builder) WithIndexBits(n uint64) Builder {
	b.indexBits = n
	return b
}

// WithNumLevels sets the number of levels walked for each address.
func (b Builder) WithNumLevels(n int) Builder {
	b.numLevels = n
	return b
}

// WithNumEntries sets the number of entries in the cache.
func (b Builder) WithNumEntries(n int) Builder {
	b.numEntries = n
	return b
}

// WithTagShift sets how far the index is shifted before it is added to the
// parent page-table address to form a tag.
func (b Builder) WithTagShift(n uint64) Builder {
	b.tagShift = n
	return b
}

// WithTableAddrBits sets the width of the synthetic page-table addresses.
func (b Builder) WithTableAddrBits(n uint64) Builder {
	b.tableAddrBits = n
	return b
}

// WithLog2PageSize sets the alignment of the page-table addresses.
func (b Builder) WithLog2PageSize(n uint64) Builder {
	b.log2PageSize = n
	return b
}

// WithMaxAllocRetries sets how many addresses are drawn before the page-table
// address space is considered exhausted.
func (b Builder) WithMaxAllocRetries(n int) Builder {
	b.maxAllocRetries = n
	return b
}

// WithSeed makes the page-table addresses reproducible.
func (b Builder) WithSeed(seed uint64) Builder {
	b.randSource = NewSeededRandSource(seed)
	return b
}

// WithRandSource sets the source that page-table addresses are drawn from.
func (b Builder) WithRandSource(src RandSource) Builder {
	b.randSource = src
	return b
}

// WithVictimFinder sets the replacement policy. The policy must have at
// least as many ways as the cache has entries. A tree pseudo-LRU policy is
// used by default.
func (b Builder) WithVictimFinder(vf VictimFinder) Builder {
	b.victimFinder = vf
	return b
}

// WithInvariantChecks makes the cache verify its state after every
// translation and panic on inconsistency.
func (b Builder) WithInvariantChecks(check bool) Builder {
	b.checkInvariants = check
	return b
}

// Build creates a new MMU cache.
func (b Builder) Build(name string) *Comp {
	b.mustBeValid()

	c := &Comp{
		name:            name,
		vAddrBits:       b.vAddrBits,
		indexBits:       b.indexBits,
		numLevels:       b.numLevels,
		tagShift:        b.tagShift,
		log2PageSize:    b.log2PageSize,
		entries:         make([]entry, b.numEntries),
		victimFinder:    b.victimFinder,
		registry:        newRegistry(),
		checkInvariants: b.checkInvariants,
	}

	if c.victimFinder == nil {
		c.victimFinder = replacement.NewTreePLRU(1, b.numEntries)
	}

	src := b.randSource
	if src == nil {
		src = newEntropyRandSource()
	}

	c.allocator = newAddrAllocator(
		src, b.tableAddrBits, b.log2PageSize, b.maxAllocRetries)

	rootAddr, err := c.allocator.allocate(c.registry)
	if err != nil {
		log.Panic(err)
	}

	c.root = c.registry.create(rootAddr)

	return c
}

// ErrInvalidConfig is returned by Validate when the parameters of a Builder
// cannot produce a working MMU cache.
var ErrInvalidConfig = errors.New("invalid mmu cache configuration")

// Validate checks the parameters of the Builder. Build panics on the same
// errors.
func (b Builder) Validate() error {
	if b.numEntries <= 0 {
		return invalidConfig("number of entries must be positive, got %d",
			b.numEntries)
	}

	if b.numLevels <= 0 {
		return invalidConfig("number of levels must be positive, got %d",
			b.numLevels)
	}

	if b.indexBits == 0 || b.indexBits*uint64(b.numLevels) > b.vAddrBits {
		return invalidConfig("%d levels of %d bits do not fit in %d address bits",
			b.numLevels, b.indexBits, b.vAddrBits)
	}

	if b.vAddrBits > 64 {
		return invalidConfig(
			"virtual address cannot be wider than 64 bits, got %d", b.vAddrBits)
	}

	// Tags of different indices under the same parent would overlap with the
	// next page-table address otherwise.
	if b.tagShift+b.indexBits > b.log2PageSize {
		return invalidConfig(
			"tag shift %d plus index bits %d exceed page offset bits %d",
			b.tagShift, b.indexBits, b.log2PageSize)
	}

	if b.tableAddrBits <= b.log2PageSize || b.tableAddrBits > 64 {
		return invalidConfig("page table address bits %d must be in (%d, 64]",
			b.tableAddrBits, b.log2PageSize)
	}

	if b.maxAllocRetries <= 0 {
		return invalidConfig("max alloc retries must be positive, got %d",
			b.maxAllocRetries)
	}

	if n, ok := b.victimFinder.(interface{ NumWays() int }); ok &&
		n.NumWays() < b.numEntries {
		return invalidConfig("victim finder has %d ways, the cache has %d entries",
			n.NumWays(), b.numEntries)
	}

	return nil
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (b Builder) mustBeValid() {
	if err := b.Validate(); err != nil {
		log.Panic(err)
	}
}
