package mmucache

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrAddressSpaceExhausted is returned when no free page-table address can be
// found within the retry budget.
var ErrAddressSpaceExhausted = errors.New("page table address space exhausted")

// A RandSource provides the raw random numbers that page-table addresses are
// drawn from. *rand.Rand satisfies it.
type RandSource interface {
	Uint64() uint64
}

// NewSeededRandSource returns a deterministic RandSource.
func NewSeededRandSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newEntropyRandSource() RandSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// addrAllocator draws page-aligned page-table addresses that are not yet in
// use.
type addrAllocator struct {
	src        RandSource
	mask       uint64
	maxRetries int
}

func newAddrAllocator(
	src RandSource,
	addrBits, log2PageSize uint64,
	maxRetries int,
) *addrAllocator {
	mask := lowBits(addrBits) &^ lowBits(log2PageSize)

	return &addrAllocator{
		src:        src,
		mask:       mask,
		maxRetries: maxRetries,
	}
}

// allocate returns an address that is page aligned, fits in the configured
// width, is not zero, and is not registered yet.
func (a *addrAllocator) allocate(r *registry) (uint64, error) {
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		addr := a.src.Uint64() & a.mask
		if addr == 0 || r.contains(addr) {
			continue
		}

		return addr, nil
	}

	return 0, fmt.Errorf("%w after %d attempts, %d page tables in use",
		ErrAddressSpaceExhausted, a.maxRetries, r.size())
}

func lowBits(n uint64) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << n) - 1
}
