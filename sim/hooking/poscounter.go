package hooking

import (
	"sync"
)

// PosCounter counts how many times each hook position is triggered.
type PosCounter struct {
	lock sync.Mutex

	posNames []string
	posCount map[string]uint64
}

// NewPosCounter creates a new PosCounter
func NewPosCounter() *PosCounter {
	return &PosCounter{
		posCount: make(map[string]uint64),
	}
}

// Func counts the position of the hook context.
func (c *PosCounter) Func(ctx HookCtx) {
	if ctx.Pos == nil {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	_, ok := c.posCount[ctx.Pos.Name]
	if !ok {
		c.posNames = append(c.posNames, ctx.Pos.Name)
	}

	c.posCount[ctx.Pos.Name]++
}

// PosNames returns the names of all the positions seen, in the order they
// were first seen.
func (c *PosCounter) PosNames() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, len(c.posNames))
	copy(names, c.posNames)

	return names
}

// Count returns the number of times a position has been triggered.
func (c *PosCounter) Count(pos *HookPos) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.posCount[pos.Name]
}
