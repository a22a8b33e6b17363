package mmucache

import "github.com/sarchlab/mmucache/sim/hooking"

// HookPosHit marks a translation step found in the cache.
var HookPosHit = &hooking.HookPos{Name: "MMUCacheHit"}

// HookPosMiss marks a translation step not found in the cache.
var HookPosMiss = &hooking.HookPos{Name: "MMUCacheMiss"}

// HookPosAlloc marks the first-touch creation of a page table.
var HookPosAlloc = &hooking.HookPos{Name: "MMUCachePageTableAlloc"}

// HookPosEvict marks a live entry being replaced.
var HookPosEvict = &hooking.HookPos{Name: "MMUCacheEvict"}

// A Step describes one translation step. It is the Item of every hook context
// triggered by the MMU cache.
type Step struct {
	// Seq is the logical time of the step, i.e., hits + misses after the
	// step is counted.
	Seq       uint64
	VAddr     uint64
	Level     int
	Index     uint64
	Tag       uint64
	WayID     int
	ParentID  PageTableID
	TableID   PageTableID
	TableAddr uint64
}

func (c *Comp) invokeStepHook(pos *hooking.HookPos, step Step, detail any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   step,
		Detail: detail,
	})
}
