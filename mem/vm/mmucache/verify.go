package mmucache

import "fmt"

// Verify checks the consistency between the cache entries, the page-table
// tree, and the registry.
func (c *Comp) Verify() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mustBeAlive()

	return c.verify()
}

func (c *Comp) verify() error {
	if err := c.verifyEntries(); err != nil {
		return err
	}

	return c.verifyTables()
}

func (c *Comp) verifyEntries() error {
	live := 0
	tags := make(map[uint64]int, len(c.entries))

	for wayID, e := range c.entries {
		if !e.valid {
			continue
		}

		live++

		if other, dup := tags[e.tag]; dup {
			return fmt.Errorf("%w: ways %d and %d share tag 0x%x",
				ErrInvariantViolation, other, wayID, e.tag)
		}

		tags[e.tag] = wayID

		if !c.registry.has(e.table) {
			return fmt.Errorf("%w: way %d refers to unknown page table %d",
				ErrInvariantViolation, wayID, e.table)
		}
	}

	if live > len(c.entries) {
		return fmt.Errorf("%w: %d live entries in a %d-entry cache",
			ErrInvariantViolation, live, len(c.entries))
	}

	return nil
}

func (c *Comp) verifyTables() error {
	if !c.registry.has(c.root) {
		return fmt.Errorf("%w: root page table %d is not registered",
			ErrInvariantViolation, c.root)
	}

	if len(c.registry.byAddr) != c.registry.size() {
		return fmt.Errorf("%w: %d addresses for %d page tables",
			ErrInvariantViolation, len(c.registry.byAddr), c.registry.size())
	}

	for i, t := range c.registry.tables {
		id := PageTableID(i)

		if t.baseAddr&^c.allocator.mask != 0 {
			return fmt.Errorf("%w: page table %d has unaligned address 0x%x",
				ErrInvariantViolation, id, t.baseAddr)
		}

		if c.registry.byAddr[t.baseAddr] != id {
			return fmt.Errorf("%w: address 0x%x does not map to page table %d",
				ErrInvariantViolation, t.baseAddr, id)
		}

		for index, child := range t.children {
			if !c.registry.has(child) {
				return fmt.Errorf(
					"%w: page table %d has unknown child %d at index %d",
					ErrInvariantViolation, id, child, index)
			}
		}
	}

	return nil
}
