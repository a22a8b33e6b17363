package mmucache

// PageTableID is a handle to a page table owned by the registry of an MMU
// cache. IDs are dense and never reused while the cache is alive.
type PageTableID int

// NoPageTable is the zero value of a handle that does not point to any page
// table.
const NoPageTable PageTableID = -1

// A PageTable is one level of the emulated page-table hierarchy. It is
// identified by its base address and knows the page tables it has
// materialized at each index.
type PageTable struct {
	baseAddr uint64
	children map[uint64]PageTableID
}

// BaseAddr returns the synthetic, page-aligned address of the page table.
func (t *PageTable) BaseAddr() uint64 {
	return t.baseAddr
}

// Child returns the page table created at the index, if any.
func (t *PageTable) Child(index uint64) (PageTableID, bool) {
	id, ok := t.children[index]
	return id, ok
}

// NumChildren returns how many child page tables have been created.
func (t *PageTable) NumChildren() int {
	return len(t.children)
}

// registry is the only owner of page tables. Everything else refers to a
// page table by its ID.
type registry struct {
	tables []*PageTable
	byAddr map[uint64]PageTableID
}

func newRegistry() *registry {
	return &registry{
		byAddr: make(map[uint64]PageTableID),
	}
}

func (r *registry) contains(addr uint64) bool {
	_, ok := r.byAddr[addr]
	return ok
}

func (r *registry) create(baseAddr uint64) PageTableID {
	if r.contains(baseAddr) {
		panic("page table address already registered")
	}

	id := PageTableID(len(r.tables))
	r.tables = append(r.tables, &PageTable{
		baseAddr: baseAddr,
		children: make(map[uint64]PageTableID),
	})
	r.byAddr[baseAddr] = id

	return id
}

func (r *registry) get(id PageTableID) *PageTable {
	if id < 0 || int(id) >= len(r.tables) {
		panic("page table not found in registry")
	}

	return r.tables[id]
}

func (r *registry) has(id PageTableID) bool {
	return id >= 0 && int(id) < len(r.tables) && r.tables[id] != nil
}

func (r *registry) size() int {
	return len(r.tables)
}

// release drops every page table exactly once and returns how many were
// released.
func (r *registry) release() int {
	n := 0

	for i, t := range r.tables {
		if t == nil {
			continue
		}

		t.children = nil
		r.tables[i] = nil
		n++
	}

	r.tables = nil
	r.byAddr = nil

	return n
}
