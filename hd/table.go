package hd

import (
	"h2hd/frame"
	"h2hd/hd/hdconfig"
)

const invalidIndex = -1

// entry is a header-table entry (HE): a name/value pair plus its current
// table position (or invalidIndex once evicted) and a reference count
// covering every table slot, refset slot and working-set cell that still
// points at it. Go's GC reclaims the backing memory on its own; refCount
// is bookkeeping only: no code path reads it, and tests check it against
// the number of slots and cells holding the entry.
type entry struct {
	nv       frame.NV
	index    int
	refCount int
}

func entryRoom(nv frame.NV, overhead int) int {
	return overhead + len(nv.Name) + len(nv.Value)
}

// headerTable is the ordered, append-on-insert header table shared in
// lockstep by both peers: index 0 is oldest.
type headerTable struct {
	entries  []*entry
	bufSize  int
	capacity int
	cfg      *hdconfig.Config
}

func newHeaderTable(cfg *hdconfig.Config, seed []frame.NV) *headerTable {
	t := &headerTable{
		cfg:      cfg,
		capacity: cfg.InitialHDTableSize,
		entries:  make([]*entry, 0, cfg.InitialHDTableSize),
	}
	for i, nv := range seed {
		e := &entry{nv: nv, index: i, refCount: 1}
		t.entries = append(t.entries, e)
		t.bufSize += entryRoom(nv, cfg.EntryOverhead)
	}
	return t
}

func (t *headerTable) len() int { return len(t.entries) }

func (t *headerTable) get(index int) *entry {
	if index < 0 || index >= len(t.entries) {
		return nil
	}
	return t.entries[index]
}

func (t *headerTable) findByNV(nv frame.NV) *entry {
	for _, e := range t.entries {
		if nvEqual(e.nv, nv) {
			return e
		}
	}
	return nil
}

func (t *headerTable) findByName(nv frame.NV) *entry {
	for _, e := range t.entries {
		if string(e.nv.Name) == string(nv.Name) {
			return e
		}
	}
	return nil
}

// release drops one reference from e; it is left for GC once refCount
// reaches 0 — there is no explicit free, Go owns the memory.
func release(e *entry) {
	if e == nil {
		return
	}
	e.refCount--
}

// addIncremental ports add_hd_table_incremental from nghttp2_hd.c: evict
// oldest-first until room fits, compact the survivors down, then append a
// fresh owned entry at the new tail. Returns nil (matching the original's
// NULL) when room exceeds MaxEntrySize (or MaxBufferSize) or the table is
// already at capacity.
func (t *headerTable) addIncremental(nv frame.NV) *entry {
	room := entryRoom(nv, t.cfg.EntryOverhead)
	if len(t.entries) == t.capacity || room > t.cfg.MaxEntrySize || room > t.cfg.MaxBufferSize {
		return nil
	}
	t.bufSize += room
	i := 0
	for i < len(t.entries) && t.bufSize > t.cfg.MaxBufferSize {
		e := t.entries[i]
		t.bufSize -= entryRoom(e.nv, t.cfg.EntryOverhead)
		e.index = invalidIndex
		release(e)
		i++
	}
	if i > 0 {
		j := 0
		for ; i < len(t.entries); i, j = i+1, j+1 {
			t.entries[j] = t.entries[i]
			t.entries[j].index = j
		}
		t.entries = t.entries[:j]
	}
	newEnt := &entry{
		nv:       frame.NV{Name: append([]byte(nil), nv.Name...), Value: append([]byte(nil), nv.Value...)},
		index:    len(t.entries),
		refCount: 1,
	}
	t.entries = append(t.entries, newEnt)
	return newEnt
}

// addSubst ports add_hd_table_subst, including its k<0 -> insert-at-0
// asymmetry: when eviction during this very call wipes out the subindex
// slot itself, the replacement still lands at a well-defined position
// (index 0) rather than failing. Both peers depend on this exact
// behavior.
func (t *headerTable) addSubst(nv frame.NV, subindex int) *entry {
	room := entryRoom(nv, t.cfg.EntryOverhead)
	if room > t.cfg.MaxBufferSize || subindex >= len(t.entries) {
		return nil
	}
	t.bufSize -= entryRoom(t.entries[subindex].nv, t.cfg.EntryOverhead)
	t.bufSize += room

	k := subindex
	i := 0
	for i < len(t.entries) && t.bufSize > t.cfg.MaxBufferSize {
		e := t.entries[i]
		if i != subindex {
			t.bufSize -= entryRoom(e.nv, t.cfg.EntryOverhead)
		}
		e.index = invalidIndex
		release(e)
		i++
		k--
	}
	if i > 0 {
		j := 0
		if k < 0 {
			j = 1
		}
		for ; i < len(t.entries); i, j = i+1, j+1 {
			t.entries[j] = t.entries[i]
			t.entries[j].index = j
		}
		t.entries = t.entries[:j]
	}

	newEnt := &entry{
		nv:       frame.NV{Name: append([]byte(nil), nv.Name...), Value: append([]byte(nil), nv.Value...)},
		refCount: 1,
	}
	if k >= 0 {
		victim := t.entries[k]
		victim.index = invalidIndex
		release(victim)
		newEnt.index = k
	} else {
		newEnt.index = 0
	}
	if newEnt.index >= len(t.entries) {
		t.entries = append(t.entries, newEnt)
	} else {
		t.entries[newEnt.index] = newEnt
	}
	return newEnt
}
