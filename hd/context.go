// Package hd implements the stateful header-compression engine carried
// inside HEADERS and PUSH_PROMISE payloads: a dynamic header table, a
// reference set and a per-block working set, synchronized in lockstep
// between the two endpoints of a connection. The compressed representation
// is the pre-Huffman draft: literals are length-prefixed raw octets.
package hd

import (
	"h2hd/frame"
	"h2hd/hd/hdconfig"
)

type wsCat int

const (
	wsNone wsCat = iota
	wsIndexed
	wsIndName
	wsNewName
)

// wsEntry is one working-set cell. For wsIndexed, frozenIndex is the
// entry's table index at the moment the cell was added; toggle-out
// semantics compare against it, never against the entry's live index,
// because eviction during the block may invalidate or reassign the live
// one.
type wsEntry struct {
	cat         wsCat
	entry       *entry
	frozenIndex int
	value       []byte   // wsIndName
	nv          frame.NV // wsNewName
}

// Context is one side of the compression state machine, one per connection
// per direction. It is single-threaded: a Context must not be used from two
// goroutines, but two independent Contexts never interact.
type Context struct {
	cfg    *hdconfig.Config
	table  *headerTable
	refset []*entry
	ws     []wsEntry
	bad    bool
}

func newContext(cfg *hdconfig.Config, side Side) *Context {
	return &Context{
		cfg:    cfg,
		table:  newHeaderTable(cfg, seedFor(side)),
		refset: make([]*entry, 0, cfg.InitialRefsetSize),
		ws:     make([]wsEntry, 0, cfg.InitialWSSize),
	}
}

// NewDeflater returns a compression context seeded with side's own static
// table.
func NewDeflater(cfg *hdconfig.Config, side Side) *Context {
	return newContext(cfg, side)
}

// NewInflater returns a decompression context seeded with the *peer's*
// static table (side^1), matching nghttp2_hd_inflate_init.
func NewInflater(cfg *hdconfig.Config, side Side) *Context {
	return newContext(cfg, side^1)
}

// Bad reports whether the context has been poisoned. One-way: there is no
// reset.
func (c *Context) Bad() bool { return c.bad }

// createWorkingSet transfers every reference-set entry into the working
// set as an INDEXED cell frozen at its current table index, then clears
// the reference set. References move rather than change count.
func (c *Context) createWorkingSet() {
	c.ws = c.ws[:0]
	for _, e := range c.refset {
		c.ws = append(c.ws, wsEntry{cat: wsIndexed, entry: e, frozenIndex: e.index})
	}
	c.refset = c.refset[:0]
}

func (c *Context) addWorkingSet(e *entry) error {
	if len(c.ws) == c.cfg.InitialWSSize {
		return ErrHeaderComp
	}
	c.ws = append(c.ws, wsEntry{cat: wsIndexed, entry: e, frozenIndex: e.index})
	e.refCount++
	return nil
}

func (c *Context) addWorkingSetIndName(e *entry, value []byte) error {
	if len(c.ws) == c.cfg.InitialWSSize {
		return ErrHeaderComp
	}
	c.ws = append(c.ws, wsEntry{cat: wsIndName, entry: e, value: value})
	e.refCount++
	return nil
}

func (c *Context) addWorkingSetNewName(nv frame.NV) error {
	if len(c.ws) == c.cfg.InitialWSSize {
		return ErrHeaderComp
	}
	c.ws = append(c.ws, wsEntry{cat: wsNewName, nv: nv})
	return nil
}

// findInWorkingSet returns the first cell whose materialized name/value
// equals nv, or nil.
func (c *Context) findInWorkingSet(nv frame.NV) *wsEntry {
	for i := range c.ws {
		ent := &c.ws[i]
		switch ent.cat {
		case wsIndexed:
			if nvEqual(ent.entry.nv, nv) {
				return ent
			}
		case wsIndName:
			if nvEqual(frame.NV{Name: ent.entry.nv.Name, Value: ent.value}, nv) {
				return ent
			}
		case wsNewName:
			if nvEqual(ent.nv, nv) {
				return ent
			}
		}
	}
	return nil
}

func (c *Context) findInWorkingSetByIndex(index int) *wsEntry {
	for i := range c.ws {
		ent := &c.ws[i]
		// Compare against the frozen index, not the current header table
		// index.
		if ent.cat == wsIndexed && ent.frozenIndex == index {
			return ent
		}
	}
	return nil
}

// removeFromWorkingSetByIndex tombstones every INDEXED cell frozen at
// index, dropping its reference, and returns how many were removed.
func (c *Context) removeFromWorkingSetByIndex(index int) int {
	removed := 0
	for i := range c.ws {
		ent := &c.ws[i]
		if ent.cat == wsIndexed && ent.frozenIndex == index {
			removed++
			release(ent.entry)
			ent.cat = wsNone
		}
	}
	return removed
}

// EndHeaders marks a block boundary: the reference set is rebuilt from the
// surviving INDEXED working-set cells whose entries still hold a valid
// table index, deduplicated by index, and every other cell drops its
// reference. The working set comes out empty.
func (c *Context) EndHeaders() {
	checks := make([]bool, c.table.capacity)
	for i := range c.ws {
		ent := &c.ws[i]
		switch ent.cat {
		case wsIndexed:
			if ent.entry.index != invalidIndex && !checks[ent.entry.index] {
				checks[ent.entry.index] = true
				c.refset = append(c.refset, ent.entry)
			} else {
				release(ent.entry)
			}
		case wsIndName:
			release(ent.entry)
		}
	}
	c.ws = c.ws[:0]
}

// Deflate compresses nva into (*dst)[offset:], growing *dst as needed, and
// returns the number of bytes written. The header table, reference set and
// working set mutate exactly as the peer's inflater will mutate its own;
// the caller must invoke EndHeaders once the enclosing frame's block is
// complete. On error the context is poisoned and the contents of *dst are
// unspecified.
func (c *Context) Deflate(dst *[]byte, offset int, nva []frame.NV) (int, error) {
	if c.bad {
		return 0, ErrHeaderComp
	}
	n, err := c.deflate(dst, offset, nva)
	if err != nil {
		c.bad = true
		return 0, err
	}
	return n, nil
}

func (c *Context) deflate(dst *[]byte, offset int, nva []frame.NV) (int, error) {
	c.createWorkingSet()
	off := offset
	// Toggle first: an index still in the working set might otherwise be
	// overlapped by eviction while literals are inserted below.
	for i := 0; i < len(c.ws); i++ {
		ent := &c.ws[i]
		found := false
		for j := range nva {
			if nvEqual(ent.entry.nv, nva[j]) {
				found = true
				break
			}
		}
		if !found {
			n, err := emitIndexedBlock(dst, off, ent.frozenIndex, c.cfg.MaxFrameLength)
			if err != nil {
				return 0, err
			}
			off += n
			release(ent.entry)
			ent.cat = wsNone
		}
	}
	for i := range nva {
		nv := nva[i]
		if c.findInWorkingSet(nv) != nil {
			continue
		}
		if ent := c.table.findByNV(nv); ent != nil && c.findInWorkingSetByIndex(ent.index) == nil {
			// Present in the table and its index is not shadowed by the
			// working set: Indexed representation.
			if err := c.addWorkingSet(ent); err != nil {
				return 0, err
			}
			n, err := emitIndexedBlock(dst, off, ent.index, c.cfg.MaxFrameLength)
			if err != nil {
				return 0, err
			}
			off += n
			continue
		}
		if ent := c.table.findByName(nv); ent != nil {
			// The index must be captured before the incremental insert:
			// insertion may evict or re-seat the source entry.
			index := ent.index
			incIndexing := false
			if entryRoom(nv, c.cfg.EntryOverhead) < c.cfg.MaxEntrySize {
				newEnt := c.table.addIncremental(nv)
				if newEnt == nil {
					return 0, ErrHeaderComp
				}
				if err := c.addWorkingSet(newEnt); err != nil {
					return 0, err
				}
				incIndexing = true
			} else if err := c.addWorkingSetIndName(ent, nv.Value); err != nil {
				return 0, err
			}
			n, err := emitIndNameBlock(dst, off, index, nv.Value, incIndexing, c.cfg.MaxFrameLength)
			if err != nil {
				return 0, err
			}
			off += n
			continue
		}
		incIndexing := false
		if entryRoom(nv, c.cfg.EntryOverhead) < c.cfg.MaxEntrySize {
			newEnt := c.table.addIncremental(nv)
			if newEnt == nil {
				return 0, ErrHeaderComp
			}
			if err := c.addWorkingSet(newEnt); err != nil {
				return 0, err
			}
			incIndexing = true
		} else if err := c.addWorkingSetNewName(nv); err != nil {
			return 0, err
		}
		n, err := emitNewNameBlock(dst, off, nv, incIndexing, c.cfg.MaxFrameLength)
		if err != nil {
			return 0, err
		}
		off += n
	}
	return off - offset, nil
}

// Inflate decompresses one block and returns the headers it carries,
// sorted by name as frame.SortNVs orders them. The returned slices do not
// alias payload. The caller must invoke EndHeaders at the block boundary.
// Any decode error or capacity exhaustion poisons the context.
func (c *Context) Inflate(payload []byte) ([]frame.NV, error) {
	if c.bad {
		return nil, ErrHeaderComp
	}
	nva, err := c.inflate(payload)
	if err != nil {
		c.bad = true
		return nil, err
	}
	return nva, nil
}

func (c *Context) inflate(payload []byte) ([]frame.NV, error) {
	c.createWorkingSet()
	in := payload
	for len(in) > 0 {
		tag := in[0]
		switch {
		case tag&0x80 != 0:
			// Indexed representation: toggles the index out of the working
			// set, or pulls the table entry in if it was not present.
			index, rest, ok := decodeVarint(in, 7)
			if !ok {
				return nil, ErrHeaderComp
			}
			in = rest
			if c.removeFromWorkingSetByIndex(index) == 0 {
				ent := c.table.get(index)
				if ent == nil {
					return nil, ErrHeaderComp
				}
				if err := c.addWorkingSet(ent); err != nil {
					return nil, err
				}
			}

		case tag == 0x60 || tag == 0x40:
			// Literal, new name, without indexing (0x60) or with
			// incremental indexing (0x40).
			nv, rest, err := c.decodeNewName(in[1:])
			if err != nil {
				return nil, err
			}
			in = rest
			if tag == 0x60 {
				if err := c.addWorkingSetNewName(nv); err != nil {
					return nil, err
				}
			} else {
				ent := c.table.addIncremental(nv)
				if ent == nil {
					return nil, ErrHeaderComp
				}
				if err := c.addWorkingSet(ent); err != nil {
					return nil, err
				}
			}

		case tag&0xE0 == 0x60 || tag&0xE0 == 0x40:
			// Literal, indexed name. Classified by the top three bits (011
			// without indexing, 010 incremental), after the exact 0x60/0x40
			// new-name bytes above.
			index, rest, ok := decodeVarint(in, 5)
			if !ok {
				return nil, ErrHeaderComp
			}
			index--
			ent := c.table.get(index)
			if ent == nil {
				return nil, ErrHeaderComp
			}
			value, rest, err := c.decodeString(rest)
			if err != nil {
				return nil, err
			}
			in = rest
			if tag&0xE0 == 0x60 {
				if err := c.addWorkingSetIndName(ent, value); err != nil {
					return nil, err
				}
			} else {
				// The name is cloned out of the source entry up front, so
				// eviction during the insert cannot invalidate it.
				nv := frame.NV{Name: append([]byte(nil), ent.nv.Name...), Value: value}
				newEnt := c.table.addIncremental(nv)
				if newEnt == nil {
					return nil, ErrHeaderComp
				}
				if err := c.addWorkingSet(newEnt); err != nil {
					return nil, err
				}
			}

		case tag == 0x00:
			// Substitution, new name.
			nv, subindex, rest, err := c.decodeSubstNewName(in[1:])
			if err != nil {
				return nil, err
			}
			in = rest
			ent := c.table.addSubst(nv, subindex)
			if ent == nil {
				return nil, ErrHeaderComp
			}
			if err := c.addWorkingSet(ent); err != nil {
				return nil, err
			}

		default:
			// Substitution, indexed name.
			index, rest, ok := decodeVarint(in, 6)
			if !ok {
				return nil, ErrHeaderComp
			}
			index--
			ent := c.table.get(index)
			if ent == nil {
				return nil, ErrHeaderComp
			}
			subindex, rest, ok := decodeVarint(rest, 8)
			if !ok {
				return nil, ErrHeaderComp
			}
			value, rest, err := c.decodeString(rest)
			if err != nil {
				return nil, err
			}
			in = rest
			nv := frame.NV{Name: append([]byte(nil), ent.nv.Name...), Value: value}
			newEnt := c.table.addSubst(nv, subindex)
			if newEnt == nil {
				return nil, ErrHeaderComp
			}
			if err := c.addWorkingSet(newEnt); err != nil {
				return nil, err
			}
		}
	}
	return c.buildNVArray(), nil
}

// decodeString reads an 8-prefix length then that many bytes, returning an
// owned copy.
func (c *Context) decodeString(in []byte) ([]byte, []byte, error) {
	n, rest, ok := decodeVarint(in, 8)
	if !ok || len(rest) < n {
		return nil, nil, ErrHeaderComp
	}
	return append([]byte(nil), rest[:n]...), rest[n:], nil
}

// decodeNewName reads name and value for a literal-new-name block, with
// the name case-normalized.
func (c *Context) decodeNewName(in []byte) (frame.NV, []byte, error) {
	if len(in) == 0 {
		return frame.NV{}, nil, ErrHeaderComp
	}
	name, rest, err := c.decodeString(in)
	if err != nil {
		return frame.NV{}, nil, err
	}
	value, rest, err := c.decodeString(rest)
	if err != nil {
		return frame.NV{}, nil, err
	}
	frame.Downcase(name)
	return frame.NV{Name: name, Value: value}, rest, nil
}

// decodeSubstNewName reads name, subindex and value for a
// substitution-new-name block.
func (c *Context) decodeSubstNewName(in []byte) (frame.NV, int, []byte, error) {
	if len(in) == 0 {
		return frame.NV{}, 0, nil, ErrHeaderComp
	}
	name, rest, err := c.decodeString(in)
	if err != nil {
		return frame.NV{}, 0, nil, err
	}
	subindex, rest, ok := decodeVarint(rest, 8)
	if !ok {
		return frame.NV{}, 0, nil, ErrHeaderComp
	}
	value, rest, err := c.decodeString(rest)
	if err != nil {
		return frame.NV{}, 0, nil, err
	}
	frame.Downcase(name)
	return frame.NV{Name: name, Value: value}, subindex, rest, nil
}

// buildNVArray materializes the working set into the inflater's output:
// every non-tombstone cell contributes one pair, sorted by name.
func (c *Context) buildNVArray() []frame.NV {
	nva := make([]frame.NV, 0, len(c.ws))
	for i := range c.ws {
		ent := &c.ws[i]
		switch ent.cat {
		case wsIndexed:
			nva = append(nva, ent.entry.nv)
		case wsIndName:
			nva = append(nva, frame.NV{Name: ent.entry.nv.Name, Value: ent.value})
		case wsNewName:
			nva = append(nva, ent.nv)
		}
	}
	frame.SortNVs(nva)
	return nva
}
