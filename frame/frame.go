package frame

import "sort"

// Deflater is the minimal surface frame.PackHeaders/PackPushPromise need
// from the header-compression engine: write a compressed block for nva at
// dst[offset:] (growing *dst as needed) and report how many bytes were
// written. Implemented by hd.Context.
type Deflater interface {
	Deflate(dst *[]byte, offset int, nva []NV) (int, error)
}

// Inflater is the matching surface for Unpack*: turn a compressed block
// back into a sorted NV slice. Implemented by hd.Context.
type Inflater interface {
	Inflate(payload []byte) ([]NV, error)
}

// DataProvider is the pull-model callback a DATA frame's Pack defers to:
// each PackData call invokes it once and frames the chunk it returns;
// higher layers decide when and how often PackData is called.
type DataProvider func(maxLength int) (data []byte, eof bool, err error)

// DataFrame carries a data-provider callback rather than inline bytes; the
// codec materializes DATA payload only by pulling it from Provider.
type DataFrame struct {
	StreamID  uint32
	EndStream bool
	Provider  DataProvider
}

// PackData pulls exactly one chunk (up to maxLength bytes) from d.Provider
// and frames it. EndStream is OR'd with the provider's eof signal.
func PackData(dst *[]byte, d *DataFrame, maxLength int) (int, error) {
	chunk, eof, err := d.Provider(maxLength)
	if err != nil {
		return 0, err
	}
	total := headerLength + len(chunk)
	reserveBuffer(dst, total)
	var flags uint8
	if d.EndStream || eof {
		flags |= uint8(FlagEndStream)
	}
	PackFrameHeader((*dst)[:headerLength], Header{
		Length: uint16(len(chunk)), Type: TypeData, Flags: flags, StreamID: d.StreamID,
	})
	copy((*dst)[headerLength:total], chunk)
	return total, nil
}

// UnpackData decodes the fixed part of a DATA frame; payload is the raw
// bytes already read by the caller (higher layers own flow control).
func UnpackData(head Header, payload []byte) *DataFrame {
	return &DataFrame{
		StreamID:  head.StreamID,
		EndStream: head.HasFlag(FlagEndStream),
	}
}

// HeadersFrame is a HEADERS (or, via PackPushPromise/UnpackPushPromise,
// PUSH_PROMISE) value. NVA holds the headers to deflate on pack, or the
// headers produced by inflate on unpack.
type HeadersFrame struct {
	StreamID      uint32
	EndStream     bool
	EndHeaders    bool
	HasPriority   bool
	Pri           uint32
	NVA           []NV
	BlockFragment []byte
}

func headersNVOffset(hasPriority bool) int {
	if hasPriority {
		return headerLength + 4
	}
	return headerLength
}

// PackHeaders reserves nv_offset bytes, asks deflater to write the
// compressed block there, back-patches length, then writes the 8-byte
// header (and the optional priority field). Not atomic: on deflate failure
// the contents of *dst are unspecified and must be discarded.
func PackHeaders(dst *[]byte, h *HeadersFrame, deflater Deflater) (int, error) {
	nvOffset := headersNVOffset(h.HasPriority)
	reserveBuffer(dst, nvOffset)
	n, err := deflater.Deflate(dst, nvOffset, h.NVA)
	if err != nil {
		return 0, err
	}
	total := nvOffset + n
	reserveBuffer(dst, total)

	var flags uint8
	if h.EndStream {
		flags |= uint8(FlagEndStream)
	}
	if h.EndHeaders {
		flags |= uint8(FlagEndHeaders)
	}
	if h.HasPriority {
		flags |= uint8(FlagPriority)
	}
	PackFrameHeader((*dst)[:headerLength], Header{
		Length: uint16(total - headerLength), Type: TypeHeaders, Flags: flags, StreamID: h.StreamID,
	})
	if h.HasPriority {
		putUint32be((*dst)[headerLength:headerLength+4], h.Pri&priorityMask)
	}
	h.BlockFragment = (*dst)[nvOffset:total]
	return total, nil
}

// UnpackHeaders reads the optional priority field then asks inflater to
// turn the remaining payload into a sorted NV slice.
func UnpackHeaders(head Header, payload []byte, inflater Inflater) (*HeadersFrame, error) {
	h := &HeadersFrame{
		StreamID:    head.StreamID,
		EndStream:   head.HasFlag(FlagEndStream),
		EndHeaders:  head.HasFlag(FlagEndHeaders),
		HasPriority: head.HasFlag(FlagPriority),
	}
	nvOffset := 0
	if h.HasPriority {
		nvOffset = 4
	}
	if len(payload) < nvOffset {
		return nil, ErrInvalidFrame
	}
	if h.HasPriority {
		h.Pri = getUint32(payload[0:4]) & priorityMask
	}
	h.BlockFragment = payload[nvOffset:]
	nva, err := inflater.Inflate(h.BlockFragment)
	if err != nil {
		return nil, err
	}
	h.NVA = nva
	return h, nil
}

// PushPromiseFrame carries the promised stream ID ahead of a compressed
// block, always at a fixed 4-byte offset (no optional priority field).
type PushPromiseFrame struct {
	StreamID         uint32
	PromisedStreamID uint32
	EndHeaders       bool
	NVA              []NV
	BlockFragment    []byte
}

func PackPushPromise(dst *[]byte, p *PushPromiseFrame, deflater Deflater) (int, error) {
	const nvOffset = headerLength + 4
	reserveBuffer(dst, nvOffset)
	n, err := deflater.Deflate(dst, nvOffset, p.NVA)
	if err != nil {
		return 0, err
	}
	total := nvOffset + n
	reserveBuffer(dst, total)

	var flags uint8
	if p.EndHeaders {
		flags |= uint8(FlagEndHeaders)
	}
	PackFrameHeader((*dst)[:headerLength], Header{
		Length: uint16(total - headerLength), Type: TypePushPromise, Flags: flags, StreamID: p.StreamID,
	})
	putUint32be((*dst)[headerLength:headerLength+4], p.PromisedStreamID&streamIDMask)
	p.BlockFragment = (*dst)[nvOffset:total]
	return total, nil
}

func UnpackPushPromise(head Header, payload []byte, inflater Inflater) (*PushPromiseFrame, error) {
	if len(payload) < 4 {
		return nil, ErrInvalidFrame
	}
	p := &PushPromiseFrame{
		StreamID:         head.StreamID,
		PromisedStreamID: getUint32(payload[0:4]) & streamIDMask,
		EndHeaders:       head.HasFlag(FlagEndHeaders),
		BlockFragment:    payload[4:],
	}
	nva, err := inflater.Inflate(p.BlockFragment)
	if err != nil {
		return nil, err
	}
	p.NVA = nva
	return p, nil
}

// PriorityFrame carries only the priority field.
type PriorityFrame struct {
	StreamID uint32
	Pri      uint32
}

func PackPriority(dst *[]byte, p *PriorityFrame) int {
	total := headerLength + 4
	reserveBuffer(dst, total)
	PackFrameHeader((*dst)[:headerLength], Header{Length: 4, Type: TypePriority, StreamID: p.StreamID})
	putUint32be((*dst)[headerLength:total], p.Pri&priorityMask)
	return total
}

func UnpackPriority(head Header, payload []byte) (*PriorityFrame, error) {
	if len(payload) != 4 {
		return nil, ErrInvalidFrame
	}
	return &PriorityFrame{StreamID: head.StreamID, Pri: getUint32(payload) & priorityMask}, nil
}

// RSTStreamFrame carries a 4-byte error code.
type RSTStreamFrame struct {
	StreamID  uint32
	ErrorCode uint32
}

func PackRSTStream(dst *[]byte, r *RSTStreamFrame) int {
	total := headerLength + 4
	reserveBuffer(dst, total)
	PackFrameHeader((*dst)[:headerLength], Header{Length: 4, Type: TypeRSTStream, StreamID: r.StreamID})
	putUint32be((*dst)[headerLength:total], r.ErrorCode)
	return total
}

func UnpackRSTStream(head Header, payload []byte) (*RSTStreamFrame, error) {
	if len(payload) != 4 {
		return nil, ErrInvalidFrame
	}
	return &RSTStreamFrame{StreamID: head.StreamID, ErrorCode: getUint32(payload)}, nil
}

// SettingsEntry is one {id, value} pair. Unlike the final HTTP/2 draft this
// protocol packs both fields as full 32-bit words: id(BE32)&ID_MASK,
// value(BE32) — 8 bytes per entry, not 6.
type SettingsEntry struct {
	ID    uint32
	Value uint32
}

const settingsIDMask = 0x00FFFFFF

// SettingsMax is the highest SETTINGS identifier this layer recognizes for
// duplicate/range checking; unknown IDs below it are still accepted as data
// — only SettingsCheckDuplicate enforces this ceiling, and only when
// a caller chooses to invoke it.
const SettingsMax = 6

type SettingsFrame struct {
	StreamID uint32
	Ack      bool
	Entries  []SettingsEntry
}

func PackSettings(dst *[]byte, s *SettingsFrame) int {
	payloadLen := 8 * len(s.Entries)
	total := headerLength + payloadLen
	reserveBuffer(dst, total)
	var flags uint8
	if s.Ack {
		flags |= uint8(FlagAck)
	}
	PackFrameHeader((*dst)[:headerLength], Header{
		Length: uint16(payloadLen), Type: TypeSettings, Flags: flags, StreamID: s.StreamID,
	})
	off := headerLength
	for _, e := range s.Entries {
		putUint32be((*dst)[off:off+4], e.ID&settingsIDMask)
		putUint32be((*dst)[off+4:off+8], e.Value)
		off += 8
	}
	return total
}

func UnpackSettings(head Header, payload []byte) (*SettingsFrame, error) {
	if len(payload)%8 != 0 {
		return nil, ErrInvalidFrame
	}
	n := len(payload) / 8
	entries := make([]SettingsEntry, n)
	for i := 0; i < n; i++ {
		off := i * 8
		entries[i] = SettingsEntry{
			ID:    getUint32(payload[off:off+4]) & settingsIDMask,
			Value: getUint32(payload[off+4 : off+8]),
		}
	}
	return &SettingsFrame{StreamID: head.StreamID, Ack: head.HasFlag(FlagAck), Entries: entries}, nil
}

// SortSettings sorts entries ascending by ID in place.
func SortSettings(entries []SettingsEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

// SettingsCheckDuplicate reports false if any ID is 0, exceeds SettingsMax,
// or repeats — ported from nghttp2_settings_check_duplicate. It is a
// caller-invoked check, not performed implicitly by UnpackSettings.
func SettingsCheckDuplicate(entries []SettingsEntry) bool {
	seen := make([]bool, SettingsMax+1)
	for _, e := range entries {
		if e.ID == 0 || e.ID > SettingsMax || seen[e.ID] {
			return false
		}
		seen[e.ID] = true
	}
	return true
}

// PingFrame carries an 8-byte opaque payload copied verbatim.
type PingFrame struct {
	Ack    bool
	Opaque [8]byte
}

func PackPing(dst *[]byte, p *PingFrame) int {
	total := headerLength + 8
	reserveBuffer(dst, total)
	var flags uint8
	if p.Ack {
		flags |= uint8(FlagAck)
	}
	PackFrameHeader((*dst)[:headerLength], Header{Length: 8, Type: TypePing, Flags: flags})
	copy((*dst)[headerLength:total], p.Opaque[:])
	return total
}

func UnpackPing(head Header, payload []byte) (*PingFrame, error) {
	if len(payload) != 8 {
		return nil, ErrInvalidFrame
	}
	p := &PingFrame{Ack: head.HasFlag(FlagAck)}
	copy(p.Opaque[:], payload)
	return p, nil
}

// GoAwayFrame. The wire header's stream ID is always 0 — GOAWAY is a
// connection-level frame — ported from nghttp2_frame_pack_goaway.
type GoAwayFrame struct {
	LastStreamID uint32
	ErrorCode    uint32
	Opaque       []byte
}

func PackGoAway(dst *[]byte, g *GoAwayFrame) int {
	total := headerLength + 8 + len(g.Opaque)
	reserveBuffer(dst, total)
	PackFrameHeader((*dst)[:headerLength], Header{Length: uint16(8 + len(g.Opaque)), Type: TypeGoAway})
	putUint32be((*dst)[headerLength:headerLength+4], g.LastStreamID&streamIDMask)
	putUint32be((*dst)[headerLength+4:headerLength+8], g.ErrorCode)
	copy((*dst)[headerLength+8:total], g.Opaque)
	return total
}

func UnpackGoAway(head Header, payload []byte) (*GoAwayFrame, error) {
	if len(payload) < 8 {
		return nil, ErrInvalidFrame
	}
	g := &GoAwayFrame{
		LastStreamID: getUint32(payload[0:4]) & streamIDMask,
		ErrorCode:    getUint32(payload[4:8]),
	}
	if len(payload) > 8 {
		g.Opaque = append([]byte(nil), payload[8:]...)
	}
	return g, nil
}

// WindowUpdateFrame. The original hardcodes stream_id 0 for the
// connection-level case; this module exposes StreamID explicitly so
// stream-level WINDOW_UPDATE frames pack correctly too.
type WindowUpdateFrame struct {
	StreamID            uint32
	WindowSizeIncrement uint32
}

func PackWindowUpdate(dst *[]byte, w *WindowUpdateFrame) int {
	total := headerLength + 4
	reserveBuffer(dst, total)
	PackFrameHeader((*dst)[:headerLength], Header{Length: 4, Type: TypeWindowUpdate, StreamID: w.StreamID})
	putUint32be((*dst)[headerLength:total], w.WindowSizeIncrement&streamIDMask)
	return total
}

func UnpackWindowUpdate(head Header, payload []byte) (*WindowUpdateFrame, error) {
	if len(payload) != 4 {
		return nil, ErrInvalidFrame
	}
	return &WindowUpdateFrame{
		StreamID:            head.StreamID,
		WindowSizeIncrement: getUint32(payload) & streamIDMask,
	}, nil
}
