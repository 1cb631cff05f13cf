package frame

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDeflater writes a fixed block, standing in for hd.Context so the
// codec's framing can be tested without a live compression context.
type stubDeflater struct {
	block []byte
}

func (s *stubDeflater) Deflate(dst *[]byte, offset int, nva []NV) (int, error) {
	reserveBuffer(dst, offset+len(s.block))
	copy((*dst)[offset:], s.block)
	return len(s.block), nil
}

// stubInflater returns a fixed NV slice.
type stubInflater struct {
	nva     []NV
	payload []byte
}

func (s *stubInflater) Inflate(payload []byte) ([]NV, error) {
	s.payload = append([]byte(nil), payload...)
	return s.nva, nil
}

func TestPackPing(t *testing.T) {
	p := &PingFrame{Opaque: [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}}
	var buf []byte
	n := PackPing(&buf, p)
	assert.Equal(t, 16, n)
	assert.Equal(t, "00080600000000000102030405060708", hex.EncodeToString(buf[:n]))

	head := UnpackFrameHeader(buf[:8])
	got, err := UnpackPing(head, buf[8:n])
	require.NoError(t, err)
	assert.Equal(t, p.Opaque, got.Opaque)
}

func TestPackSettings(t *testing.T) {
	s := &SettingsFrame{Entries: []SettingsEntry{{ID: 4, Value: 100}, {ID: 7, Value: 65535}}}
	var buf []byte
	n := PackSettings(&buf, s)
	assert.Equal(t, 24, n)
	assert.Equal(t, "0010040000000000", hex.EncodeToString(buf[:8]))
	assert.Equal(t, "0000000400000064000000070000ffff", hex.EncodeToString(buf[8:n]))

	head := UnpackFrameHeader(buf[:8])
	got, err := UnpackSettings(head, buf[8:n])
	require.NoError(t, err)
	assert.Equal(t, s.Entries, got.Entries)
}

func TestPackWindowUpdate(t *testing.T) {
	w := &WindowUpdateFrame{StreamID: 1, WindowSizeIncrement: 32768}
	var buf []byte
	n := PackWindowUpdate(&buf, w)
	assert.Equal(t, 12, n)
	assert.Equal(t, "000408000000000100008000", hex.EncodeToString(buf[:n]))

	head := UnpackFrameHeader(buf[:8])
	got, err := UnpackWindowUpdate(head, buf[8:n])
	require.NoError(t, err)
	assert.Equal(t, w, got)
}

func TestPackGoAway(t *testing.T) {
	g := &GoAwayFrame{LastStreamID: 3, ErrorCode: 2, Opaque: []byte("END")}
	var buf []byte
	n := PackGoAway(&buf, g)
	assert.Equal(t, 19, n)
	head := UnpackFrameHeader(buf[:8])
	assert.Equal(t, uint16(11), head.Length)
	assert.Equal(t, TypeGoAway, head.Type)
	assert.Equal(t, uint32(0), head.StreamID)
	assert.Equal(t, "0000000300000002454e44", hex.EncodeToString(buf[8:n]))

	got, err := UnpackGoAway(head, buf[8:n])
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestPackPriorityRoundTrip(t *testing.T) {
	p := &PriorityFrame{StreamID: 5, Pri: 1 << 30}
	var buf []byte
	n := PackPriority(&buf, p)
	assert.Equal(t, 12, n)
	got, err := UnpackPriority(UnpackFrameHeader(buf[:8]), buf[8:n])
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPackRSTStreamRoundTrip(t *testing.T) {
	r := &RSTStreamFrame{StreamID: 9, ErrorCode: 6}
	var buf []byte
	n := PackRSTStream(&buf, r)
	got, err := UnpackRSTStream(UnpackFrameHeader(buf[:8]), buf[8:n])
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestUnpackInvalidLengths(t *testing.T) {
	tests := []struct {
		name    string
		unpack  func(payload []byte) error
		payload string
	}{
		{"priority short", func(p []byte) error { _, err := UnpackPriority(Header{}, p); return err }, "0000"},
		{"rst long", func(p []byte) error { _, err := UnpackRSTStream(Header{}, p); return err }, "0000000000"},
		{"ping short", func(p []byte) error { _, err := UnpackPing(Header{}, p); return err }, "00"},
		{"window short", func(p []byte) error { _, err := UnpackWindowUpdate(Header{}, p); return err }, "000000"},
		{"settings ragged", func(p []byte) error { _, err := UnpackSettings(Header{}, p); return err }, "000000040000"},
		{"goaway short", func(p []byte) error { _, err := UnpackGoAway(Header{}, p); return err }, "00000003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := hex.DecodeString(tt.payload)
			require.NoError(t, err)
			assert.ErrorIs(t, tt.unpack(p), ErrInvalidFrame)
		})
	}
}

func TestSettingsCheckDuplicate(t *testing.T) {
	tests := []struct {
		name    string
		entries []SettingsEntry
		want    bool
	}{
		{"ok", []SettingsEntry{{ID: 1, Value: 1}, {ID: 4, Value: 100}}, true},
		{"duplicate", []SettingsEntry{{ID: 4, Value: 1}, {ID: 4, Value: 2}}, false},
		{"zero id", []SettingsEntry{{ID: 0, Value: 1}}, false},
		{"above max", []SettingsEntry{{ID: SettingsMax + 1, Value: 1}}, false},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SettingsCheckDuplicate(tt.entries))
		})
	}
}

func TestSortSettings(t *testing.T) {
	entries := []SettingsEntry{{ID: 7, Value: 1}, {ID: 1, Value: 2}, {ID: 4, Value: 3}}
	SortSettings(entries)
	assert.Equal(t, []SettingsEntry{{ID: 1, Value: 2}, {ID: 4, Value: 3}, {ID: 7, Value: 1}}, entries)
}

func TestPackHeadersEmptyNVA(t *testing.T) {
	var buf []byte
	h := &HeadersFrame{StreamID: 1, EndHeaders: true}
	n, err := PackHeaders(&buf, h, &stubDeflater{})
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	head := UnpackFrameHeader(buf[:8])
	assert.Equal(t, uint16(0), head.Length)
	assert.Equal(t, TypeHeaders, head.Type)
	assert.Equal(t, uint32(1), head.StreamID)
}

func TestPackHeadersWithPriority(t *testing.T) {
	block := []byte{0x80, 0x81}
	var buf []byte
	h := &HeadersFrame{StreamID: 3, HasPriority: true, Pri: 7}
	n, err := PackHeaders(&buf, h, &stubDeflater{block: block})
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	head := UnpackFrameHeader(buf[:8])
	assert.Equal(t, uint16(6), head.Length)
	assert.True(t, head.HasFlag(FlagPriority))

	inf := &stubInflater{}
	got, err := UnpackHeaders(head, buf[8:n], inf)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.Pri)
	assert.Equal(t, block, inf.payload)
}

func TestPackPushPromise(t *testing.T) {
	block := []byte{0xa5}
	var buf []byte
	p := &PushPromiseFrame{StreamID: 1, PromisedStreamID: 2, EndHeaders: true}
	n, err := PackPushPromise(&buf, p, &stubDeflater{block: block})
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	head := UnpackFrameHeader(buf[:8])
	assert.Equal(t, TypePushPromise, head.Type)
	inf := &stubInflater{}
	got, err := UnpackPushPromise(head, buf[8:n], inf)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.PromisedStreamID)
	assert.Equal(t, block, inf.payload)
}

func TestPackData(t *testing.T) {
	payload := []byte("hello")
	d := &DataFrame{
		StreamID: 1,
		Provider: func(maxLength int) ([]byte, bool, error) { return payload, true, nil },
	}
	var buf []byte
	n, err := PackData(&buf, d, 1024)
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	head := UnpackFrameHeader(buf[:8])
	assert.Equal(t, TypeData, head.Type)
	assert.True(t, head.HasFlag(FlagEndStream))
	assert.Equal(t, payload, buf[8:n])
}

func TestIsDataFrame(t *testing.T) {
	assert.True(t, IsDataFrame([8]byte{0, 0, 0}))
	assert.False(t, IsDataFrame([8]byte{0, 0, byte(TypeHeaders)}))
}

func TestFrameNVOffset(t *testing.T) {
	tests := []struct {
		name string
		head [8]byte
		want int
	}{
		{"push promise", [8]byte{0, 0, byte(TypePushPromise), 0}, 4},
		{"headers plain", [8]byte{0, 0, byte(TypeHeaders), 0}, 0},
		{"headers priority", [8]byte{0, 0, byte(TypeHeaders), byte(FlagPriority)}, 4},
		{"ping", [8]byte{0, 0, byte(TypePing), 0}, -1},
		{"data", [8]byte{0, 0, byte(TypeData), 0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrameNVOffset(tt.head))
		})
	}
}

func TestFrameHeaderMasksReservedBit(t *testing.T) {
	var buf [8]byte
	PackFrameHeader(buf[:], Header{Length: 4, Type: TypeRSTStream, StreamID: 1<<31 | 5})
	assert.Equal(t, byte(0), buf[4]&0x80)
	h := UnpackFrameHeader([]byte{0, 4, 3, 0, 0x80, 0, 0, 5})
	assert.Equal(t, uint32(5), h.StreamID)
}
