package frame

import "errors"

// Type is the 8-bit frame type tag occupying byte 2 of the frame header.
type Type uint8

const (
	TypeData         Type = 0x0
	TypeHeaders      Type = 0x1
	TypePriority     Type = 0x2
	TypeRSTStream    Type = 0x3
	TypeSettings     Type = 0x4
	TypePushPromise  Type = 0x5
	TypePing         Type = 0x6
	TypeGoAway       Type = 0x7
	TypeWindowUpdate Type = 0x8
)

// Flag bits, reused across frame types the way the wire format reuses bit
// positions for unrelated meanings per type.
type Flag uint8

const (
	FlagEndStream  Flag = 0x1
	FlagAck        Flag = 0x1
	FlagEndHeaders Flag = 0x4
	FlagPadded     Flag = 0x8
	FlagPriority   Flag = 0x20
)

const (
	streamIDMask = 1<<31 - 1
	priorityMask = 1<<31 - 1
)

// Header is the shared 8-byte frame prefix: length(BE16) | type | flags |
// stream_id(BE32, top bit masked).
type Header struct {
	Length   uint16
	Type     Type
	Flags    uint8
	StreamID uint32
}

func (h Header) HasFlag(f Flag) bool {
	return h.Flags&uint8(f) == uint8(f)
}

// PackFrameHeader writes h into buf[0:8]. buf must have length >= 8.
func PackFrameHeader(buf []byte, h Header) {
	putUint16be(buf[0:2], h.Length)
	buf[2] = byte(h.Type)
	buf[3] = h.Flags
	putUint32be(buf[4:8], h.StreamID&streamIDMask)
}

// UnpackFrameHeader reads an 8-byte frame header.
func UnpackFrameHeader(buf []byte) Header {
	return Header{
		Length:   getUint16(buf[0:2]),
		Type:     Type(buf[2]),
		Flags:    buf[3],
		StreamID: getUint32(buf[4:8]) & streamIDMask,
	}
}

const headerLength = 8

// ErrInvalidFrame is returned by Unpack* when the payload length does not
// match the fixed or minimum length required for the frame type. The
// codec remains stateless and healthy after this error.
var ErrInvalidFrame = errors.New("frame: invalid frame payload length")

// IsDataFrame reports whether the 8-byte wire header denotes a DATA frame
// (type byte, at offset 2, is zero).
func IsDataFrame(head [8]byte) bool {
	return head[2] == 0
}

// FrameNVOffset returns where the compressed header block starts inside the
// frame's payload: 4 for PUSH_PROMISE, 0 or 4 for HEADERS depending on
// FLAG_PRIORITY, -1 for any other frame type (it carries no block).
func FrameNVOffset(head [8]byte) int {
	switch Type(head[2]) {
	case TypePushPromise:
		return 4
	case TypeHeaders:
		if Flag(head[3])&FlagPriority != 0 {
			return 4
		}
		return 0
	default:
		return -1
	}
}
