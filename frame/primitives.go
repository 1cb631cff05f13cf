// Package frame implements the HTTP/2 control-frame wire codec: the shared
// 8-byte frame header and per-type pack/unpack for DATA, HEADERS, PRIORITY,
// RST_STREAM, SETTINGS, PUSH_PROMISE, PING, GOAWAY and WINDOW_UPDATE.
package frame

import "encoding/binary"

func getUint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func getUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func putUint16be(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

func putUint32be(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// downcase lower-cases ASCII bytes in place, matching nghttp2_downcase: only
// 'A'-'Z' are touched, everything else passes through untouched.
func downcase(b []byte) {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
}

// reserveBuffer grows *bufPtr in place so that len(*bufPtr) >= need,
// preserving existing content. It is the Go shape of nghttp2_reserve_buffer:
// callers own the backing slice and this is the only place in this package
// that reallocates it (the deflater behind PackHeaders/PackPushPromise may
// grow it too).
func reserveBuffer(bufPtr *[]byte, need int) {
	if len(*bufPtr) >= need {
		return
	}
	grown := make([]byte, need)
	copy(grown, *bufPtr)
	*bufPtr = grown
}
