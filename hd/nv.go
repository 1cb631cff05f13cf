package hd

import (
	"bytes"

	"h2hd/frame"
)

func nvEqual(a, b frame.NV) bool {
	return bytes.Equal(a.Name, b.Name) && bytes.Equal(a.Value, b.Value)
}
