package hd

import "h2hd/frame"

// ensureCap grows *dst to hold offset+need bytes, rejecting blocks that
// would push the frame past MaxFrameLength — the Go shape of
// ensure_write_buffer.
func ensureCap(dst *[]byte, offset, need, maxFrameLength int) error {
	if offset+need > maxFrameLength {
		return ErrHeaderComp
	}
	if len(*dst) >= offset+need {
		return nil
	}
	grown := make([]byte, offset+need)
	copy(grown, *dst)
	*dst = grown
	return nil
}

func writeBlock(dst *[]byte, offset int, block []byte, maxFrameLength int) (int, error) {
	if err := ensureCap(dst, offset, len(block), maxFrameLength); err != nil {
		return 0, err
	}
	copy((*dst)[offset:offset+len(block)], block)
	return len(block), nil
}

// emitIndexedBlock writes a 1xxxxxxx Indexed block: a 7-bit-prefix
// varint naming a header-table entry.
func emitIndexedBlock(dst *[]byte, offset, index, maxFrameLength int) (int, error) {
	block := encodeVarint(nil, 7, index)
	block[0] |= 0x80
	return writeBlock(dst, offset, block, maxFrameLength)
}

// emitIndNameBlock writes a literal-with-indexed-name block: index+1 via a
// 5-bit prefix tagged 0x40 (incremental indexing) or 0x60 (no indexing),
// then the value.
func emitIndNameBlock(dst *[]byte, offset, index int, value []byte, incIndexing bool, maxFrameLength int) (int, error) {
	block := encodeVarint(nil, 5, index+1)
	if incIndexing {
		block[0] |= 0x40
	} else {
		block[0] |= 0x60
	}
	block = encodeVarint(block, 8, len(value))
	block = append(block, value...)
	return writeBlock(dst, offset, block, maxFrameLength)
}

// emitNewNameBlock writes a literal-with-new-name block: a single tag byte
// (0x40 or 0x60) followed by length-prefixed name and value.
func emitNewNameBlock(dst *[]byte, offset int, nv frame.NV, incIndexing bool, maxFrameLength int) (int, error) {
	block := make([]byte, 0, 2+len(nv.Name)+len(nv.Value))
	if incIndexing {
		block = append(block, 0x40)
	} else {
		block = append(block, 0x60)
	}
	block = encodeVarint(block, 8, len(nv.Name))
	block = append(block, nv.Name...)
	block = encodeVarint(block, 8, len(nv.Value))
	block = append(block, nv.Value...)
	return writeBlock(dst, offset, block, maxFrameLength)
}

// emitSubstIndNameBlock writes a substitution-with-indexed-name block:
// index+1 via a 6-bit prefix with the top two bits left clear, then
// subindex, then the value.
func emitSubstIndNameBlock(dst *[]byte, offset, index, subindex int, value []byte, maxFrameLength int) (int, error) {
	block := encodeVarint(nil, 6, index+1)
	block = encodeVarint(block, 8, subindex)
	block = encodeVarint(block, 8, len(value))
	block = append(block, value...)
	return writeBlock(dst, offset, block, maxFrameLength)
}

// EmitIndNameBlock, EmitNewNameBlock, EmitSubstIndNameBlock and
// EmitSubstNewNameBlock expose the raw block emitters, mirroring the
// nghttp2_hd_emit_* surface: the deflater never chooses a substitution
// representation on its own, so callers that want one write it here and
// hand the bytes to the peer's inflater.

func EmitIndNameBlock(dst *[]byte, offset, index int, value []byte, incIndexing bool, maxFrameLength int) (int, error) {
	return emitIndNameBlock(dst, offset, index, value, incIndexing, maxFrameLength)
}

func EmitNewNameBlock(dst *[]byte, offset int, nv frame.NV, incIndexing bool, maxFrameLength int) (int, error) {
	return emitNewNameBlock(dst, offset, nv, incIndexing, maxFrameLength)
}

func EmitSubstIndNameBlock(dst *[]byte, offset, index, subindex int, value []byte, maxFrameLength int) (int, error) {
	return emitSubstIndNameBlock(dst, offset, index, subindex, value, maxFrameLength)
}

func EmitSubstNewNameBlock(dst *[]byte, offset int, nv frame.NV, subindex int, maxFrameLength int) (int, error) {
	return emitSubstNewNameBlock(dst, offset, nv, subindex, maxFrameLength)
}

// emitSubstNewNameBlock writes a 0x00 tag byte, then length-prefixed name,
// subindex, and length-prefixed value.
func emitSubstNewNameBlock(dst *[]byte, offset int, nv frame.NV, subindex int, maxFrameLength int) (int, error) {
	block := make([]byte, 0, 3+len(nv.Name)+len(nv.Value))
	block = append(block, 0x00)
	block = encodeVarint(block, 8, len(nv.Name))
	block = append(block, nv.Name...)
	block = encodeVarint(block, 8, subindex)
	block = encodeVarint(block, 8, len(nv.Value))
	block = append(block, nv.Value...)
	return writeBlock(dst, offset, block, maxFrameLength)
}
