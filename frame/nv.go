package frame

import (
	"bytes"
	"errors"
	"sort"
)

// NV is a single header name/value pair. Names are ASCII and are expected to
// already be case-normalized to lower by the time they reach the wire codec
// or the compression engine.
type NV struct {
	Name  []byte
	Value []byte
}

// Size is the entry's nominal byte cost for header-table capacity
// accounting: HD_ENTRY_OVERHEAD + len(name) + len(value).
func (nv NV) Size(overhead int) int {
	return overhead + len(nv.Name) + len(nv.Value)
}

func nvEqual(a, b NV) bool {
	return bytes.Equal(a.Name, b.Name) && bytes.Equal(a.Value, b.Value)
}

// nvNameCompare orders by memcmp of the names' shared prefix, ported from
// nghttp2_nv_name_compar: length only decides when one name is a prefix of
// the other, in which case the shorter name sorts first.
func nvNameCompare(a, b NV) int {
	an, bn := a.Name, b.Name
	if len(an) == len(bn) {
		return bytes.Compare(an, bn)
	}
	if len(an) < len(bn) {
		if rv := bytes.Compare(an, bn[:len(an)]); rv != 0 {
			return rv
		}
		return -1
	}
	if rv := bytes.Compare(an[:len(bn)], bn); rv != 0 {
		return rv
	}
	return 1
}

// SortNVs sorts nva in place by name (memcmp of the shared prefix, shorter
// name first when one is a prefix of the other).
func SortNVs(nva []NV) {
	sort.Slice(nva, func(i, j int) bool {
		return nvNameCompare(nva[i], nva[j]) < 0
	})
}

// Downcase lower-cases name in place.
func Downcase(name []byte) {
	downcase(name)
}

// MaxHDValueLength bounds the length of any single header name or value a
// caller may hand to DedupeFromPairs.
const MaxHDValueLength = 4096

// ErrInvalidArgument is returned when a header name or value exceeds
// MaxHDValueLength.
var ErrInvalidArgument = errors.New("frame: header name or value too long")

// DedupeFromPairs builds a flat, case-normalized, sorted NV slice from a
// name1,value1,name2,value2,... list, the Go analogue of
// nghttp2_nv_array_from_cstr's null-terminated C pair list. When every
// name and value is zero-length the result is empty.
func DedupeFromPairs(pairs []string) ([]NV, error) {
	buflen := 0
	for _, s := range pairs {
		if len(s) > MaxHDValueLength {
			return nil, ErrInvalidArgument
		}
		buflen += len(s)
	}
	nvlen := len(pairs) / 2
	if nvlen == 0 || buflen == 0 {
		return nil, nil
	}
	out := make([]NV, 0, nvlen)
	for i := 0; i+1 < len(pairs); i += 2 {
		nb := []byte(pairs[i])
		downcase(nb)
		out = append(out, NV{Name: nb, Value: []byte(pairs[i+1])})
	}
	SortNVs(out)
	return out, nil
}
