package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nvs(pairs ...string) []NV {
	out := make([]NV, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, NV{Name: []byte(pairs[i]), Value: []byte(pairs[i+1])})
	}
	return out
}

func TestNVNameCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "host", "host", 0},
		{"same length", "date", "etag", -1},
		{"shorter first on prefix tie", "te", "temp", -1},
		{"longer second on prefix tie", "temp", "te", 1},
		{"prefix mismatch wins over length", "zz", "accept-encoding", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nvNameCompare(NV{Name: []byte(tt.a)}, NV{Name: []byte(tt.b)})
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestSortNVs(t *testing.T) {
	nva := nvs("content-type", "text/html", ":path", "/", "te", "trailers", "date", "x")
	SortNVs(nva)
	assert.Equal(t, nvs(":path", "/", "content-type", "text/html", "date", "x", "te", "trailers"), nva)
}

func TestDedupeFromPairs(t *testing.T) {
	t.Run("downcases and sorts", func(t *testing.T) {
		out, err := DedupeFromPairs([]string{"Content-Type", "text/html", "Host", "example.org"})
		require.NoError(t, err)
		assert.Equal(t, nvs("content-type", "text/html", "host", "example.org"), out)
	})

	t.Run("all empty yields empty", func(t *testing.T) {
		out, err := DedupeFromPairs([]string{"", "", "", ""})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("over-length value rejected", func(t *testing.T) {
		_, err := DedupeFromPairs([]string{"name", strings.Repeat("v", MaxHDValueLength+1)})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestDowncase(t *testing.T) {
	b := []byte("X-Custom-2; Q=0.9")
	Downcase(b)
	assert.Equal(t, "x-custom-2; q=0.9", string(b))
}

func TestReserveBuffer(t *testing.T) {
	buf := []byte{1, 2, 3}
	reserveBuffer(&buf, 2)
	assert.Equal(t, []byte{1, 2, 3}, buf)
	reserveBuffer(&buf, 6)
	assert.Len(t, buf, 6)
	assert.Equal(t, []byte{1, 2, 3}, buf[:3])
}
