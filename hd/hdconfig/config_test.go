package hdconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 128, cfg.InitialHDTableSize)
	assert.Equal(t, 128, cfg.InitialRefsetSize)
	assert.Equal(t, 128, cfg.InitialWSSize)
	assert.Equal(t, 4096, cfg.MaxBufferSize)
	assert.Equal(t, 3072, cfg.MaxEntrySize)
	assert.Equal(t, 32, cfg.EntryOverhead)
	assert.Equal(t, 16384, cfg.MaxFrameLength)
	assert.Equal(t, 4096, cfg.MaxHDValueLength)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hd_max_buffer_size: 256\nhd_entry_overhead: 16\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.MaxBufferSize)
	assert.Equal(t, 16, cfg.EntryOverhead)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3072, cfg.MaxEntrySize)
	assert.Equal(t, 128, cfg.InitialWSSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hd_max_buffer_size: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
