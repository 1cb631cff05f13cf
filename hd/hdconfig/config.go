// Package hdconfig loads the header-compression engine's tunable capacity
// constants from YAML, for experimentation and fuzzing harnesses that want
// to exercise the engine away from the wire-contract defaults.
package hdconfig

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every implementer-tunable constant the engine's capacity
// accounting depends on. The zero value is not meaningful; use Default.
type Config struct {
	InitialHDTableSize int `yaml:"initial_hd_table_size"`
	InitialRefsetSize  int `yaml:"initial_refset_size"`
	InitialWSSize      int `yaml:"initial_ws_size"`
	MaxBufferSize      int `yaml:"hd_max_buffer_size"`
	MaxEntrySize       int `yaml:"hd_max_entry_size"`
	EntryOverhead      int `yaml:"hd_entry_overhead"`
	MaxFrameLength     int `yaml:"max_frame_length"`
	MaxHDValueLength   int `yaml:"max_hd_value_length"`
}

// Default returns the wire-contract default values.
func Default() *Config {
	return &Config{
		InitialHDTableSize: 128,
		InitialRefsetSize:  128,
		InitialWSSize:      128,
		MaxBufferSize:      4096,
		MaxEntrySize:       3072,
		EntryOverhead:      32,
		MaxFrameLength:     16384,
		MaxHDValueLength:   4096,
	}
}

// Load reads a YAML file of overrides on top of Default. Any field absent
// from the file keeps its default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
