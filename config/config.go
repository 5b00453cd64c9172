// Package config loads the compiler's TOML configuration file.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// EmitConfig controls register allocation and output layout.
type EmitConfig struct {
	StackBase     string `toml:"stack_base"` // hex literal, e.g. "0x10040000"
	RegisterCount int    `toml:"register_count"`
	OutDir        string `toml:"out_dir"`
}

// StackBaseValue parses StackBase into the uint32 $sp entry value. An empty
// or malformed string falls back to 0x10040000, SPIM's default free region.
func (c EmitConfig) StackBaseValue() uint32 {
	s := strings.TrimPrefix(c.StackBase, "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0x10040000
	}
	return uint32(v)
}

// DiagnosticsConfig controls how errors and warnings are rendered.
type DiagnosticsConfig struct {
	ColorOutput     bool `toml:"color_output"`
	ShowSuggestions bool `toml:"show_suggestions"`
}

// APIConfig controls the compile-as-a-service HTTP/WebSocket server.
type APIConfig struct {
	Port int `toml:"port"`
}

// Config is the full set of compiler settings, loaded from a TOML file.
type Config struct {
	Emit        EmitConfig        `toml:"emit"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	API         APIConfig         `toml:"api"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		Emit: EmitConfig{
			StackBase:     "0x10040000",
			RegisterCount: 8,
			OutDir:        ".",
		},
		Diagnostics: DiagnosticsConfig{
			ColorOutput:     true,
			ShowSuggestions: true,
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// Load reads and parses a TOML config file, starting from DefaultConfig so
// an omitted section keeps its default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
