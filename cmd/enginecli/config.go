package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is enginecli's on-disk configuration, per §10.1's "config via
// a TOML file" ambient contract -- the CLI equivalent of the teacher's
// flag-only setup, generalized to a persisted file an operator can
// check into a project instead of retyping flags every invocation.
type Config struct {
	LogLevel string `toml:"log_level"`
	Stats    struct {
		ShowHeap  bool `toml:"show_heap"`
		ShowCache bool `toml:"show_cache"`
	} `toml:"stats"`
}

func defaultConfig() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Stats.ShowHeap = true
	cfg.Stats.ShowCache = true
	return cfg
}

// loadConfig reads path if given, defaulting silently when path is
// empty (no config file is not an error -- every field already has a
// sensible default).
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
