// Package config handles configuration and custom action loading for vix.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the session configuration. All fields have usable zero
// values so a missing config file is not an error.
type Config struct {
	// ReadOnly rejects every mutating action with a "disabled by
	// configuration" result instead of running it.
	ReadOnly bool `yaml:"read_only"`
	// NoAltScreen renders in the main terminal buffer.
	NoAltScreen bool `yaml:"no_alternate_screen"`
	// MaxConcurrentReads caps parallel read-only backend commands.
	MaxConcurrentReads int `yaml:"max_concurrent_reads"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vix", "config.yaml")
}

// Load reads the YAML config at path. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Config{MaxConcurrentReads: 4}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxConcurrentReads <= 0 {
		cfg.MaxConcurrentReads = 4
	}
	return cfg, nil
}
