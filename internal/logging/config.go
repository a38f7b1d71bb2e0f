// File: internal/logging/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"fmt"
	"path/filepath"
)

// Config selects log sinks for the bridge.
type Config struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Console  bool           `yaml:"console"`
	File     string         `yaml:"file"` // empty disables file output
	Rotation RotationConfig `yaml:"rotation"`
}

// RotationConfig is handed to lumberjack unchanged.
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// DefaultConfig logs info and above as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "text",
		Console: true,
		Rotation: RotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Validate rejects unknown levels or formats.
func (c Config) Validate() error {
	if _, ok := levels[c.Level]; !ok && c.Level != "" {
		return fmt.Errorf("logging.level: unknown level %q", c.Level)
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Format)
	}
	if c.File != "" && filepath.Base(c.File) == "." {
		return fmt.Errorf("logging.file: %q is not a file path", c.File)
	}
	if c.Rotation.MaxSizeMB < 0 || c.Rotation.MaxBackups < 0 || c.Rotation.MaxAgeDays < 0 {
		return fmt.Errorf("logging.rotation: values must be non-negative")
	}
	return nil
}
