// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bridge configuration: defaults, YAML loading, environment overrides and
// validation. Only streaming.chunk_size and pool.enabled can change after
// New; see Bridge.UpdateConfig.

package facade

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/control"
	"github.com/momentics/hioload-bridge/core/stream"
	"github.com/momentics/hioload-bridge/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HIOLOAD_BRIDGE_"

// Config holds parameters fixed for the lifetime of a Bridge.
type Config struct {
	SharedBuffer SharedBufferConfig `yaml:"shared_buffer"`
	Streaming    StreamingConfig    `yaml:"streaming"`
	Pool         PoolConfig         `yaml:"pool"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Debug        bool               `yaml:"debug"`                          // register platform debug probes
	HandleShards int                `yaml:"handle_shards" validate:"gte=0"` // shards per handle registry
	AsyncWorkers int                `yaml:"async_workers" validate:"gte=0"` // 0 = one per CPU
	Logging      logging.Config     `yaml:"logging"`
}

type SharedBufferConfig struct {
	MaxCapacity int `yaml:"max_capacity" validate:"gte=0"` // bytes; 0 disables the limit
}

type StreamingConfig struct {
	ChunkSize int `yaml:"chunk_size" validate:"gt=0"`
}

type PoolConfig struct {
	Enabled         bool `yaml:"enabled"`
	InitialCapacity int  `yaml:"initial_capacity" validate:"gte=0"`
	MaxCapacity     int  `yaml:"max_capacity" validate:"gte=0"` // 0 = unbounded
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	lc := logging.DefaultConfig()
	lc.Level = "warn"
	return &Config{
		SharedBuffer: SharedBufferConfig{MaxCapacity: 1 << 30}, // 1 GiB
		Streaming:    StreamingConfig{ChunkSize: stream.DefaultChunkSize},
		Pool: PoolConfig{
			Enabled:         true,
			InitialCapacity: 1 << 20,   // 1 MiB
			MaxCapacity:     512 << 20, // 512 MiB
		},
		Metrics:      MetricsConfig{Enabled: true, Namespace: "hioload_bridge"},
		Debug:        true,
		HandleShards: 16,
		Logging:      lc,
	}
}

// LoadConfig overlays the YAML file at path and the environment on the
// defaults, then validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides reads HIOLOAD_BRIDGE_* variables into c.
func (c *Config) ApplyEnvOverrides() error {
	ints := map[string]*int{
		"SHARED_BUFFER_MAX_CAPACITY": &c.SharedBuffer.MaxCapacity,
		"CHUNK_SIZE":                 &c.Streaming.ChunkSize,
		"POOL_INITIAL_CAPACITY":      &c.Pool.InitialCapacity,
		"POOL_MAX_CAPACITY":          &c.Pool.MaxCapacity,
		"HANDLE_SHARDS":              &c.HandleShards,
		"ASYNC_WORKERS":              &c.AsyncWorkers,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"POOL_ENABLED":    &c.Pool.Enabled,
		"METRICS_ENABLED": &c.Metrics.Enabled,
		"DEBUG":           &c.Debug,
		"LOG_CONSOLE":     &c.Logging.Console,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}

	strs := map[string]*string{
		"METRICS_NAMESPACE": &c.Metrics.Namespace,
		"LOG_LEVEL":         &c.Logging.Level,
		"LOG_FORMAT":        &c.Logging.Format,
		"LOG_FILE":          &c.Logging.File,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	return nil
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fieldError(ve[0])
		}
		return api.Wrap(api.ErrCodeInvalidArgument, "config", err)
	}
	if c.Pool.MaxCapacity > 0 && c.Pool.InitialCapacity > c.Pool.MaxCapacity {
		return invalidConfig("pool.initial_capacity %d exceeds pool.max_capacity %d",
			c.Pool.InitialCapacity, c.Pool.MaxCapacity)
	}
	if err := c.Logging.Validate(); err != nil {
		return api.Wrap(api.ErrCodeInvalidArgument, "config", err)
	}
	return nil
}

// fieldError renders a failed tag using the YAML key path.
func fieldError(fe validator.FieldError) error {
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "gte":
		return invalidConfig("%s must be at least %s, got %v", path, fe.Param(), fe.Value())
	case "gt":
		return invalidConfig("%s must be greater than %s, got %v", path, fe.Param(), fe.Value())
	case "required_if":
		return invalidConfig("%s is required", path)
	default:
		return invalidConfig("%s failed %q", path, fe.Tag())
	}
}

// runtimeValues seeds the ConfigStore.
func (c *Config) runtimeValues() map[string]any {
	return map[string]any{
		control.KeyChunkSize:   c.Streaming.ChunkSize,
		control.KeyPoolEnabled: c.Pool.Enabled,
	}
}

// validateRuntime vets a runtime-tunable key.
func validateRuntime(key string, value any) error {
	switch key {
	case control.KeyChunkSize:
		n, err := control.ToInt(value)
		if err != nil {
			return invalidConfig("%s: %v", key, err)
		}
		if n <= 0 {
			return invalidConfig("%s must be positive, got %d", key, n)
		}
	case control.KeyPoolEnabled:
		if _, ok := value.(bool); !ok {
			return invalidConfig("%s must be a bool, got %T", key, value)
		}
	default:
		return invalidConfig("%s is not a runtime-tunable key", key)
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return api.Errorf(api.ErrCodeInvalidArgument, "config: "+format, args...)
}
