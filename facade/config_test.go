package facade_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/facade"
)

func TestDefaultConfig(t *testing.T) {
	cfg := facade.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 65536, cfg.Streaming.ChunkSize)
	assert.True(t, cfg.Pool.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
streaming:
  chunk_size: 1024
pool:
  enabled: false
  initial_capacity: 4096
logging:
  level: debug
  format: json
`), 0o600))

	t.Setenv(facade.EnvPrefix+"CHUNK_SIZE", "2048")
	t.Setenv(facade.EnvPrefix+"METRICS_NAMESPACE", "docs")

	cfg, err := facade.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.Streaming.ChunkSize, "env wins over file")
	assert.False(t, cfg.Pool.Enabled)
	assert.Equal(t, 4096, cfg.Pool.InitialCapacity)
	assert.Equal(t, 512<<20, cfg.Pool.MaxCapacity, "unset keys keep defaults")
	assert.Equal(t, "docs", cfg.Metrics.Namespace)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := facade.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("streaming: [1, 2"), 0o600))
	_, err = facade.LoadConfig(bad)
	assert.Error(t, err)

	t.Setenv(facade.EnvPrefix+"POOL_ENABLED", "maybe")
	_, err = facade.LoadConfig("")
	assert.ErrorContains(t, err, "POOL_ENABLED")
}

func TestLoadConfig_EnvFailsValidation(t *testing.T) {
	t.Setenv(facade.EnvPrefix+"CHUNK_SIZE", "-1")
	_, err := facade.LoadConfig("")
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*facade.Config)
	}{
		{"negative buffer max", func(c *facade.Config) { c.SharedBuffer.MaxCapacity = -1 }},
		{"zero chunk", func(c *facade.Config) { c.Streaming.ChunkSize = 0 }},
		{"negative pool initial", func(c *facade.Config) { c.Pool.InitialCapacity = -1 }},
		{"initial above max", func(c *facade.Config) {
			c.Pool.InitialCapacity = 10
			c.Pool.MaxCapacity = 5
		}},
		{"negative shards", func(c *facade.Config) { c.HandleShards = -2 }},
		{"negative async workers", func(c *facade.Config) { c.AsyncWorkers = -1 }},
		{"metrics without namespace", func(c *facade.Config) { c.Metrics.Namespace = "" }},
		{"bad log level", func(c *facade.Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := facade.DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), api.ErrInvalidArgument)
		})
	}
}

func TestConfigValidate_NamesYAMLKey(t *testing.T) {
	cfg := facade.DefaultConfig()
	cfg.Pool.InitialCapacity = -1
	assert.EqualError(t, cfg.Validate(), "bridge: config: pool.initial_capacity must be at least 0, got -1")

	cfg = facade.DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = ""
	assert.NoError(t, cfg.Validate())
}
