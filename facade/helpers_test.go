package facade_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/facade"
	"github.com/momentics/hioload-bridge/internal/logging"
)

// newBridge builds a bridge with a private metrics registry and a silent
// logger. mutate may adjust the default config.
func newBridge(t *testing.T, engine api.Extractor, mutate func(*facade.Config)) *facade.Bridge {
	t.Helper()
	cfg := facade.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	b, err := facade.New(engine, cfg,
		facade.WithLogger(logging.Discard()),
		facade.WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}
