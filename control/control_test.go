package control

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_TypedGetters(t *testing.T) {
	cs := NewConfigStore(map[string]any{
		KeyChunkSize:   4096,
		KeyPoolEnabled: false,
		"float":        float64(12),
		"bad":          "x",
	}, nil)

	assert.Equal(t, 4096, cs.Int(KeyChunkSize, 1))
	assert.Equal(t, 12, cs.Int("float", 1))
	assert.Equal(t, 7, cs.Int("bad", 7))
	assert.Equal(t, 7, cs.Int("missing", 7))
	assert.False(t, cs.Bool(KeyPoolEnabled, true))
	assert.True(t, cs.Bool("missing", true))
	assert.True(t, cs.Bool("bad", true))
}

func TestConfigStore_ValidatedUpdate(t *testing.T) {
	errNeg := errors.New("negative")
	cs := NewConfigStore(map[string]any{KeyChunkSize: 10}, func(k string, v any) error {
		if n, err := ToInt(v); err == nil && n < 0 {
			return errNeg
		}
		return nil
	})

	var seen []map[string]any
	cs.OnReload(func(changed map[string]any) { seen = append(seen, changed) })

	err := cs.SetConfig(map[string]any{KeyChunkSize: -1, KeyPoolEnabled: true})
	require.ErrorIs(t, err, errNeg)
	assert.Equal(t, 10, cs.Int(KeyChunkSize, 0))
	assert.False(t, cs.Bool(KeyPoolEnabled, false), "rejected update is not partially applied")
	assert.Empty(t, seen)

	require.NoError(t, cs.SetConfig(map[string]any{KeyChunkSize: 20}))
	assert.Equal(t, 20, cs.Int(KeyChunkSize, 0))
	require.Len(t, seen, 1)
	assert.Equal(t, map[string]any{KeyChunkSize: 20}, seen[0])

	snap := cs.GetSnapshot()
	snap[KeyChunkSize] = 99
	assert.Equal(t, 20, cs.Int(KeyChunkSize, 0))
}

func TestToInt(t *testing.T) {
	n, err := ToInt(float64(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = ToInt(3.5)
	assert.Error(t, err)
	_, err = ToInt("3")
	assert.Error(t, err)
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 2 })
	dp.RegisterProbe("a", func() any {
		dp.RegisterProbe("late", func() any { return nil })
		return 1
	})
	RegisterPlatformProbes(dp)

	state := dp.DumpState()
	assert.Equal(t, 1, state["a"])
	assert.Equal(t, 2, state["b"])
	assert.Contains(t, state, "platform.cpus")
	assert.Contains(t, dp.Names(), "late")
	assert.Equal(t, "a", dp.Names()[0])
}

func TestMetricsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	mr, err := NewMetricsRegistry("bridge", reg)
	require.NoError(t, err)

	mr.ObserveExtraction(PathBuffer, nil, 12)
	mr.ObserveExtraction(PathBuffer, errors.New("x"), 0)
	mr.ObserveExtraction(PathBatch, nil, 30)
	mr.PoolGrew(2048)
	mr.AddLiveHandles("buffer", 4)
	mr.AddLiveHandles("buffer", -1)

	assert.Equal(t, 1.0, testutil.ToFloat64(mr.Extractions().WithLabelValues(PathBuffer, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mr.Extractions().WithLabelValues(PathBuffer, OutcomeError)))
	assert.Equal(t, 42.0, testutil.ToFloat64(mr.inputBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(mr.poolGrowths))
	assert.Equal(t, 3.0, testutil.ToFloat64(mr.liveHandles.WithLabelValues("buffer")))

	snap := mr.GetSnapshot()
	assert.Equal(t, uint64(1), snap["extractions.buffer.ok"])
	assert.Equal(t, uint64(42), snap["input_bytes"])
	assert.Equal(t, 2048, snap["pool.capacity"])
	assert.Equal(t, 3, snap["handles.buffer"])
	assert.False(t, mr.Updated().IsZero())

	n, err := testutil.GatherAndCount(reg, "bridge_extractions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetricsRegistry_SharedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewMetricsRegistry("bridge", reg)
	require.NoError(t, err)
	b, err := NewMetricsRegistry("bridge", reg)
	require.NoError(t, err)

	a.ObserveExtraction(PathBytes, nil, 0)
	b.ObserveExtraction(PathBytes, nil, 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Extractions().WithLabelValues(PathBytes, OutcomeOK)))

	a.AddLiveHandles("stream", 2)
	b.AddLiveHandles("stream", 1)
	b.AddLiveHandles("stream", -1)
	assert.Equal(t, 2.0, testutil.ToFloat64(a.liveHandles.WithLabelValues("stream")), "gauge sums both registries")
	assert.Equal(t, 2, a.GetSnapshot()["handles.stream"])
	assert.Equal(t, 0, b.GetSnapshot()["handles.stream"])
}

func TestMetricsRegistry_Unregistered(t *testing.T) {
	mr, err := NewMetricsRegistry("", nil)
	require.NoError(t, err)
	mr.ObserveExtraction(PathStreaming, nil, 5)
	assert.Equal(t, uint64(5), mr.GetSnapshot()["input_bytes"])
}
