// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics: a snapshot map for DumpState plus Prometheus collectors.

package control

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Extraction paths and outcomes used as label values.
const (
	PathBuffer    = "buffer"
	PathBytes     = "bytes"
	PathStreaming = "streaming"
	PathBatch     = "batch"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// MetricsRegistry holds mutable metrics and their Prometheus counterparts.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time

	extractions *prometheus.CounterVec
	inputBytes  prometheus.Counter
	poolGrowths prometheus.Counter
	liveHandles *prometheus.GaugeVec
}

// NewMetricsRegistry builds the collectors under namespace and registers
// them with reg. A nil reg keeps them private. Collectors already present in
// reg are reused, so several bridges may share one registry.
func NewMetricsRegistry(namespace string, reg prometheus.Registerer) (*MetricsRegistry, error) {
	mr := &MetricsRegistry{
		metrics: make(map[string]any),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extractions by entry path and outcome.",
		}, []string{"path", "outcome"}),
		inputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Document bytes handed to the engine.",
		}),
		poolGrowths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_growths_total",
			Help:      "Memory pool storage reallocations.",
		}),
		liveHandles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_handles",
			Help:      "Open buffer and stream handles.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return mr, nil
	}

	var err error
	if mr.extractions, err = register(reg, mr.extractions); err != nil {
		return nil, err
	}
	if mr.inputBytes, err = register(reg, mr.inputBytes); err != nil {
		return nil, err
	}
	if mr.poolGrowths, err = register(reg, mr.poolGrowths); err != nil {
		return nil, err
	}
	if mr.liveHandles, err = register(reg, mr.liveHandles); err != nil {
		return nil, err
	}
	return mr, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metrics collector: %w", err)
	}
	return c, nil
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

func (mr *MetricsRegistry) incr(key string, delta uint64) {
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(uint64)
	mr.metrics[key] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// ObserveExtraction records one engine call.
func (mr *MetricsRegistry) ObserveExtraction(path string, err error, inputBytes int) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	mr.extractions.WithLabelValues(path, outcome).Inc()
	mr.incr("extractions."+path+"."+outcome, 1)
	if inputBytes > 0 {
		mr.inputBytes.Add(float64(inputBytes))
		mr.incr("input_bytes", uint64(inputBytes))
	}
}

// PoolGrew records a memory pool reallocation.
func (mr *MetricsRegistry) PoolGrew(newCapacity int) {
	mr.poolGrowths.Inc()
	mr.incr("pool.growths", 1)
	mr.Set("pool.capacity", newCapacity)
}

// AddLiveHandles adjusts the open-handle count of kind by delta. The gauge
// may be shared by several bridges on one registerer, so it only moves by
// deltas; the snapshot entry counts this registry's handles alone.
func (mr *MetricsRegistry) AddLiveHandles(kind string, delta int) {
	mr.liveHandles.WithLabelValues(kind).Add(float64(delta))
	mr.mu.Lock()
	cur, _ := mr.metrics["handles."+kind].(int)
	mr.metrics["handles."+kind] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated is the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// Extractions exposes the counter vector for scraping in tests.
func (mr *MetricsRegistry) Extractions() *prometheus.CounterVec { return mr.extractions }

// LiveHandles exposes the open-handle gauge.
func (mr *MetricsRegistry) LiveHandles() *prometheus.GaugeVec { return mr.liveHandles }
