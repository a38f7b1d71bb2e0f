// File: facade/bridge.go
// Boundary facade of hioload-bridge.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bridge aggregates the shared buffers, streaming results, memory pool and
// control plane behind the operations a host runtime calls. Hosts hold
// capability handles, never addresses: every buffer and stream is reached
// through a handles.Handle resolved in a sharded registry, and an unknown or
// closed handle fails with api.ErrNotFound.

package facade

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/control"
	"github.com/momentics/hioload-bridge/core/buffer"
	"github.com/momentics/hioload-bridge/core/stream"
	"github.com/momentics/hioload-bridge/features"
	"github.com/momentics/hioload-bridge/internal/concurrency"
	"github.com/momentics/hioload-bridge/internal/handles"
	"github.com/momentics/hioload-bridge/internal/logging"
	"github.com/momentics/hioload-bridge/internal/textengine"
	"github.com/momentics/hioload-bridge/pool"
)

// Bridge is the host-facing entry point. Safe for concurrent use.
type Bridge struct {
	engine api.Extractor
	cfg    *Config
	log    *slog.Logger
	logc   io.Closer

	buffers *handles.Registry[*buffer.SharedBuffer]
	streams *handles.Registry[*stream.Result]
	pool    *pool.MemoryPool
	exec    *concurrency.Executor

	store   *control.ConfigStore
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes

	// lifecycle orders handle registration against the Close sweep:
	// registrars hold it shared across checkOpen and Put.
	lifecycle sync.RWMutex
	closed    atomic.Bool
}

var _ api.Debug = (*Bridge)(nil)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// Option customizes New.
type Option func(*options)

// WithLogger replaces the logger built from Config.Logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer selects where Prometheus collectors are registered.
// Defaults to prometheus.DefaultRegisterer when metrics are enabled.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// New builds a Bridge around engine. A nil engine selects the built-in text
// engine; a nil cfg selects DefaultConfig.
func New(engine api.Extractor, cfg *Config, opts ...Option) (*Bridge, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = textengine.New()
	}
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bridge{
		engine:  engine,
		cfg:     cfg,
		buffers: handles.New[*buffer.SharedBuffer](cfg.HandleShards),
		streams: handles.New[*stream.Result](cfg.HandleShards),
		probes:  control.NewDebugProbes(),
	}

	if o.logger != nil {
		b.log = o.logger
		b.logc = nopCloser{}
	} else {
		l, c, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, api.Wrap(api.ErrCodeInvalidArgument, "logger setup failed", err)
		}
		b.log, b.logc = l, c
	}

	reg := o.registerer
	if !cfg.Metrics.Enabled {
		reg = nil
	}
	m, err := control.NewMetricsRegistry(cfg.Metrics.Namespace, reg)
	if err != nil {
		_ = b.logc.Close()
		return nil, api.Wrap(api.ErrCodeInternal, "metrics setup failed", err)
	}
	b.metrics = m

	b.exec, err = concurrency.NewExecutor(cfg.AsyncWorkers, func(v any) {
		b.log.Error("executor task panicked", "panic", v)
	})
	if err != nil {
		_ = b.logc.Close()
		return nil, api.Wrap(api.ErrCodeInvalidArgument, "executor setup failed", err)
	}

	b.pool = pool.NewMemoryPool(cfg.Pool.InitialCapacity,
		pool.WithMaxCapacity(cfg.Pool.MaxCapacity),
		pool.WithGrowthHook(func(oldCap, newCap int) {
			b.metrics.PoolGrew(newCap)
			b.log.Debug("memory pool grew", "from", oldCap, "to", newCap)
		}),
	)

	b.store = control.NewConfigStore(cfg.runtimeValues(), validateRuntime)
	b.store.OnReload(func(changed map[string]any) {
		b.log.Info("runtime config updated", "changed", changed)
	})

	b.registerProbes()
	b.log.Debug("bridge ready",
		"engine", engineName(engine),
		"features", features.Supported(),
		"pool_enabled", cfg.Pool.Enabled,
		"chunk_size", cfg.Streaming.ChunkSize,
	)
	return b, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func engineName(e api.Extractor) string {
	if _, ok := e.(*textengine.Engine); ok {
		return "text"
	}
	return "external"
}

func (b *Bridge) registerProbes() {
	if b.cfg.Debug {
		control.RegisterPlatformProbes(b.probes)
	}
	b.probes.RegisterProbe("buffers.live", func() any { return b.buffers.Len() })
	b.probes.RegisterProbe("buffers.in_flight", func() any {
		n := 0
		b.buffers.Range(func(_ handles.Handle, sb *buffer.SharedBuffer) bool {
			n += sb.InFlight()
			return true
		})
		return n
	})
	b.probes.RegisterProbe("streams.live", func() any { return b.streams.Len() })
	b.probes.RegisterProbe("pool.usage_percent", func() any { return b.pool.UsagePercent() })
	b.probes.RegisterProbe("pool.capacity", func() any { return b.pool.Capacity() })
	b.probes.RegisterProbe("pool.grows", func() any { return b.pool.Grows() })
	b.probes.RegisterProbe("async", func() any { return b.exec.Stats() })
	b.probes.RegisterProbe("config", func() any { return b.store.GetSnapshot() })
	b.probes.RegisterProbe("metrics", func() any { return b.metrics.GetSnapshot() })
}

// DumpState implements api.Debug.
func (b *Bridge) DumpState() map[string]any {
	return b.probes.DumpState()
}

// RegisterProbe implements api.Debug.
func (b *Bridge) RegisterProbe(name string, fn func() any) {
	b.probes.RegisterProbe(name, fn)
}

// mimeLister is implemented by engines that can name the MIME types they
// accept. Engines without it are assumed to take the whole registry.
type mimeLister interface {
	MimeTypes() []string
}

// SupportedFeatures reports the document families compiled in, narrowed to
// those the engine handles.
func (b *Bridge) SupportedFeatures() features.FeatureSet {
	fs := features.Supported()
	if ml, ok := b.engine.(mimeLister); ok {
		fs = fs.Restrict(ml.MimeTypes())
	}
	return fs
}

// SupportedMimeTypes returns a fresh, deterministically ordered list of the
// compiled-in MIME types the engine accepts.
func (b *Bridge) SupportedMimeTypes() []string {
	mimes := features.SupportedMimeTypes()
	if ml, ok := b.engine.(mimeLister); ok {
		mimes = features.Intersect(mimes, ml.MimeTypes())
	}
	return mimes
}

// DetectMime sniffs the MIME type of data from its magic bytes.
func (b *Bridge) DetectMime(data []byte) (string, error) {
	return features.DetectMime(data)
}

// UpdateConfig changes runtime-tunable values (streaming.chunk_size,
// pool.enabled). Unknown keys and bad values reject the whole update.
func (b *Bridge) UpdateConfig(values map[string]any) error {
	return b.store.SetConfig(values)
}

// ConfigSnapshot returns the current runtime-tunable values.
func (b *Bridge) ConfigSnapshot() map[string]any {
	return b.store.GetSnapshot()
}

// Pool exposes the bridge's memory pool for inspection.
func (b *Bridge) Pool() *pool.MemoryPool { return b.pool }

// Metrics exposes the bridge's metrics registry.
func (b *Bridge) Metrics() *control.MetricsRegistry { return b.metrics }

func (b *Bridge) chunkSize() int {
	return b.store.Int(control.KeyChunkSize, stream.DefaultChunkSize)
}

func (b *Bridge) poolEnabled() bool {
	return b.store.Bool(control.KeyPoolEnabled, b.cfg.Pool.Enabled)
}

// registerHandle stores v under a fresh handle unless the bridge is closed.
func registerHandle[T any](b *Bridge, reg *handles.Registry[T], kind api.HandleKind, v T) (handles.Handle, error) {
	b.lifecycle.RLock()
	defer b.lifecycle.RUnlock()
	if err := b.checkOpen(); err != nil {
		return handles.Nil, err
	}
	h := reg.Put(v)
	b.metrics.AddLiveHandles(string(kind), 1)
	return h, nil
}

// retireHandle removes h, reporting whether it was live.
func retireHandle[T any](b *Bridge, reg *handles.Registry[T], kind api.HandleKind, h handles.Handle) (T, bool) {
	v, ok := reg.Delete(h)
	if ok {
		b.metrics.AddLiveHandles(string(kind), -1)
	}
	return v, ok
}

func (b *Bridge) checkOpen() error {
	if b.closed.Load() {
		return api.NewError(api.ErrCodeReleased, "bridge is closed")
	}
	return nil
}

// Close waits for dispatched async extractions, then releases every live
// buffer and stream. Buffers still borrowed by a synchronous extraction are
// reported in the returned error and left registered.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.exec.Close()

	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	var errs []error
	for _, h := range b.buffers.Handles() {
		sb, ok := b.buffers.Get(h)
		if !ok {
			continue
		}
		if err := sb.Release(); err != nil && !errors.Is(err, api.ErrReleased) {
			errs = append(errs, err)
			continue
		}
		retireHandle(b, b.buffers, api.HandleBuffer, h)
	}
	for _, h := range b.streams.Handles() {
		retireHandle(b, b.streams, api.HandleStream, h)
	}
	b.log.Debug("bridge closed", "errors", len(errs))
	errs = append(errs, b.logc.Close())
	return errors.Join(errs...)
}
