// File: pool/arena.go
// Package pool implements the bump arena reused across batch extractions.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// MemoryPool hands out consecutive regions of one backing slice and rewinds
// with Reset. Storage grows to max(capacity*2, offset+size) and never shrinks.
// Regions returned before a growth keep pointing at the previous backing
// array; they stay valid until the next Reset but no longer alias storage.

package pool

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-bridge/api"
)

// Stats is a snapshot of pool usage.
type Stats struct {
	Capacity    int
	Offset      int
	MaxCapacity int
	Grows       uint64
	Batches     uint64
}

// MemoryPool is a growable bump allocator. All methods are safe for
// concurrent use; Batch serializes whole batches.
//
// storage and offset belong to mu. The gauges below mirror them and are
// written only under mu, so readers never wait behind a running batch.
type MemoryPool struct {
	mu          sync.Mutex
	storage     []byte
	offset      int
	maxCapacity int
	onGrow      func(oldCap, newCap int)

	capacityN atomic.Int64
	offsetN   atomic.Int64
	grows     atomic.Uint64
	batches   atomic.Uint64
}

var _ api.Arena = (*MemoryPool)(nil)

// Option configures a MemoryPool.
type Option func(*MemoryPool)

// WithMaxCapacity bounds growth. Zero means unbounded.
func WithMaxCapacity(n int) Option {
	return func(p *MemoryPool) {
		if n > 0 {
			p.maxCapacity = n
		}
	}
}

// WithGrowthHook registers fn to run after every growth, under the pool lock.
func WithGrowthHook(fn func(oldCap, newCap int)) Option {
	return func(p *MemoryPool) { p.onGrow = fn }
}

// NewMemoryPool pre-allocates initialCapacity bytes. Negative values are
// treated as zero.
func NewMemoryPool(initialCapacity int, opts ...Option) *MemoryPool {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	p := &MemoryPool{}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxCapacity > 0 && initialCapacity > p.maxCapacity {
		initialCapacity = p.maxCapacity
	}
	p.storage = make([]byte, initialCapacity)
	p.capacityN.Store(int64(initialCapacity))
	return p
}

// Allocate returns a size-byte region and advances the offset. Contents are
// not zeroed. Must not be called from inside Batch; use the Scope instead.
func (p *MemoryPool) Allocate(size int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocLocked(size)
}

func (p *MemoryPool) allocLocked(size int) ([]byte, error) {
	if size < 0 {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "allocation size must be non-negative, got %d", size)
	}
	if size > math.MaxInt-p.offset {
		return nil, api.Errorf(api.ErrCodeAllocationFailed, "allocation of %d bytes overflows pool offset %d", size, p.offset)
	}
	need := p.offset + size
	if need > len(p.storage) {
		if err := p.growLocked(need); err != nil {
			return nil, err
		}
	}
	region := p.storage[p.offset:need:need]
	p.setOffsetLocked(need)
	return region, nil
}

func (p *MemoryPool) growLocked(need int) error {
	oldCap := len(p.storage)
	newCap := need
	if oldCap <= math.MaxInt/2 && oldCap*2 > newCap {
		newCap = oldCap * 2
	}
	if p.maxCapacity > 0 && newCap > p.maxCapacity {
		if need > p.maxCapacity {
			return api.Errorf(api.ErrCodeAllocationFailed,
				"pool needs %d bytes, exceeds maximum capacity %d", need, p.maxCapacity)
		}
		newCap = p.maxCapacity
	}
	next := make([]byte, newCap)
	copy(next, p.storage[:p.offset])
	p.storage = next
	p.capacityN.Store(int64(newCap))
	p.grows.Add(1)
	if p.onGrow != nil {
		p.onGrow(oldCap, newCap)
	}
	return nil
}

func (p *MemoryPool) setOffsetLocked(n int) {
	p.offset = n
	p.offsetN.Store(int64(n))
}

// Reset rewinds the offset. Storage is retained.
func (p *MemoryPool) Reset() {
	p.mu.Lock()
	p.setOffsetLocked(0)
	p.mu.Unlock()
}

// UsagePercent is offset/capacity*100, or 0 for an empty pool.
func (p *MemoryPool) UsagePercent() float64 {
	capacity := p.capacityN.Load()
	if capacity == 0 {
		return 0
	}
	return float64(p.offsetN.Load()) / float64(capacity) * 100
}

func (p *MemoryPool) Capacity() int { return int(p.capacityN.Load()) }

func (p *MemoryPool) Offset() int { return int(p.offsetN.Load()) }

// Grows counts storage reallocations since construction.
func (p *MemoryPool) Grows() uint64 { return p.grows.Load() }

// Stats returns a lock-free snapshot. Fields are loaded one by one, so a
// snapshot taken during a batch may mix values from adjacent allocations.
func (p *MemoryPool) Stats() Stats {
	return Stats{
		Capacity:    int(p.capacityN.Load()),
		Offset:      int(p.offsetN.Load()),
		MaxCapacity: p.maxCapacity,
		Grows:       p.grows.Load(),
		Batches:     p.batches.Load(),
	}
}

// Scope is the allocation view handed to a Batch callback. It is only valid
// while the callback runs.
type Scope struct {
	p *MemoryPool
}

// Allocate serves from the pool without taking its lock again.
func (s *Scope) Allocate(size int) ([]byte, error) {
	return s.p.allocLocked(size)
}

// Copy allocates len(data) bytes and copies data into them.
func (s *Scope) Copy(data []byte) ([]byte, error) {
	dst, err := s.p.allocLocked(len(data))
	if err != nil {
		return nil, err
	}
	copy(dst, data)
	return dst, nil
}

// Batch resets the pool and runs fn holding the pool lock for the whole
// call. Concurrent batches on the same pool run one after another.
func (p *MemoryPool) Batch(fn func(s *Scope) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setOffsetLocked(0)
	p.batches.Add(1)
	return fn(&Scope{p: p})
}
