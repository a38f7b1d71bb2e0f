// File: core/buffer/shared.go
// Package buffer implements the pinned shared memory region handed to hosts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A SharedBuffer owns one fixed-capacity region allocated once. The region is
// mmap backed on Linux/Darwin, VirtualAlloc backed on Windows, and falls back
// to the Go heap (non-moving) elsewhere or when the platform call fails.
//
// Temporal safety: a zero-copy extraction borrows a view of the region. While
// any borrow is outstanding, WriteAt, Append, Clear and Release fail with
// api.ErrBufferBusy. Bounds are checked on every access regardless.

package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-bridge/api"
)

// Backing kinds reported by SharedBuffer.Backing.
const (
	BackingMmap         = "mmap"
	BackingVirtualAlloc = "virtualalloc"
	BackingHeap         = "heap"
)

// region is a platform allocation plus its exactly-once release hook.
type region struct {
	data    []byte
	backing string
	free    func() error
}

// SharedBuffer is a bounds-checked, pinned memory region.
type SharedBuffer struct {
	mu       sync.Mutex
	data     []byte
	free     func() error
	backing  string
	capacity int
	released bool

	_        cpu.CacheLinePad
	cursor   atomic.Int64
	_        cpu.CacheLinePad
	inflight atomic.Int32
}

var _ api.SharedRegion = (*SharedBuffer)(nil)

type options struct {
	maxCapacity int
	forceHeap   bool
}

// Option customizes buffer creation.
type Option func(*options)

// WithMaxCapacity rejects capacities above n with api.ErrAllocationFailed.
// Zero disables the limit.
func WithMaxCapacity(n int) Option {
	return func(o *options) { o.maxCapacity = n }
}

// WithHeapBacking skips the platform allocator.
func WithHeapBacking() Option {
	return func(o *options) { o.forceHeap = true }
}

// New allocates a zero-initialized region of exactly capacity bytes.
func New(capacity int, opts ...Option) (*SharedBuffer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if capacity <= 0 {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "capacity must be positive, got %d", capacity)
	}
	if o.maxCapacity > 0 && capacity > o.maxCapacity {
		return nil, api.Errorf(api.ErrCodeAllocationFailed,
			"capacity %d exceeds maximum shared buffer size %d", capacity, o.maxCapacity)
	}
	r, err := allocRegion(capacity, o.forceHeap)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeAllocationFailed, fmt.Sprintf("cannot allocate %d bytes", capacity), err)
	}
	return &SharedBuffer{
		data:     r.data,
		free:     r.free,
		backing:  r.backing,
		capacity: capacity,
	}, nil
}

// allocRegion tries the platform allocator first and falls back to the heap.
func allocRegion(size int, forceHeap bool) (region, error) {
	if !forceHeap {
		if r, err := platformAlloc(size); err == nil {
			return r, nil
		}
	}
	return heapAlloc(size)
}

func heapAlloc(size int) (r region, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("heap allocation failed: %v", p)
		}
	}()
	data := make([]byte, size)
	return region{data: data, backing: BackingHeap, free: func() error { return nil }}, nil
}

// checkRange validates [offset, offset+length) against capacity without
// overflowing.
func checkRange(offset, length, capacity int) error {
	if offset < 0 || length < 0 || offset > capacity || length > capacity-offset {
		return api.Errorf(api.ErrCodeOutOfBounds,
			"range offset=%d length=%d exceeds capacity %d", offset, length, capacity)
	}
	return nil
}

func errReleased() error {
	return api.NewError(api.ErrCodeReleased, "shared buffer already released")
}

func errBusy(n int32) error {
	return api.Errorf(api.ErrCodeBufferBusy, "shared buffer has %d extraction(s) in flight", n)
}

// WriteAt copies data into [offset, offset+len(data)) and moves the cursor to
// the end of the written range.
func (b *SharedBuffer) WriteAt(offset int, data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(offset, data)
}

// Append writes data at the current cursor.
func (b *SharedBuffer) Append(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(int(b.cursor.Load()), data)
}

func (b *SharedBuffer) writeLocked(offset int, data []byte) (int, error) {
	if b.released {
		return 0, errReleased()
	}
	if err := checkRange(offset, len(data), b.capacity); err != nil {
		return 0, err
	}
	if n := b.inflight.Load(); n > 0 {
		return 0, errBusy(n)
	}
	n := copy(b.data[offset:], data)
	b.cursor.Store(int64(offset + n))
	return n, nil
}

// ReadAt returns a fresh copy of [offset, offset+length).
func (b *SharedBuffer) ReadAt(offset, length int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, errReleased()
	}
	if err := checkRange(offset, length, b.capacity); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

// Borrow returns a zero-copy view of [offset, offset+length) and registers an
// in-flight reader. done is idempotent and must be called once the reader no
// longer touches the view.
func (b *SharedBuffer) Borrow(offset, length int) ([]byte, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, nil, errReleased()
	}
	if err := checkRange(offset, length, b.capacity); err != nil {
		return nil, nil, err
	}
	b.inflight.Add(1)
	var once sync.Once
	done := func() {
		once.Do(func() { b.inflight.Add(-1) })
	}
	end := offset + length
	return b.data[offset:end:end], done, nil
}

// Reset moves the cursor to zero. Bytes are left as they are.
func (b *SharedBuffer) Reset() {
	b.cursor.Store(0)
}

// Clear zero-fills the whole region and resets the cursor.
func (b *SharedBuffer) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return errReleased()
	}
	if n := b.inflight.Load(); n > 0 {
		return errBusy(n)
	}
	clear(b.data)
	b.cursor.Store(0)
	return nil
}

// Release returns the backing storage to the system. It succeeds exactly
// once; later calls report api.ErrReleased.
func (b *SharedBuffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return errReleased()
	}
	if n := b.inflight.Load(); n > 0 {
		return errBusy(n)
	}
	b.released = true
	b.data = nil
	b.cursor.Store(0)
	free := b.free
	b.free = nil
	if err := free(); err != nil {
		return api.Wrap(api.ErrCodeInternal, "release of shared buffer storage failed", err)
	}
	return nil
}

// Address returns the base address of the region, or 0 after release.
// It is diagnostic only; hosts address the region through offsets.
func (b *SharedBuffer) Address() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released || len(b.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.data)))
}

func (b *SharedBuffer) Capacity() int { return b.capacity }

func (b *SharedBuffer) Cursor() int { return int(b.cursor.Load()) }

// InFlight reports the number of outstanding borrows.
func (b *SharedBuffer) InFlight() int { return int(b.inflight.Load()) }

// Backing names the allocator that produced the region.
func (b *SharedBuffer) Backing() string { return b.backing }

// Released reports whether Release has completed.
func (b *SharedBuffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Info snapshots the accessors.
func (b *SharedBuffer) Info() api.BufferInfo {
	return api.BufferInfo{
		Address:  b.Address(),
		Capacity: b.capacity,
		Cursor:   b.Cursor(),
		InFlight: b.InFlight(),
		Backing:  b.backing,
	}
}
