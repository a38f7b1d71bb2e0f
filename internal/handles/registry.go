// File: internal/handles/registry.go
// Package handles
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe registry mapping opaque capability handles to live
// objects. Hosts never see addresses; they hold a Handle and the bridge
// resolves it here. A closed or unknown handle simply fails to resolve.

package handles

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Handle is an opaque, unguessable capability token.
type Handle uuid.UUID

// Nil is the zero handle; it never resolves.
var Nil Handle

func (h Handle) String() string { return uuid.UUID(h).String() }

// Parse decodes the textual form produced by String.
func Parse(s string) (Handle, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, err
	}
	return Handle(u), nil
}

// MarshalText encodes the handle in its canonical textual form.
func (h Handle) MarshalText() ([]byte, error) { return uuid.UUID(h).MarshalText() }

// UnmarshalText decodes the form produced by MarshalText.
func (h *Handle) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(h).UnmarshalText(b)
}

// Registry is a sharded map from Handle to T.
type Registry[T any] struct {
	shards []*shard[T]
	mask   uint32
}

type shard[T any] struct {
	mu    sync.RWMutex
	items map[Handle]T
}

// New constructs a registry with shardCount shards, rounded up to a power of
// two. Non-positive counts select 16.
func New[T any](shardCount int) *Registry[T] {
	if shardCount <= 0 {
		shardCount = 16
	}
	n := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*shard[T], n)
	for i := range shards {
		shards[i] = &shard[T]{items: make(map[Handle]T)}
	}
	return &Registry[T]{shards: shards, mask: n - 1}
}

func (r *Registry[T]) shard(h Handle) *shard[T] {
	return r.shards[shardIndex(h)&r.mask]
}

// Put stores v under a fresh handle.
func (r *Registry[T]) Put(v T) Handle {
	h := Handle(uuid.New())
	sh := r.shard(h)
	sh.mu.Lock()
	sh.items[h] = v
	sh.mu.Unlock()
	return h
}

// Get resolves h.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	sh := r.shard(h)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.items[h]
	return v, ok
}

// Delete removes h and returns what it referred to. Exactly one concurrent
// caller observes ok == true.
func (r *Registry[T]) Delete(h Handle) (T, bool) {
	sh := r.shard(h)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.items[h]
	if ok {
		delete(sh.items, h)
	}
	return v, ok
}

// Len counts live handles.
func (r *Registry[T]) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// Range calls fn for every entry until fn returns false. fn must not call
// back into the registry.
func (r *Registry[T]) Range(fn func(Handle, T) bool) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		for h, v := range sh.items {
			if !fn(h, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// Handles snapshots every live handle.
func (r *Registry[T]) Handles() []Handle {
	var out []Handle
	r.Range(func(h Handle, _ T) bool {
		out = append(out, h)
		return true
	})
	return out
}

func shardIndex(h Handle) uint32 {
	return uint32(xxhash.Sum64(h[:]))
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
