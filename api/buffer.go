// Package api
// Author: momentics
//
// Shared memory region contract for zero-copy hand-off between the host and
// the extraction engine.
//
// Regions may be mmap, VirtualAlloc, or heap backed. Storage never moves for
// the lifetime of the region; all access goes through bounds-checked methods.

package api

// SharedRegion describes a fixed-capacity, bounds-checked memory region.
type SharedRegion interface {
	// WriteAt copies data to [offset, offset+len(data)) and moves the cursor
	// to the end of the written range.
	WriteAt(offset int, data []byte) (int, error)

	// ReadAt returns a fresh copy of [offset, offset+length).
	ReadAt(offset, length int) ([]byte, error)

	// Borrow returns a zero-copy view of [offset, offset+length). Writes,
	// Clear and Release fail with ErrBufferBusy until done is called.
	Borrow(offset, length int) (view []byte, done func(), err error)

	// Reset moves the cursor to zero without touching the bytes.
	Reset()

	// Clear zero-fills the region and resets the cursor.
	Clear() error

	// Release reclaims the backing storage exactly once.
	Release() error

	Address() uintptr
	Capacity() int
	Cursor() int
	InFlight() int
}
