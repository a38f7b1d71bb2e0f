// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level DTOs.

package api

// BufferInfo is a point-in-time view of a shared region's accessors.
type BufferInfo struct {
	Address  uintptr
	Capacity int
	Cursor   int
	InFlight int
	Backing  string
}

// HandleKind names the class of object a capability handle refers to.
type HandleKind string

const (
	HandleBuffer HandleKind = "buffer"
	HandleStream HandleKind = "stream"
)
