// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Scratch allocation contract used by batch extraction.

package api

// Arena is a bump allocator reset in bulk rather than freed piecewise.
type Arena interface {
	// Allocate returns a region of exactly size bytes. Contents are not zeroed.
	Allocate(size int) ([]byte, error)

	// Reset makes the whole capacity available again without releasing it.
	Reset()

	// UsagePercent reports offset/capacity for diagnostics.
	UsagePercent() float64
}
