//go:build !linux && !darwin && !windows

// File: core/buffer/alloc_other.go
// Author: momentics <momentics@gmail.com>
//
// No platform allocator; New falls back to the heap.

package buffer

import "errors"

func platformAlloc(int) (region, error) {
	return region{}, errors.New("no platform allocator")
}
