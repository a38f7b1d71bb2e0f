//go:build linux || darwin

// File: core/buffer/alloc_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Anonymous private mappings: zero-filled by the kernel, never moved.

package buffer

import "golang.org/x/sys/unix"

func platformAlloc(size int) (region, error) {
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return region{}, err
	}
	return region{
		data:    data,
		backing: BackingMmap,
		free:    func() error { return unix.Munmap(data) },
	}, nil
}
