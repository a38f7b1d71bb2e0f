//go:build windows

// File: core/buffer/alloc_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// VirtualAlloc-committed pages; released with MEM_RELEASE.

package buffer

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func platformAlloc(size int) (region, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT,
		windows.PAGE_READWRITE)
	if err != nil {
		return region{}, err
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return region{
		data:    data,
		backing: BackingVirtualAlloc,
		free:    func() error { return windows.VirtualFree(addr, 0, windows.MEM_RELEASE) },
	}, nil
}
