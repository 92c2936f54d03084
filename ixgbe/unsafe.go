package ixgbe

import "unsafe"

// bytesAt reconstructs a byte slice view over a DMA region at a given
// virtual address.
func bytesAt(virt uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(virt)), size)
}
