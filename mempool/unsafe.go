package mempool

import "unsafe"

// bytesAt reconstructs a byte slice view over a DMA region at a given
// virtual address, for direct header and payload access.
func bytesAt(virt uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(virt)), size)
}
