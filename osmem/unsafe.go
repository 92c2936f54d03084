package osmem

import "unsafe"

// unsafePointerOf returns the address of a mmap'd slice's backing array.
func unsafePointerOf(mem []byte) uintptr {
	if len(mem) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(&mem[0]))
}

// bytesAt reconstructs the slice header mmap returned, for handing back to
// munmap. Only valid for addresses obtained from this package's own Mmap
// calls.
func bytesAt(virt uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(virt)), size)
}
