// Package reg provides volatile access helpers for a memory-mapped PCI BAR.
//
// Unlike bare-metal Go, a userspace driver cannot take the address of a
// fixed physical register: the BAR is reached through a mmap'd byte slice
// whose base address is only known at runtime. Every access goes through
// atomic loads/stores against that slice.
package reg

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"
)

// Space is a memory-mapped register window, typically a PCI BAR0 mapping.
type Space struct {
	mem []byte
}

// New wraps an already-mapped byte slice as a register space.
func New(mem []byte) *Space {
	return &Space{mem: mem}
}

// Get reads the 32-bit register at the given byte offset.
func (s *Space) Get(offset uint32) uint32 {
	return atomic.LoadUint32(ptr32(s.mem, offset))
}

// Set writes the 32-bit register at the given byte offset.
func (s *Space) Set(offset uint32, value uint32) {
	atomic.StoreUint32(ptr32(s.mem, offset), value)
}

// SetFlags ORs mask into the register at offset (read-modify-write).
func (s *Space) SetFlags(offset uint32, mask uint32) {
	s.Set(offset, s.Get(offset)|mask)
}

// ClearFlags ANDs the complement of mask into the register at offset.
func (s *Space) ClearFlags(offset uint32, mask uint32) {
	s.Set(offset, s.Get(offset)&^mask)
}

// WaitClear spins until all bits in mask read as zero, or returns false on timeout.
func (s *Space) WaitClear(offset uint32, mask uint32, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for {
		if s.Get(offset)&mask == 0 {
			return true
		}

		if time.Now().After(deadline) {
			return false
		}
	}
}

// WaitSet spins until all bits in mask read as one, or returns false on timeout.
func (s *Space) WaitSet(offset uint32, mask uint32, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for {
		if s.Get(offset)&mask == mask {
			return true
		}

		if time.Now().After(deadline) {
			return false
		}
	}
}

// Len returns the size in bytes of the mapped register window.
func (s *Space) Len() int {
	return len(s.mem)
}

func ptr32(mem []byte, offset uint32) *uint32 {
	if int(offset)+4 > len(mem) {
		panic(fmt.Sprintf("reg: offset %#x out of bounds for %d-byte window", offset, len(mem)))
	}

	return (*uint32)(unsafe.Pointer(&mem[offset]))
}
