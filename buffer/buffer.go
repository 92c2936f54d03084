// Package buffer defines the fixed-layout packet buffer header shared with
// the NIC over DMA.
package buffer

import "encoding/binary"

const (
	// HeadroomOffset is the byte offset from the start of a buffer header
	// to its payload, chosen so the payload begins 64-byte aligned.
	HeadroomOffset = 64

	// PayloadMax is the largest payload a buffer can carry, enough for a
	// full (non-jumbo) Ethernet frame.
	PayloadMax = 2048

	// EntrySize is the total size of one pool slot: header fields, the
	// head-room pad up to HeadroomOffset, and the payload area.
	EntrySize = HeadroomOffset + PayloadMax
)

// Handle is an opaque reference to one DMA-mapped packet buffer slot. It is
// the buffer's own header virtual address; Buffer fields are read and
// written directly through it.
type Handle uintptr

// Empty is the sentinel handle returned on pool underflow. It belongs to no
// pool and must never be handed to the NIC.
const Empty Handle = 0

// View projects the raw header bytes of a buffer at a given handle. The
// handle must point at EntrySize bytes of backing memory owned by a pool;
// View does not itself perform bounds checking against pool membership.
type View struct {
	mem []byte
}

// NewView wraps the EntrySize-byte region starting at a pool slot.
func NewView(mem []byte) View {
	return View{mem: mem}
}

// PhysicalAddress returns the bus address of this buffer's header.
func (v View) PhysicalAddress() uint64 {
	return binary.LittleEndian.Uint64(v.mem[0:8])
}

// SetPhysicalAddress is only ever called once, during pool allocation:
// a buffer's physical address never changes after construction.
func (v View) SetPhysicalAddress(addr uint64) {
	binary.LittleEndian.PutUint64(v.mem[0:8], addr)
}

// PoolID returns the id of the pool owning this buffer (0 if orphan).
func (v View) PoolID() uint32 {
	return binary.LittleEndian.Uint32(v.mem[8:12])
}

// SetPoolID records the owning pool's id, during pool allocation.
func (v View) SetPoolID(id uint32) {
	binary.LittleEndian.PutUint32(v.mem[8:12], id)
}

// Size returns the current payload length in bytes.
func (v View) Size() uint32 {
	return binary.LittleEndian.Uint32(v.mem[12:16])
}

// SetSize sets the current payload length in bytes.
func (v View) SetSize(n uint32) {
	binary.LittleEndian.PutUint32(v.mem[12:16], n)
}

// Payload returns the payload slice, sized to Size().
func (v View) Payload() []byte {
	return v.mem[HeadroomOffset : HeadroomOffset+v.Size()]
}

// PayloadCapacity returns the full PAYLOAD_MAX slice regardless of Size().
func (v View) PayloadCapacity() []byte {
	return v.mem[HeadroomOffset : HeadroomOffset+PayloadMax]
}

