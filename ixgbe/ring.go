package ixgbe

import (
	"encoding/binary"
	"fmt"

	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/mempool"
	"github.com/ixy-go/ixy/osmem"
)

const (
	// descriptorSize is the fixed 16-byte size of an ixgbe advanced
	// descriptor.
	descriptorSize = 16

	// DefaultRingSize is the descriptor count per queue (512-entry
	// descriptor rings).
	DefaultRingSize = 512

	// txCleanBatch bounds how many completed TX descriptors are reaped
	// per TxBatch call before writing TDT.
	txCleanBatch = 32
)

// RX descriptor writeback field bit positions, within the third 32-bit word
// (status_error, byte offset 8).
const (
	rxStatusDD  = 1 << 0
	rxStatusEOP = 1 << 1

	// rxErrorMask covers the advanced RX writeback error bits (upper 12
	// bits of the status_error dword: RXE, IPE, L4E, and friends). Any bit
	// set there means the MAC flagged the frame, independent of which
	// specific error fired.
	rxErrorMask = 0xfff << 20
)

// TX descriptor cmd_type_len bit positions (byte offset 8).
const (
	txCmdEOP  = 1 << 24
	txCmdIFCS = 1 << 25
	txCmdRS   = 1 << 27
	txCmdDEXT = 1 << 29
)

// txStatusDD is bit 0 of the fourth 32-bit word (olinfo_status / STA on
// writeback, byte offset 12).
const txStatusDD = 1 << 0

// ring is the descriptor-ring state machine shared by RX and TX queues.
type ring struct {
	queueID  uint16
	ringSize uint16

	descVirt uintptr
	descPhys uint64
	descMem  []byte

	// buffers is the software shadow array, parallel to descriptors.
	buffers []buffer.Handle

	// index is the software cursor: for RX, the next slot to inspect for
	// a completed descriptor and refill; for TX, the next slot to post
	// into.
	index uint16

	// cleanIndex is TX-only: the next slot to check for NIC-writeback
	// completion during reclaim.
	cleanIndex uint16

	// pool is the MemoryPool associated with an RX queue; nil for TX
	// rings and for RX rings that have not yet been configured (queues
	// without one fault on RxBatch).
	pool *mempool.Pool
}

// newRing allocates a ring_size * descriptorSize contiguous DMA region for
// the descriptor array. Physical contiguity is required because the NIC
// walks the ring as one linear array.
func newRing(queueID int, ringSize uint16) (*ring, error) {
	size := int(ringSize) * descriptorSize

	virt, phys, err := osmem.AllocateDMA(size, true)
	if err != nil {
		return nil, fmt.Errorf("ixgbe: allocate descriptor ring: %w", err)
	}

	r := &ring{
		queueID:  uint16(queueID),
		ringSize: ringSize,
		descVirt: virt,
		descPhys: phys,
		descMem:  bytesAt(virt, size),
		buffers:  make([]buffer.Handle, ringSize),
	}

	return r, nil
}

func (r *ring) desc(i uint16) []byte {
	off := int(i) * descriptorSize
	return r.descMem[off : off+descriptorSize]
}

func (r *ring) next(i uint16) uint16 {
	i++
	if i == r.ringSize {
		return 0
	}
	return i
}

// armRX writes a fresh buffer's physical address (plus headroom) into
// descriptor i as an RX read descriptor and clears its status word, leaving
// it nic-owned.
func (r *ring) armRX(i uint16, h buffer.Handle, pool *mempool.Pool) {
	view := pool.View(h)
	d := r.desc(i)

	binary.LittleEndian.PutUint64(d[0:8], view.PhysicalAddress()+buffer.HeadroomOffset)
	binary.LittleEndian.PutUint64(d[8:16], 0)

	r.buffers[i] = h
}

// rxDescriptorDone reports whether descriptor i carries the DD bit, i.e.
// the NIC has written back a completed frame into it.
func (r *ring) rxDescriptorDone(i uint16) bool {
	d := r.desc(i)
	statusError := binary.LittleEndian.Uint32(d[8:12])
	return statusError&rxStatusDD != 0
}

// rxLength reads the writeback length field of descriptor i.
func (r *ring) rxLength(i uint16) uint16 {
	d := r.desc(i)
	return binary.LittleEndian.Uint16(d[12:14])
}

// rxHasError reports whether the MAC flagged an error on descriptor i's
// frame (CRC, length, or similar).
func (r *ring) rxHasError(i uint16) bool {
	d := r.desc(i)
	statusError := binary.LittleEndian.Uint32(d[8:12])
	return statusError&rxErrorMask != 0
}

// armTX writes a buffer's physical address and command flags into
// descriptor i as a TX read descriptor.
func (r *ring) armTX(i uint16, h buffer.Handle, view buffer.View, last bool) {
	d := r.desc(i)

	cmd := uint32(txCmdDEXT | txCmdIFCS)
	if last {
		cmd |= txCmdEOP | txCmdRS
	}
	cmd |= uint32(view.Size())

	binary.LittleEndian.PutUint64(d[0:8], view.PhysicalAddress()+buffer.HeadroomOffset)
	binary.LittleEndian.PutUint32(d[8:12], cmd)
	binary.LittleEndian.PutUint32(d[12:16], 0)

	r.buffers[i] = h
}

// txDescriptorDone reports whether descriptor i has been written back by
// the NIC (transmission complete).
func (r *ring) txDescriptorDone(i uint16) bool {
	d := r.desc(i)
	status := binary.LittleEndian.Uint32(d[12:16])
	return status&txStatusDD != 0
}

// BasePhysical returns the physical address of the descriptor array, for
// programming RDBAL/RDBAH or TDBAL/TDBAH.
func (r *ring) BasePhysical() uint64 {
	return r.descPhys
}
