package ixgbe

import (
	"encoding/binary"
	"testing"

	"github.com/ixy-go/ixy/buffer"
)

// newTestRing builds a ring over ordinary heap memory, standing in for a
// DMA-allocated descriptor array. Descriptor-level bit manipulation doesn't
// care where the backing memory came from.
func newTestRing(queueID int, ringSize uint16) *ring {
	return &ring{
		queueID:  uint16(queueID),
		ringSize: ringSize,
		descMem:  make([]byte, int(ringSize)*descriptorSize),
		buffers:  make([]buffer.Handle, ringSize),
	}
}

func TestRingNextWrapsAround(t *testing.T) {
	r := newTestRing(0, 8)

	if got := r.next(7); got != 0 {
		t.Fatalf("next(7) = %d, want 0", got)
	}
	if got := r.next(3); got != 4 {
		t.Fatalf("next(3) = %d, want 4", got)
	}
}

func TestRxDescriptorDoneAndLength(t *testing.T) {
	r := newTestRing(0, 4)

	if r.rxDescriptorDone(0) {
		t.Fatal("freshly zeroed descriptor must not read as done")
	}

	d := r.desc(0)
	binary.LittleEndian.PutUint32(d[8:12], rxStatusDD|rxStatusEOP)
	binary.LittleEndian.PutUint16(d[12:14], 128)

	if !r.rxDescriptorDone(0) {
		t.Fatal("expected descriptor 0 to read as done")
	}
	if got := r.rxLength(0); got != 128 {
		t.Fatalf("rxLength(0) = %d, want 128", got)
	}
}

func TestArmTXAndDescriptorDone(t *testing.T) {
	r := newTestRing(0, 4)

	mem := make([]byte, buffer.EntrySize)
	view := buffer.NewView(mem)
	view.SetSize(256)

	r.armTX(0, buffer.Handle(1), view, true)

	d := r.desc(0)
	cmd := binary.LittleEndian.Uint32(d[8:12])

	if cmd&txCmdEOP == 0 || cmd&txCmdRS == 0 {
		t.Fatal("expected EOP and RS set on a last-segment descriptor")
	}
	if cmd&0xffff != 256 {
		t.Fatalf("descriptor length field = %d, want 256", cmd&0xffff)
	}

	if r.txDescriptorDone(0) {
		t.Fatal("freshly posted descriptor must not read as done")
	}

	binary.LittleEndian.PutUint32(d[12:16], txStatusDD)

	if !r.txDescriptorDone(0) {
		t.Fatal("expected descriptor 0 to read as done after writeback")
	}
}
