package ixgbe

import (
	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/mempool"
)

// ownerPool resolves the pool that owns h by reading its embedded pool id
// out of the process-wide registry, since a TX ring carries buffers from
// whatever pool the caller originally allocated them from — every buffer
// is self-describing.
func ownerPool(h buffer.Handle) *mempool.Pool {
	probe := buffer.NewView(bytesAt(uintptr(h), buffer.EntrySize))

	p, ok := mempool.Lookup(probe.PoolID())
	if !ok {
		return nil
	}

	return p
}

// RxBatch walks the ring from its software cursor collecting descriptors
// with DD set, refilling each slot with a fresh pool buffer before
// advancing RDT. If the pool runs dry mid-walk, the received descriptor
// is left un-refilled and un-advanced (RDT stays behind it) rather than
// handed back to the NIC with a stale buffer — RX starvation on that
// queue is preferable to a corrupted descriptor.
func (d *Device) RxBatch(queue int, bufs []buffer.Handle, offset, length int) int {
	r := d.rxRings[queue]
	if r.pool == nil {
		panic(ErrQueueWithoutPool)
	}

	received := 0
	index := r.index

	for received < length {
		if !r.rxDescriptorDone(index) {
			break
		}

		fresh := r.pool.Pop()
		if fresh == buffer.Empty {
			break
		}

		done := r.buffers[index]
		view := r.pool.View(done)
		view.SetSize(uint32(r.rxLength(index)))

		bufs[offset] = done
		offset++
		received++

		r.armRX(index, fresh, r.pool)

		d.stats.RxPackets++
		d.stats.RxBytes += uint64(view.Size())
		if r.rxHasError(index) {
			d.stats.RxBadPackets++
		} else {
			d.stats.RxGoodPackets++
		}

		index = r.next(index)
	}

	if index != r.index {
		prev := index
		if prev == 0 {
			prev = r.ringSize - 1
		} else {
			prev--
		}

		d.bar0.Set(RDT(queue), uint32(prev))
		r.index = index
	}

	return received
}

// TxBatch first reclaims completed descriptors up to txCleanBatch at a
// time (advancing cleanIndex past each one whose DD bit is set), then
// posts buffers into the freed slots up to the ring-full limit of
// ring_size-1 in-flight descriptors. TxBatch never blocks; once the ring
// cannot accept another descriptor it stops and returns the count
// actually posted.
func (d *Device) TxBatch(queue int, bufs []buffer.Handle, offset, length int) int {
	r := d.txRings[queue]

	d.reclaimTx(r)

	sent := 0

	for sent < length {
		nextIndex := r.next(r.index)
		if nextIndex == r.cleanIndex {
			break
		}

		h := bufs[offset]
		offset++

		pool := ownerPool(h)
		if pool == nil {
			break
		}

		view := pool.View(h)
		r.armTX(r.index, h, view, true)

		d.stats.TxPackets++
		d.stats.TxBytes += uint64(view.Size())

		r.index = nextIndex
		sent++
	}

	if sent > 0 {
		d.bar0.Set(TDT(queue), uint32(r.index))
	}

	return sent
}

// reclaimTx advances cleanIndex past up to txCleanBatch descriptors that
// the NIC has marked done, returning their buffers to the pool they came
// from. TX rings hold buffers from whatever pool the caller's packets were
// allocated in, so each reclaimed handle carries its own pool.
func (d *Device) reclaimTx(r *ring) {
	for i := 0; i < txCleanBatch; i++ {
		if r.cleanIndex == r.index {
			return
		}
		if !r.txDescriptorDone(r.cleanIndex) {
			return
		}

		h := r.buffers[r.cleanIndex]
		if pool := ownerPool(h); pool != nil {
			pool.Push(h)
		}

		r.cleanIndex = r.next(r.cleanIndex)
	}
}
