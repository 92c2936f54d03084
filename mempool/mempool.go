// Package mempool implements a bounded free-list of fixed-size,
// DMA-addressable packet buffers. A Pool owns one contiguous DMA region
// carved into equal slots and exposes it as a LIFO free-list only — no
// iteration, no removal by value, no collection semantics.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/osmem"
)

// state models the pool's lifecycle: allocation is a separate, one-time
// step from construction.
type state int

const (
	stateEmpty state = iota
	stateReady
)

// Pool is a bounded LIFO free-list of DMA packet buffers carved from one
// contiguous region.
type Pool struct {
	mu sync.Mutex

	// id is the pool's process-wide unique identifier, assigned once in
	// New and never reassigned. There is no re-registration API: a pool's
	// identity is fixed for its lifetime.
	id uint32

	baseVirtual  uintptr
	basePhysical uint64
	entrySize    uint32
	entryCount   uint32

	state state
	free  []buffer.Handle

	log *zap.Logger
}

var (
	// ErrAlreadyAllocated is raised if Allocate is called more than once.
	ErrAlreadyAllocated = errors.New("mempool: allocate called on a non-empty pool")
	// ErrNotAllocated is raised by operations that require Allocate to
	// have run first.
	ErrNotAllocated = errors.New("mempool: pool has not been allocated")
)

var registry = struct {
	sync.Mutex
	byID map[uint32]*Pool
}{byID: make(map[uint32]*Pool)}

// New registers a pool in the process-wide registry with a unique id and
// returns it in the empty state. baseVirtual must point at entryCount *
// entrySize bytes of DMA memory obtained from osmem.AllocateDMA. log may be
// nil, in which case the pool logs nothing.
func New(baseVirtual uintptr, entrySize, entryCount uint32, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pool{
		baseVirtual: baseVirtual,
		entrySize:   entrySize,
		entryCount:  entryCount,
		state:       stateEmpty,
		log:         log,
	}

	registry.Lock()
	id := nextFreeID()
	registry.byID[id] = p
	registry.Unlock()

	p.id = id

	return p
}

// nextFreeID probes the next unused integer starting from (max existing id)
// + 1, wrapping around holes left by destroyed pools. Id 0 is never
// assigned: a buffer header's pool id of 0 marks an orphan. Callers must
// hold registry.Lock.
func nextFreeID() uint32 {
	var maxID uint32
	for id := range registry.byID {
		if id > maxID {
			maxID = id
		}
	}

	id := maxID + 1
	for {
		if id == 0 {
			id = 1
		}

		if _, taken := registry.byID[id]; !taken {
			return id
		}

		id++
	}
}

// Lookup resolves a pool by id from the process-wide registry, used to
// resolve a packet buffer's memory_pool_id field from anywhere.
func Lookup(id uint32) (*Pool, bool) {
	registry.Lock()
	defer registry.Unlock()

	p, ok := registry.byID[id]
	return p, ok
}

// Destroy removes a pool from the process-wide registry, permitting its id
// to be reused by a later registration. It does not free the pool's DMA
// region; callers must do that themselves with osmem.FreeDMA.
func Destroy(p *Pool) {
	registry.Lock()
	defer registry.Unlock()

	delete(registry.byID, p.id)
}

// ID returns the pool's process-wide unique identifier.
func (p *Pool) ID() uint32 {
	return p.id
}

// BasePhysical returns the physical address of the pool's DMA region.
func (p *Pool) BasePhysical() uint64 {
	return p.basePhysical
}

// EntrySize returns the size in bytes of one pool slot.
func (p *Pool) EntrySize() uint32 {
	return p.entrySize
}

// Capacity returns entry_count, the fixed number of slots in the pool.
func (p *Pool) Capacity() uint32 {
	return p.entryCount
}

// slotBytes returns the EntrySize-byte region backing slot i.
func (p *Pool) slotBytes(i uint32) []byte {
	addr := p.baseVirtual + uintptr(i)*uintptr(p.entrySize)
	return bytesAt(addr, int(p.entrySize))
}

// Allocate constructs a Packet Buffer at each slot of the DMA region,
// resolves its physical address, and pushes it onto the free-list. It may
// only be called once, transitioning the pool from empty to ready; a second
// call is a programmer error.
func (p *Pool) Allocate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateEmpty {
		return ErrAlreadyAllocated
	}

	basePhys, err := osmem.VirtToPhys(p.baseVirtual)
	if err != nil {
		return fmt.Errorf("mempool: resolve base physical address: %w", err)
	}
	p.basePhysical = basePhys

	p.free = make([]buffer.Handle, 0, p.entryCount)

	for i := uint32(0); i < p.entryCount; i++ {
		mem := p.slotBytes(i)
		view := buffer.NewView(mem)

		addr := p.baseVirtual + uintptr(i)*uintptr(p.entrySize)

		phys, err := osmem.VirtToPhys(addr)
		if err != nil {
			return fmt.Errorf("mempool: resolve slot %d physical address: %w", i, err)
		}

		view.SetPhysicalAddress(phys)
		view.SetPoolID(p.id)
		view.SetSize(0)

		p.free = append(p.free, buffer.Handle(addr))
	}

	p.state = stateReady

	return nil
}

// Pop removes and returns the most recently freed buffer (LIFO: the
// cache-hottest one). On underflow it returns the empty sentinel and never
// blocks.
func (p *Pool) Pop() buffer.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		p.log.Warn("mempool: pop on empty pool", zap.Uint32("pool_id", p.id))
		return buffer.Empty
	}

	h := p.free[n-1]
	p.free = p.free[:n-1]

	return h
}

// Push returns a buffer to the free-list. It rejects the empty sentinel, a
// buffer belonging to a different pool, or a full free-list (indicating a
// double-free) by returning false; all three are programmer errors.
func (p *Pool) Push(h buffer.Handle) bool {
	if h == buffer.Empty {
		return false
	}

	view := buffer.NewView(bytesAt(uintptr(h), int(p.EntrySize())))
	if view.PoolID() != p.id {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if uint32(len(p.free)) >= p.entryCount {
		return false
	}

	p.free = append(p.free, h)

	return true
}

// Size returns the number of buffers currently on the free-list.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.free)
}

// IsEmpty reports whether the free-list has no buffers available.
func (p *Pool) IsEmpty() bool {
	return p.Size() == 0
}

// View returns a buffer.View over the handle's EntrySize-byte region, for
// reading or writing payload/size fields.
func (p *Pool) View(h buffer.Handle) buffer.View {
	return buffer.NewView(bytesAt(uintptr(h), int(p.EntrySize())))
}
