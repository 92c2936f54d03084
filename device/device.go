// Package device defines the polymorphic Device contract and the driver
// registry that resolves a driver name to a factory producing one.
package device

import (
	"errors"
	"sync"

	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/mempool"
)

// Stats mirrors the per-device counters every hardware family tracks:
// aggregate RX/TX packet and byte counts, plus a good/bad RX frame split.
type Stats struct {
	RxPackets uint64
	TxPackets uint64
	RxBytes   uint64
	TxBytes   uint64

	// RxGoodPackets and RxBadPackets partition RxPackets by whether the
	// NIC's writeback descriptor carried an error status.
	RxGoodPackets uint64
	RxBadPackets  uint64
}

// Device is the capability interface every hardware family implements: the
// Ixgbe driver and the Dummy test driver.
type Device interface {
	// IsSupported reports whether this instance is backed by real,
	// supported hardware. The Dummy driver always returns false.
	IsSupported() bool

	// Allocate performs secondary, queue-level initialization once RX
	// pools have been assigned.
	Allocate() error

	// ReadStats populates out with the device's current counters.
	ReadStats(out *Stats)

	// IsPromiscuous reports whether promiscuous mode is enabled.
	IsPromiscuous() bool
	// EnablePromiscuous enables promiscuous mode.
	EnablePromiscuous() error
	// DisablePromiscuous disables promiscuous mode.
	DisablePromiscuous() error

	// GetLinkSpeed returns the current link speed in Mbit/s, or 0 if down
	// or unsupported.
	GetLinkSpeed() int

	// SetRxPool associates a MemoryPool with an RX queue; rx_batch on a
	// queue without one is a programmer error.
	SetRxPool(queue int, pool *mempool.Pool)

	// RxBatch receives up to length buffers into bufs[offset:offset+length]
	// and returns the count actually received.
	RxBatch(queue int, bufs []buffer.Handle, offset, length int) int

	// TxBatch transmits up to length buffers from bufs[offset:offset+length]
	// and returns the count actually accepted; it never blocks.
	TxBatch(queue int, bufs []buffer.Handle, offset, length int) int

	// Close releases all resources held by the device.
	Close() error
}

// Factory constructs a Device bound to a PCI address.
type Factory func(pciAddress string) (Device, error)

var (
	// ErrUnknownDriver is returned when no factory is registered under
	// the requested name.
	ErrUnknownDriver = errors.New("device: unknown driver")
)

var registry = struct {
	sync.Mutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register adds a factory to the process-wide driver registry under name.
// Hardware family packages call this from their own init() functions, the
// way database/sql drivers register themselves, so that wiring in a new
// family is an import for side effects rather than an edit to this package.
func Register(name string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()

	registry.factories[name] = factory
}

// GetDevice resolves driverName to a factory and constructs a Device bound
// to pciAddress.
func GetDevice(pciAddress, driverName string) (Device, error) {
	registry.Lock()
	factory, ok := registry.factories[driverName]
	registry.Unlock()

	if !ok {
		return nil, ErrUnknownDriver
	}

	return factory(pciAddress)
}
