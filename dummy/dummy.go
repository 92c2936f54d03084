// Package dummy implements a no-op Device for use when no real hardware is
// available.
package dummy

import (
	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/device"
	"github.com/ixy-go/ixy/mempool"
)

// Name is the driver name this package registers under.
const Name = "dummy"

func init() {
	device.Register(Name, New)
}

// Device is a Device implementation whose every operation is a no-op.
type Device struct {
	pciAddress  string
	promiscuous bool
}

// New constructs a Dummy device bound to pciAddress. It never fails.
func New(pciAddress string) (device.Device, error) {
	return &Device{pciAddress: pciAddress}, nil
}

// IsSupported always reports false: the Dummy device never claims to be
// backed by real hardware.
func (d *Device) IsSupported() bool { return false }

// Allocate is a no-op.
func (d *Device) Allocate() error { return nil }

// ReadStats leaves out unmodified: the Dummy device tracks nothing.
func (d *Device) ReadStats(out *device.Stats) {}

// IsPromiscuous reports the flag set by Enable/DisablePromiscuous, so tests
// can exercise the toggle even though it has no hardware effect.
func (d *Device) IsPromiscuous() bool { return d.promiscuous }

// EnablePromiscuous sets the promiscuous flag.
func (d *Device) EnablePromiscuous() error {
	d.promiscuous = true
	return nil
}

// DisablePromiscuous clears the promiscuous flag.
func (d *Device) DisablePromiscuous() error {
	d.promiscuous = false
	return nil
}

// GetLinkSpeed always returns 0: the Dummy device has no link.
func (d *Device) GetLinkSpeed() int { return 0 }

// SetRxPool is a no-op: the Dummy device never touches a pool.
func (d *Device) SetRxPool(queue int, pool *mempool.Pool) {}

// RxBatch always returns 0 and touches no buffers.
func (d *Device) RxBatch(queue int, bufs []buffer.Handle, offset, length int) int {
	return 0
}

// TxBatch always returns 0 and touches no buffers.
func (d *Device) TxBatch(queue int, bufs []buffer.Handle, offset, length int) int {
	return 0
}

// Close is a no-op.
func (d *Device) Close() error { return nil }
