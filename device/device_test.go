package device_test

import (
	"errors"
	"testing"

	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/device"
	"github.com/ixy-go/ixy/mempool"
)

type stubDevice struct{}

func (stubDevice) IsSupported() bool                 { return false }
func (stubDevice) Allocate() error                   { return nil }
func (stubDevice) ReadStats(out *device.Stats)       {}
func (stubDevice) IsPromiscuous() bool               { return false }
func (stubDevice) EnablePromiscuous() error           { return nil }
func (stubDevice) DisablePromiscuous() error          { return nil }
func (stubDevice) GetLinkSpeed() int                  { return 0 }
func (stubDevice) SetRxPool(queue int, pool *mempool.Pool) {}
func (stubDevice) RxBatch(queue int, bufs []buffer.Handle, offset, length int) int { return 0 }
func (stubDevice) TxBatch(queue int, bufs []buffer.Handle, offset, length int) int { return 0 }
func (stubDevice) Close() error                       { return nil }

func TestGetDeviceUnknownDriver(t *testing.T) {
	_, err := device.GetDevice("0000:00:00.0", "no-such-driver-xyz")
	if !errors.Is(err, device.ErrUnknownDriver) {
		t.Fatalf("got %v, want ErrUnknownDriver", err)
	}
}

func TestRegisterAndGetDevice(t *testing.T) {
	device.Register("stub-test-driver", func(pciAddress string) (device.Device, error) {
		return stubDevice{}, nil
	})

	d, err := device.GetDevice("0000:01:00.0", "stub-test-driver")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	if d.IsSupported() {
		t.Fatal("stub device should report unsupported")
	}
}
