package dummy_test

import (
	"testing"

	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/device"
	_ "github.com/ixy-go/ixy/dummy"
)

func TestDummyDriverScenario(t *testing.T) {
	d, err := device.GetDevice("0000:00:00.0", "dummy")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	if d.IsSupported() {
		t.Fatal("dummy device must report unsupported")
	}

	if got := d.GetLinkSpeed(); got != 0 {
		t.Fatalf("GetLinkSpeed() = %d, want 0", got)
	}

	buf := make([]buffer.Handle, 32)
	if got := d.RxBatch(0, buf, 0, 32); got != 0 {
		t.Fatalf("RxBatch() = %d, want 0", got)
	}
}

func TestDummyPromiscuousToggle(t *testing.T) {
	d, err := device.GetDevice("0000:00:00.0", "dummy")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	if d.IsPromiscuous() {
		t.Fatal("expected promiscuous mode to start disabled")
	}

	if err := d.EnablePromiscuous(); err != nil {
		t.Fatalf("EnablePromiscuous: %v", err)
	}

	if !d.IsPromiscuous() {
		t.Fatal("expected promiscuous mode to be enabled")
	}
}
