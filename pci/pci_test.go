package pci

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFixture builds a minimal sysfs-shaped device directory:
// vendor, device, config (256 bytes), and resource0 (a page, mmap'able).
func writeFixture(t *testing.T, dir, address string, vendor, device uint16) string {
	t.Helper()

	devDir := filepath.Join(dir, address)
	if err := os.MkdirAll(devDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(devDir, "vendor"), []byte("0x"+hex16(vendor)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "device"), []byte("0x"+hex16(device)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "config"), make([]byte, 256), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "resource0"), make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	return devDir
}

func hex16(v uint16) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{
		hexDigits[(v>>12)&0xf], hexDigits[(v>>8)&0xf], hexDigits[(v>>4)&0xf], hexDigits[v&0xf],
	})
}

func TestOpenRejectsUnsupportedDevice(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "0000:01:00.0", 0x8086, 0x10fb)

	orig := sysfsRoot
	sysfsRoot = dir
	defer func() { sysfsRoot = orig }()

	_, err := Open("0000:01:00.0", 0x8086, 0x1528, nil)
	if err != ErrUnsupportedDevice {
		t.Fatalf("got %v, want ErrUnsupportedDevice", err)
	}
}

func TestOpenRejectsMissingDevice(t *testing.T) {
	dir := t.TempDir()

	orig := sysfsRoot
	sysfsRoot = dir
	defer func() { sysfsRoot = orig }()

	_, err := Open("0000:99:00.0", 0x8086, 0x10fb, nil)
	if err != ErrDeviceNotFound {
		t.Fatalf("got %v, want ErrDeviceNotFound", err)
	}
}

func TestOpenMapsBAR0AndEnablesBusMastering(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "0000:01:00.0", 0x8086, 0x10fb)

	orig := sysfsRoot
	sysfsRoot = dir
	defer func() { sysfsRoot = orig }()

	d, err := Open("0000:01:00.0", 0x8086, 0x10fb, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if cmd := d.Read(OffsetCommand); cmd&CommandBusMaster == 0 {
		t.Fatalf("command register %#x does not have bus master bit set", cmd)
	}

	bar0 := d.BAR0()
	bar0.Set(0, 0x12345678)

	if got := bar0.Get(0); got != 0x12345678 {
		t.Fatalf("BAR0 readback = %#x, want %#x", got, 0x12345678)
	}
}

func TestConfigReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "0000:01:00.0", 0x8086, 0x10fb)

	orig := sysfsRoot
	sysfsRoot = dir
	defer func() { sysfsRoot = orig }()

	d, err := Open("0000:01:00.0", 0x8086, 0x10fb, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if err := d.Write(0x20, 0xcafebabe); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := d.Read(0x20); got != 0xcafebabe {
		t.Fatalf("Read(0x20) = %#x, want %#x", got, 0xcafebabe)
	}
}
