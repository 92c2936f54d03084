// Package pci resolves a PCI device's sysfs path, reads its configuration
// space, unbinds the kernel driver, enables bus mastering, and maps BAR0
// into the process: /sys/bus/pci/devices/<addr>/{vendor,device,config,
// resource0,driver/unbind}.
package pci

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/osmem"
	"github.com/ixy-go/ixy/reg"
)

// sysfsRoot is a var, not a const, so tests can point it at a fixture
// directory instead of the real sysfs tree.
var sysfsRoot = "/sys/bus/pci/devices"

// Config space offsets.
const (
	OffsetVendorID = 0x00
	OffsetDeviceID = 0x02
	OffsetCommand  = 0x04
)

// CommandBusMaster is bit 2 of the PCI command register.
const CommandBusMaster = 1 << 2

var (
	// ErrDeviceNotFound is returned when the sysfs entry for a PCI
	// address does not exist.
	ErrDeviceNotFound = errors.New("pci: device not found")
	// ErrUnsupportedDevice is returned when the vendor/device id pair is
	// not one the caller expected.
	ErrUnsupportedDevice = errors.New("pci: unsupported vendor/device id")
)

// Device is an open handle to a PCI device: its config space file
// descriptor, its BAR0 mapping, and the resources needed to close both in
// reverse order.
type Device struct {
	Address string

	configFile *os.File
	bar0       []byte
	bar0Size   int

	log *zap.Logger
}

// sysfsPath returns the sysfs directory for a PCI address.
func sysfsPath(address string) string {
	return filepath.Join(sysfsRoot, address)
}

// Open implements the PCI open sequence:
//  1. resolve the sysfs path,
//  2. read and validate vendor/device ids,
//  3. unbind any bound kernel driver,
//  4. enable bus mastering,
//  5. mmap BAR0.
//
// log may be nil, in which case the device logs nothing on Close.
func Open(address string, knownVendor, knownDevice uint16, log *zap.Logger) (*Device, error) {
	if log == nil {
		log = zap.NewNop()
	}

	path := sysfsPath(address)

	if _, err := os.Stat(path); err != nil {
		return nil, ErrDeviceNotFound
	}

	vendor, devID, err := readIDs(path)
	if err != nil {
		return nil, err
	}

	if vendor != knownVendor || devID != knownDevice {
		return nil, ErrUnsupportedDevice
	}

	if err := unbindDriver(path, address); err != nil {
		return nil, fmt.Errorf("pci: unbind driver: %w", err)
	}

	configFile, err := os.OpenFile(filepath.Join(path, "config"), os.O_RDWR, 0)
	if err != nil {
		if os.IsPermission(err) {
			return nil, osmem.ErrNotPrivileged
		}
		return nil, fmt.Errorf("pci: open config space: %w", err)
	}

	d := &Device{Address: address, configFile: configFile, log: log}

	if err := d.enableBusMastering(); err != nil {
		d.Close()
		return nil, fmt.Errorf("pci: enable bus mastering: %w", err)
	}

	if err := d.mapBAR0(path); err != nil {
		d.Close()
		return nil, fmt.Errorf("pci: map bar0: %w", err)
	}

	return d, nil
}

func readIDs(path string) (vendor, device uint16, err error) {
	v, err := readHexFile(filepath.Join(path, "vendor"))
	if err != nil {
		return 0, 0, fmt.Errorf("pci: read vendor id: %w", err)
	}

	d, err := readHexFile(filepath.Join(path, "device"))
	if err != nil {
		return 0, 0, fmt.Errorf("pci: read device id: %w", err)
	}

	return uint16(v), uint16(d), nil
}

func readHexFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	s := strings.TrimSpace(string(data))
	s = strings.TrimPrefix(s, "0x")

	return strconv.ParseUint(s, 16, 32)
}

// unbindDriver unbinds the kernel driver currently bound to the device, if
// any. A device with no bound driver (no "driver" symlink) is left alone.
func unbindDriver(path, address string) error {
	driverLink := filepath.Join(path, "driver")

	if _, err := os.Lstat(driverLink); err != nil {
		return nil
	}

	unbindPath := filepath.Join(driverLink, "unbind")

	f, err := os.OpenFile(unbindPath, os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return osmem.ErrNotPrivileged
		}
		return err
	}
	defer f.Close()

	_, err = f.WriteString(address)

	return err
}

// Read reads a 32-bit value from config space at a given byte offset.
func (d *Device) Read(offset uint32) uint32 {
	buf := make([]byte, 4)

	if _, err := d.configFile.ReadAt(buf, int64(offset)); err != nil {
		return 0xffffffff
	}

	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

// Write writes a 32-bit value to config space at a given byte offset.
func (d *Device) Write(offset uint32, value uint32) error {
	buf := []byte{
		byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24),
	}

	_, err := d.configFile.WriteAt(buf, int64(offset))

	return err
}

func (d *Device) enableBusMastering() error {
	cmd := d.Read(OffsetCommand)
	return d.Write(OffsetCommand, cmd|CommandBusMaster)
}

// mapBAR0 memory-maps resource0, the BAR0 MMIO window, read/write into the
// process.
func (d *Device) mapBAR0(path string) error {
	resourcePath := filepath.Join(path, "resource0")

	info, err := os.Stat(resourcePath)
	if err != nil {
		return err
	}

	size := int(info.Size())

	f, err := os.OpenFile(resourcePath, os.O_RDWR, 0)
	if err != nil {
		if os.IsPermission(err) {
			return osmem.ErrNotPrivileged
		}
		return err
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}

	d.bar0 = mem
	d.bar0Size = size

	return nil
}

// BAR0 returns a reg.Space over the mapped BAR0 window.
func (d *Device) BAR0() *reg.Space {
	return reg.New(d.bar0)
}

// Close reverses the open sequence: unmap BAR0, then close the config
// space file descriptor. Failure of an individual step is logged and
// returned but does not prevent the remaining steps from running.
func (d *Device) Close() error {
	var errs []error

	if d.bar0 != nil {
		if err := unix.Munmap(d.bar0); err != nil {
			d.log.Warn("pci: failed to unmap bar0", zap.String("address", d.Address), zap.Error(err))
			errs = append(errs, fmt.Errorf("pci: unmap bar0: %w", err))
		}
		d.bar0 = nil
	}

	if d.configFile != nil {
		if err := d.configFile.Close(); err != nil {
			d.log.Warn("pci: failed to close config space", zap.String("address", d.Address), zap.Error(err))
			errs = append(errs, fmt.Errorf("pci: close config space: %w", err))
		}
		d.configFile = nil
	}

	return errors.Join(errs...)
}
