// Package ixgbe implements the register programming, init sequence, and
// RX/TX ring protocol for the Intel ixgbe 10-Gigabit Ethernet family: a
// struct holding resolved register offsets, an init sequence that walks
// reset-then-configure with bounded register polls, and RX/TX entry points
// operating on a descriptor ring.
package ixgbe

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ixy-go/ixy/buffer"
	"github.com/ixy-go/ixy/device"
	"github.com/ixy-go/ixy/mempool"
	"github.com/ixy-go/ixy/pci"
	"github.com/ixy-go/ixy/reg"
)

// Name is the driver name this package registers under.
const Name = "ixgbe"

func init() {
	device.Register(Name, func(pciAddress string) (device.Device, error) {
		return Open(pciAddress, Config{})
	})
}

// lifecycleState models the device's lifecycle:
// unconfigured -> configured -> running -> stopped -> closed.
type lifecycleState int

const (
	stateUnconfigured lifecycleState = iota
	stateConfigured
	stateRunning
	stateStopped
	stateClosed
)

// Bounded polling timeouts for initialization and link-up.
const (
	resetTimeout      = 10 * time.Millisecond
	queueEnableTimeout = 10 * time.Millisecond
	linkTimeout       = time.Second
)

// Config controls optional Device behavior.
type Config struct {
	// NumQueues is the number of RX/TX queue pairs to bring up. Defaults
	// to 1.
	NumQueues int
	// RingSize overrides DefaultRingSize (must be a power of two).
	RingSize int
	// Promiscuous, if true, is applied during Start.
	Promiscuous bool
	// Debug enables zap development logging for the init sequence, PCI
	// teardown and Close; off by default. RxBatch and TxBatch never log,
	// whatever this is set to.
	Debug bool
}

// Device is the ixgbe driver's Device implementation.
type Device struct {
	pciAddress string
	pci        *pci.Device
	bar0       *reg.Space
	log        *zap.Logger

	state     lifecycleState
	numQueues int
	ringSize  uint16

	rxRings []*ring
	txRings []*ring

	promiscuous bool
	stats       device.Stats
}

// Open runs the PCI open sequence and the ixgbe init sequence, returning
// a Device in the configured state.
func Open(pciAddress string, cfg Config) (*Device, error) {
	if cfg.NumQueues == 0 {
		cfg.NumQueues = 1
	}

	ringSize := uint16(cfg.RingSize)
	if ringSize == 0 {
		ringSize = DefaultRingSize
	}

	logger := zap.NewNop()
	if cfg.Debug {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			logger = zap.NewNop()
		}
	}

	pciDev, err := pci.Open(pciAddress, VendorIntel, Device82599, logger)
	if err != nil {
		return nil, fmt.Errorf("ixgbe: open pci device: %w", err)
	}

	d := &Device{
		pciAddress:  pciAddress,
		pci:         pciDev,
		bar0:        pciDev.BAR0(),
		log:         logger,
		numQueues:   cfg.NumQueues,
		ringSize:    ringSize,
		promiscuous: cfg.Promiscuous,
	}

	if err := d.init(); err != nil {
		d.state = stateUnconfigured
		pciDev.Close()
		return nil, err
	}

	d.state = stateConfigured

	return d, nil
}

// SetRxPool associates a MemoryPool with an RX queue.
func (d *Device) SetRxPool(queue int, pool *mempool.Pool) {
	d.rxRings[queue].pool = pool
}

// init runs the reset/EEPROM/link/stats/RX/TX bring-up sequence.
func (d *Device) init() error {
	if err := d.reset(); err != nil {
		return err
	}

	if !d.bar0.WaitSet(EEC, EEC_AUTO_RD, queueEnableTimeout) {
		return &InitTimeoutError{Register: "EEC", Mask: EEC_AUTO_RD}
	}

	if !d.bar0.WaitSet(RDRXCTL, RDRXCTL_DMAIDONE, queueEnableTimeout) {
		return &InitTimeoutError{Register: "RDRXCTL", Mask: RDRXCTL_DMAIDONE}
	}

	d.configureLink()
	d.clearStatsCounters()

	if err := d.initRX(); err != nil {
		return err
	}

	if err := d.initTX(); err != nil {
		return err
	}

	return d.start()
}

// reset issues CTRL.RST and waits for it to self-clear.
func (d *Device) reset() error {
	d.bar0.SetFlags(CTRL, CTRL_RST_MASK)
	time.Sleep(resetTimeout)

	if !d.bar0.WaitClear(CTRL, CTRL_RST_MASK, resetTimeout) {
		return &InitTimeoutError{Register: "CTRL", Mask: CTRL_RST_MASK}
	}

	return nil
}

// configureLink sets 10 Gb KX4/KR as the multispeed link mode and restarts
// autonegotiation.
func (d *Device) configureLink() {
	d.bar0.ClearFlags(AUTOC, AUTOC_LMS_MASK)
	d.bar0.SetFlags(AUTOC, AUTOC_LMS_KX4_KX_KR)
	d.bar0.SetFlags(AUTOC, AUTOC_RESTART_AN)
}

// clearStatsCounters is the statistics step of the init sequence. No
// hardware counter registers are defined in this package, so it reads and
// clears no counter; it only emits a debug log line. The counters reported
// by ReadStats are kept in software by RxBatch and TxBatch.
func (d *Device) clearStatsCounters() {
	d.log.Debug("clearing hardware statistics counters")
}

// initRX disables RX, configures CRC strip and broadcast accept, then
// brings up each RX queue's descriptor ring. The rings are not filled here:
// FillRxQueue does that once a pool is attached, via Allocate.
func (d *Device) initRX() error {
	d.bar0.ClearFlags(RXCTRL, RXCTRL_RXEN)
	d.bar0.SetFlags(HLREG0, HLREG0_RXCRCSTRP)
	d.bar0.SetFlags(FCTRL, FCTRL_BAM)

	d.rxRings = make([]*ring, d.numQueues)

	for q := 0; q < d.numQueues; q++ {
		r, err := newRing(q, d.ringSize)
		if err != nil {
			return fmt.Errorf("ixgbe: rx queue %d: %w", q, err)
		}

		d.bar0.Set(RDBAL(q), uint32(r.BasePhysical()))
		d.bar0.Set(RDBAH(q), uint32(r.BasePhysical()>>32))
		d.bar0.Set(RDLEN(q), uint32(d.ringSize)*descriptorSize)
		d.bar0.Set(RDH(q), 0)
		d.bar0.Set(RDT(q), 0)

		d.bar0.SetFlags(SRRCTL(q), SRRCTL_DESCTYPE_ADV_ONEBUF|SRRCTL_DROP_EN)
		d.bar0.SetFlags(RXDCTL(q), RXDCTL_ENABLE)

		if !d.bar0.WaitSet(RXDCTL(q), RXDCTL_ENABLE, queueEnableTimeout) {
			return &InitTimeoutError{Register: fmt.Sprintf("RXDCTL(%d)", q), Mask: RXDCTL_ENABLE}
		}

		d.rxRings[q] = r
	}

	return nil
}

// FillRxQueue arms every descriptor in queue q's ring with a fresh buffer
// from its associated pool and sets RDT to ring_size-1. It must be called
// once a pool has been attached via SetRxPool, typically from Allocate().
func (d *Device) FillRxQueue(q int) error {
	r := d.rxRings[q]
	if r.pool == nil {
		return fmt.Errorf("ixgbe: rx queue %d: %w", q, ErrQueueWithoutPool)
	}

	for i := uint16(0); i < r.ringSize; i++ {
		h := r.pool.Pop()
		if h == buffer.Empty {
			return fmt.Errorf("ixgbe: rx queue %d: pool exhausted during initial fill", q)
		}

		r.armRX(i, h, r.pool)
	}

	d.bar0.Set(RDT(q), uint32(r.ringSize-1))

	return nil
}

// initTX configures CRC/pad generation, brings up each TX queue's ring, and
// enables the global TX DMA engine once all queues are programmed.
func (d *Device) initTX() error {
	d.bar0.SetFlags(HLREG0, HLREG0_TXCRCEN|HLREG0_TXPADEN)

	d.txRings = make([]*ring, d.numQueues)

	for q := 0; q < d.numQueues; q++ {
		r, err := newRing(q, d.ringSize)
		if err != nil {
			return fmt.Errorf("ixgbe: tx queue %d: %w", q, err)
		}

		d.bar0.Set(TDBAL(q), uint32(r.BasePhysical()))
		d.bar0.Set(TDBAH(q), uint32(r.BasePhysical()>>32))
		d.bar0.Set(TDLEN(q), uint32(d.ringSize)*descriptorSize)
		d.bar0.Set(TDH(q), 0)
		d.bar0.Set(TDT(q), 0)

		d.txRings[q] = r
	}

	d.bar0.SetFlags(DMATXCTL, DMATXCTL_TE)

	for q := 0; q < d.numQueues; q++ {
		d.bar0.SetFlags(TXDCTL(q), TXDCTL_ENABLE)

		if !d.bar0.WaitSet(TXDCTL(q), TXDCTL_ENABLE, queueEnableTimeout) {
			return &InitTimeoutError{Register: fmt.Sprintf("TXDCTL(%d)", q), Mask: TXDCTL_ENABLE}
		}
	}

	return nil
}

// start enables RX, applies the configured promiscuous mode, and waits for
// link.
func (d *Device) start() error {
	d.bar0.SetFlags(RXCTRL, RXCTRL_RXEN)

	if d.promiscuous {
		d.bar0.SetFlags(FCTRL, FCTRL_UPE|FCTRL_MPE)
	}

	if !d.bar0.WaitSet(LINKS, LINKS_UP, linkTimeout) {
		return &InitTimeoutError{Register: "LINKS", Mask: LINKS_UP}
	}

	return nil
}

// Allocate fills every RX queue's descriptor ring from its attached pool
// and transitions the device to running. SetRxPool must have been called
// for every queue first.
func (d *Device) Allocate() error {
	for q := range d.rxRings {
		if err := d.FillRxQueue(q); err != nil {
			return err
		}
	}

	d.state = stateRunning

	return nil
}

// IsSupported always reports true: this is the real hardware driver.
func (d *Device) IsSupported() bool { return true }

// ReadStats copies the device's current counters into out.
func (d *Device) ReadStats(out *device.Stats) {
	*out = d.stats
}

// IsPromiscuous reports whether promiscuous mode is enabled.
func (d *Device) IsPromiscuous() bool { return d.promiscuous }

// EnablePromiscuous sets FCTRL's unicast and multicast promiscuous bits.
func (d *Device) EnablePromiscuous() error {
	d.bar0.SetFlags(FCTRL, FCTRL_UPE|FCTRL_MPE)
	d.promiscuous = true
	return nil
}

// DisablePromiscuous clears FCTRL's promiscuous bits.
func (d *Device) DisablePromiscuous() error {
	d.bar0.ClearFlags(FCTRL, FCTRL_UPE|FCTRL_MPE)
	d.promiscuous = false
	return nil
}

// GetLinkSpeed decodes LINKS.LINK_SPEED into Mbit/s, or 0 if the link is
// down.
func (d *Device) GetLinkSpeed() int {
	links := d.bar0.Get(LINKS)

	if links&LINKS_UP == 0 {
		return 0
	}

	switch links & LINKS_SPEED_MASK {
	case LINKS_SPEED_10G:
		return 10000
	case LINKS_SPEED_1G:
		return 1000
	case LINKS_SPEED_100:
		return 100
	default:
		return 0
	}
}

// Close tears the device down, unmapping BAR0 and closing the PCI config
// space handle. Ring DMA regions are intentionally left mapped: freeing
// them requires draining in-flight NIC ownership first, which Close does
// not attempt. A running device must be drained by the caller before
// Close.
func (d *Device) Close() error {
	d.state = stateClosed

	err := d.pci.Close()
	if err != nil {
		d.log.Warn("ixgbe: error during close", zap.Error(err))
	}

	return err
}

var _ device.Device = (*Device)(nil)
