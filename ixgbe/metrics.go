package ixgbe

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ixy-go/ixy/device"
)

// Metrics is a thin prometheus adapter over device.Stats, kept out of the
// core Device type so the driver itself never forces a global registry on
// callers that don't want one.
type Metrics struct {
	rxPackets prometheus.Counter
	txPackets prometheus.Counter
	rxBytes   prometheus.Counter
	txBytes   prometheus.Counter

	last device.Stats
}

// NewMetrics registers the ixgbe counters for a given PCI address under the
// supplied registerer.
func NewMetrics(reg prometheus.Registerer, pciAddress string) *Metrics {
	labels := prometheus.Labels{"pci_address": pciAddress}

	m := &Metrics{
		rxPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ixgbe_rx_packets_total",
			Help:        "Total packets received.",
			ConstLabels: labels,
		}),
		txPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ixgbe_tx_packets_total",
			Help:        "Total packets transmitted.",
			ConstLabels: labels,
		}),
		rxBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ixgbe_rx_bytes_total",
			Help:        "Total bytes received.",
			ConstLabels: labels,
		}),
		txBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ixgbe_tx_bytes_total",
			Help:        "Total bytes transmitted.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(m.rxPackets, m.txPackets, m.rxBytes, m.txBytes)

	return m
}

// Update adds the delta between the previous and current Stats snapshot to
// the prometheus counters (counters may only increase).
func (m *Metrics) Update(s device.Stats) {
	if d := s.RxPackets - m.last.RxPackets; d > 0 {
		m.rxPackets.Add(float64(d))
	}
	if d := s.TxPackets - m.last.TxPackets; d > 0 {
		m.txPackets.Add(float64(d))
	}
	if d := s.RxBytes - m.last.RxBytes; d > 0 {
		m.rxBytes.Add(float64(d))
	}
	if d := s.TxBytes - m.last.TxBytes; d > 0 {
		m.txBytes.Add(float64(d))
	}

	m.last = s
}
