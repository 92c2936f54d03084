package ixgbe

// Register map. Per-queue registers are functions of queue index q,
// following the ixgbe hardware layout.
const (
	CTRL     = 0x00000
	STATUS   = 0x00008
	CTRL_EXT = 0x00018

	EEC     = 0x10010
	RDRXCTL = 0x02F00

	AUTOC = 0x042A0
	LINKS = 0x042A4

	RXCTRL = 0x03000
	FCTRL  = 0x05080
	HLREG0 = 0x04240

	DMATXCTL = 0x04A80
)

// CTRL bits.
const (
	CTRL_RST_MASK = 1 << 26
)

// CTRL_EXT bits.
const (
	CTRL_EXT_NO_SNOOP_DIS = 1 << 16
)

// EEC bits.
const (
	EEC_AUTO_RD = 1 << 9
)

// RDRXCTL bits.
const (
	RDRXCTL_DMAIDONE = 1 << 3
)

// AUTOC bits: 10 Gb KX4/KR multispeed, restart autoneg.
const (
	AUTOC_LMS_MASK     = 0x7 << 13
	AUTOC_LMS_KX4_KX_KR = 0x4 << 13
	AUTOC_RESTART_AN   = 1 << 12
)

// LINKS bits: link up and speed.
const (
	LINKS_UP         = 1 << 30
	LINKS_SPEED_MASK = 0x3 << 28
	LINKS_SPEED_100  = 0x1 << 28
	LINKS_SPEED_1G   = 0x2 << 28
	LINKS_SPEED_10G  = 0x3 << 28
)

// RXCTRL bits.
const (
	RXCTRL_RXEN = 1 << 0
)

// FCTRL bits.
const (
	FCTRL_BAM = 1 << 10
	FCTRL_MPE = 1 << 8 // promiscuous multicast
	FCTRL_UPE = 1 << 9 // promiscuous unicast
)

// HLREG0 bits.
const (
	HLREG0_TXCRCEN = 1 << 0
	HLREG0_TXPADEN = 1 << 10
	HLREG0_RXCRCSTRP = 1 << 1
)

// DMATXCTL bits.
const (
	DMATXCTL_TE = 1 << 0
)

// SRRCTL bits.
const (
	SRRCTL_DESCTYPE_ADV_ONEBUF = 1 << 25
	SRRCTL_DROP_EN             = 1 << 28
)

// TXDCTL bits.
const (
	TXDCTL_ENABLE = 1 << 25
)

// RXDCTL bits.
const (
	RXDCTL_ENABLE = 1 << 25
)

// RDBAL returns the RX descriptor base address low register for queue q.
func RDBAL(q int) uint32 { return 0x01000 + 0x40*uint32(q) }

// RDBAH returns the RX descriptor base address high register for queue q.
func RDBAH(q int) uint32 { return RDBAL(q) + 0x04 }

// RDLEN returns the RX descriptor ring length register for queue q.
func RDLEN(q int) uint32 { return RDBAL(q) + 0x08 }

// RDH returns the RX descriptor head register for queue q.
func RDH(q int) uint32 { return RDBAL(q) + 0x10 }

// RDT returns the RX descriptor tail register for queue q.
func RDT(q int) uint32 { return RDBAL(q) + 0x18 }

// RXDCTL returns the RX descriptor control register for queue q.
func RXDCTL(q int) uint32 { return RDBAL(q) + 0x28 }

// SRRCTL returns the split receive control register for queue q.
func SRRCTL(q int) uint32 { return 0x02100 + 0x04*uint32(q) }

// TDBAL returns the TX descriptor base address low register for queue q.
func TDBAL(q int) uint32 { return 0x06000 + 0x40*uint32(q) }

// TDBAH returns the TX descriptor base address high register for queue q.
func TDBAH(q int) uint32 { return TDBAL(q) + 0x04 }

// TDLEN returns the TX descriptor ring length register for queue q.
func TDLEN(q int) uint32 { return TDBAL(q) + 0x08 }

// TDH returns the TX descriptor head register for queue q.
func TDH(q int) uint32 { return TDBAL(q) + 0x10 }

// TDT returns the TX descriptor tail register for queue q.
func TDT(q int) uint32 { return TDBAL(q) + 0x18 }

// TXDCTL returns the TX descriptor control register for queue q.
func TXDCTL(q int) uint32 { return TDBAL(q) + 0x28 }

// Intel 82599/X540 ixgbe vendor/device ids, used by the registry factory to
// validate the bound PCI device. 0x10fb is the 82599ES 10-Gigabit SFI/SFP+
// most commonly used in testbeds.
const (
	VendorIntel = 0x8086
	Device82599 = 0x10fb
)
