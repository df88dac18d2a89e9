// Package sbc implements the board-level glue for a 68000 single-board
// computer: the memory map, address decoding, a 16550 UART with a
// bit-banged RTC, a CompactFlash task-file device, and the SBC type that
// wires a m68k.CPU to all of it.
package sbc

// Region identifies which part of the board's address map an address
// belongs to, as determined by the board's select equations.
type Region int

const (
	RegionOpenBus Region = iota
	RegionConflict
	RegionROM
	RegionRAM
	RegionUART
	RegionCF
)

const (
	romSize = 64 * 1024
	ramSize = 1024 * 1024
	uartLen = 16
	cfLen   = 16
)

// Decoder classifies a 24-bit address into a board region plus the offset
// within that region's backing store. It holds no state of its own; it is
// a pure function of the address, matching the board's select lines.
type Decoder struct{}

// Decode applies the board's four select equations to addr (already
// masked to 24 bits by the caller) and returns the winning region and the
// offset within that region, wrapped to the region's size.
//
//   - ROMSEL   when A23 = 0
//   - RAMSEL   when A22 = 1
//   - UARTSEL  when A23 = 1 and A22 = 0 and A21 = 1
//   - CARDSEL  when A20 = 1
//
// Zero selects asserted is open bus. More than one asserted is a conflict.
func (Decoder) Decode(addr uint32) (Region, uint32) {
	addr &= 0xFFFFFF
	a23 := (addr >> 23) & 1
	a22 := (addr >> 22) & 1
	a21 := (addr >> 21) & 1
	a20 := (addr >> 20) & 1

	romSel := a23 == 0
	ramSel := a22 == 1
	uartSel := a23 == 1 && a22 == 0 && a21 == 1
	cardSel := a20 == 1

	selected := 0
	if romSel {
		selected++
	}
	if ramSel {
		selected++
	}
	if uartSel {
		selected++
	}
	if cardSel {
		selected++
	}

	if selected == 0 {
		return RegionOpenBus, 0
	}
	if selected > 1 {
		return RegionConflict, 0
	}

	switch {
	case romSel:
		return RegionROM, addr & (romSize - 1)
	case ramSel:
		return RegionRAM, addr & (ramSize - 1)
	case uartSel:
		return RegionUART, addr & (uartLen - 1)
	default: // cardSel
		return RegionCF, addr & (cfLen - 1)
	}
}
