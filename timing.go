package m68k

// This file carries the 68000's effective-address timing table (Motorola's
// PRM Table 8-1). It's pure ISA data — the same on any 68000 regardless of
// what's wired to its bus — so the board's memory map and peripheral wait
// states don't enter into it; sbc.SBC's cycle accounting is built entirely
// on top of the totals these functions feed into Step.

// eaFetchCycles is the cost of resolving a source operand's effective
// address for a read. Register-direct modes (Dn, An) are free; every other
// mode pays for the extension words and/or memory access it needs. A long
// operand adds 4 cycles on top of any non-zero base.
func eaFetchCycles(mode, reg uint8, sz Size) uint64 {
	const (
		dataOrAddrReg = 0 // covers modes 0 (Dn) and 1 (An)
		indirect      = 2
		indirectPost  = 3
		indirectPre   = 4
		dispAn        = 5
		indexedAn     = 6
		extended      = 7
	)

	var base uint64
	switch mode {
	case dataOrAddrReg, 1:
		base = 0
	case indirect, indirectPost:
		base = 4
	case indirectPre:
		base = 6
	case dispAn:
		base = 8
	case indexedAn:
		base = 10
	case extended:
		switch reg {
		case 0: // abs.W
			base = 8
		case 1: // abs.L
			base = 12
		case 2: // d16(PC)
			base = 8
		case 3: // d8(PC,Xn)
			base = 10
		case 4: // #imm
			base = 4
		}
	}
	if sz == Long && base > 0 {
		base += 4
	}
	return base
}

// eaWriteCycles is the cost of resolving a destination operand's effective
// address for a write. It mirrors eaFetchCycles except that -(An) costs 4
// here rather than 6 — there's no separate decrement-then-read step on the
// write side.
func eaWriteCycles(mode, reg uint8, sz Size) uint64 {
	var base uint64
	switch mode {
	case 0, 1: // Dn, An
		base = 0
	case 2, 3, 4: // (An), (An)+, -(An)
		base = 4
	case 5: // d16(An)
		base = 8
	case 6: // d8(An,Xn)
		base = 10
	case 7:
		switch reg {
		case 0: // abs.W
			base = 8
		case 1: // abs.L
			base = 12
		}
	}
	if sz == Long && base > 0 {
		base += 4
	}
	return base
}
