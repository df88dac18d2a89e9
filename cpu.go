// Package m68k implements the MC68000 core at the center of the single-board
// computer this module emulates: register file, addressing modes, the full
// instruction set, exceptions, and autovector interrupt delivery. It knows
// nothing about ROM, RAM, the UART, or the CompactFlash card — those live in
// the sbc package, behind the Bus interface below — only how a stock 68000
// fetches, decodes, and retires instructions against whatever 24-bit address
// space it's handed.
//
// The MC68000 is a 32-bit internal / 16-bit external CISC processor with:
//   - Eight 32-bit data registers (D0-D7)
//   - Eight 32-bit address registers (A0-A7), where A7 is the stack pointer
//   - A 32-bit program counter (24-bit external address bus)
//   - A 16-bit status register (system byte + condition code register)
//   - Dual stack pointers (USP for user mode, SSP for supervisor mode)
package m68k

import "log"

// Bus is the memory the CPU executes against. sbc.Memory implements it by
// decoding every address into one of the board's regions (ROM, RAM, UART,
// CompactFlash, open bus, or a decode conflict) before the read or write
// reaches a backing store or peripheral; the CPU itself only sees a flat
// 24-bit space.
type Bus interface {
	Read(op Size, addr uint32) uint32
	Write(op Size, addr uint32, val uint32)
	Reset()
}

// CycleBus is an optional refinement of Bus for buses that need to know
// which cycle an access falls on — relevant to a board with DMA or
// cycle-accurate peripheral timing. The board this package targets has
// neither, so sbc.Memory implements Bus only and CPU falls back to the
// plain Read/Write path below.
type CycleBus interface {
	Bus
	ReadCycle(cycle uint64, op Size, addr uint32) uint32
	WriteCycle(cycle uint64, op Size, addr uint32, val uint32)
}

// Registers is the programmer-visible state of the 68000: the board's boot
// ROM and any application running on it only ever observe the CPU through
// a snapshot of this shape (via CPU.Registers) or by constructing one to
// feed to SetState.
type Registers struct {
	D   [8]uint32 // Data registers
	A   [8]uint32 // Address registers (A7 is active stack pointer)
	PC  uint32    // Program counter
	SR  uint16    // Status register
	USP uint32    // User stack pointer (shadowed)
	SSP uint32    // Supervisor stack pointer (shadowed)
	IR  uint16    // Instruction register (first word of executing instruction)
}

// CPU is a single MC68000 core. sbc.SBC owns exactly one, wired to its
// Memory, and drives it one instruction at a time via Step.
type CPU struct {
	reg      Registers
	bus      Bus
	cycleBus CycleBus // non-nil when bus implements CycleBus
	cycles   uint64

	// ir latches the first word of the instruction currently being
	// executed, captured at fetch time.
	ir uint16

	stopped bool   // Set by STOP, cleared by a deliverable interrupt
	halted  bool   // Set by a double bus fault (e.g. odd-address access)
	prevPC  uint32 // PC of the previous instruction, kept for fault logging

	// Autovector interrupt request latched by RequestInterrupt and
	// consumed by checkInterrupt/processInterrupt at the top of Step.
	pendingIPL uint8  // requested priority level, 1-7; 0 means none pending
	pendingVec *uint8 // explicit vector number, nil selects autovectoring

	// deficit carries over cycles an instruction cost beyond what a prior
	// StepCycles budget allowed, to be charged against the next call.
	deficit int
}

// New wires a CPU to bus and performs the equivalent of a hardware reset:
// the initial SSP and PC are read from bus addresses 0 and 4, exactly as
// the board's reset vector does when the 68000 is taken out of reset.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.cycleBus, _ = bus.(CycleBus)
	c.Reset()
	return c
}

// Reset performs a hardware reset: reads the initial SSP from $000000 and
// the initial PC from $000004 of the reset vector table (which the board
// leaves pointing into ROM until the embedder overlays RAM), and enters
// supervisor mode with the interrupt mask at its highest level.
func (c *CPU) Reset() {
	c.cycleBus, _ = c.bus.(CycleBus)
	c.reg = Registers{SR: 0x2700}
	c.stopped = false
	c.halted = false
	c.cycles = 0
	c.deficit = 0
	c.pendingIPL = 0
	c.pendingVec = nil

	ssp := c.resetVectorLong(0)
	c.reg.A[7] = ssp
	c.reg.SSP = ssp
	c.reg.PC = c.resetVectorLong(4)
}

// resetVectorLong reads a long from the bus during Reset, before the normal
// readBus halt-on-fault machinery is meaningful (the CPU isn't running yet).
func (c *CPU) resetVectorLong(addr uint32) uint32 {
	if c.cycleBus != nil {
		return c.cycleBus.ReadCycle(c.cycles, Long, addr)
	}
	return c.bus.Read(Long, addr)
}

// Halted reports whether the CPU has stopped executing because of a double
// bus fault — the board's catch-all for address errors it does not model
// cycle-accurately (an odd-address word/long access, or a fetch from an
// odd PC).
func (c *CPU) Halted() bool {
	return c.halted
}

// Step fetches and executes one instruction, delivering any pending
// autovector interrupt request first if the current interrupt mask
// permits it, and returns the number of cycles the step consumed. It
// returns 0 once the CPU has halted.
func (c *CPU) Step() int {
	if c.halted {
		return 0
	}

	before := c.cycles

	if c.stopped {
		c.cycles += 4
		c.checkInterrupt()
		return int(c.cycles - before)
	}

	c.checkInterrupt()

	// The board has no prefetch pipeline to model: an odd PC faults here,
	// at fetch, rather than a word earlier the way real 68000 hardware would.
	if c.reg.PC&1 != 0 {
		log.Printf("[m68k] address error: odd PC=%06x prevPC=%06x prevIR=%04x",
			c.reg.PC, c.prevPC, c.ir)
		c.halted = true
		return 0
	}

	c.prevPC = c.reg.PC
	c.ir = c.fetchPC()
	c.reg.IR = c.ir

	if op := opcodeTable[c.ir]; op != nil {
		op(c)
	} else {
		c.dispatchUndefined(c.ir)
	}

	// Catches branches and jumps to odd addresses. Real 68000 hardware would
	// raise this mid-fetch via the prefetch pipeline; since the board's core
	// doesn't model prefetch, the check runs once at the end of the step.
	if !c.halted && c.reg.PC&1 != 0 {
		log.Printf("[m68k] address error: odd PC=%06x prevPC=%06x IR=%04x",
			c.reg.PC, c.prevPC, c.ir)
		c.halted = true
	}

	return int(c.cycles - before)
}

// dispatchUndefined handles an opcode the table has no handler for: the
// 1010 and 1111 top nibbles get their own dedicated vectors (used on real
// hardware for line-A/line-F coprocessor and emulator traps), everything
// else is an illegal instruction.
func (c *CPU) dispatchUndefined(opcode uint16) {
	switch opcode >> 12 {
	case 0xA:
		c.exception(vecLineA)
	case 0xF:
		c.exception(vecLineF)
	default:
		c.exception(vecIllegalInstruction)
	}
}

// StepCycles runs one instruction against a cycle budget rather than letting
// it run to completion unconditionally — useful for an embedder that wants
// to interleave CPU execution with peripheral polling at a fixed cadence.
// A prior instruction whose cost exceeded its budget leaves a deficit that
// is paid down before any new instruction executes. Returns the cycles
// charged against this call's budget.
func (c *CPU) StepCycles(budget int) int {
	if c.halted {
		return 0
	}

	// Pay down deficit from a previous instruction that exceeded its budget.
	if c.deficit > 0 {
		if budget >= c.deficit {
			n := c.deficit
			c.deficit = 0
			return n
		}
		c.deficit -= budget
		return budget
	}

	cost := c.Step()

	if cost <= budget {
		return cost
	}

	c.deficit = cost - budget
	return budget
}

// Deficit reports the cycle debt left over from a StepCycles call whose
// instruction ran longer than the budget it was given.
func (c *CPU) Deficit() int {
	return c.deficit
}

// Cycles reports the running total of cycles executed since the last reset.
// sbc.SBC.Run polls this to know when it has hit a cycle ceiling.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// AddCycles advances the cycle counter by n without executing an
// instruction. Meant for an embedder accounting for a bus-hold period it
// imposes itself (this board has no DMA controller, so nothing here calls
// it yet, but StepCycles-driven embedders may need it for wait states).
func (c *CPU) AddCycles(n uint64) {
	c.cycles += n
}

// Registers returns a copy of the current register file, safe for a caller
// to inspect or retain after the CPU continues executing.
func (c *CPU) Registers() Registers {
	return c.reg
}

// RequestInterrupt latches an interrupt request at the given priority level
// (1-7). A nil vector means autovectoring — the handler address comes from
// the fixed autovector table rather than a device-supplied vector number.
// sbc.SBC calls this for the UART's single interrupt line; a request at a
// level no higher than one already pending is dropped.
func (c *CPU) RequestInterrupt(level uint8, vector *uint8) {
	if level > c.pendingIPL {
		c.pendingIPL = level
		c.pendingVec = vector
	}
}

// readBus masks addr to the board's 24-bit space and reads through the bus.
// A word/long access to an odd address is an address error on real 68000
// hardware; this core models that by halting rather than emulating the
// bus-error exception frame.
func (c *CPU) readBus(sz Size, addr uint32) uint32 {
	if c.halted {
		return 0
	}
	if sz != Byte && addr&1 != 0 {
		log.Printf("[m68k] address error: read %s from odd addr=%06x PC=%06x prevPC=%06x IR=%04x",
			sz, addr&0xFFFFFF, c.reg.PC, c.prevPC, c.ir)
		c.halted = true
		return 0
	}
	addr &= 0xFFFFFF
	if c.cycleBus != nil {
		return c.cycleBus.ReadCycle(c.cycles, sz, addr)
	}
	return c.bus.Read(sz, addr)
}

// writeBus masks addr to the board's 24-bit space and writes through the
// bus, with the same odd-address halt behavior as readBus.
func (c *CPU) writeBus(sz Size, addr uint32, val uint32) {
	if c.halted {
		return
	}
	if sz != Byte && addr&1 != 0 {
		log.Printf("[m68k] address error: write %s to odd addr=%06x val=%08x PC=%06x prevPC=%06x IR=%04x",
			sz, addr&0xFFFFFF, val&sz.Mask(), c.reg.PC, c.prevPC, c.ir)
		c.halted = true
		return
	}
	addr &= 0xFFFFFF
	val &= sz.Mask()
	if c.cycleBus != nil {
		c.cycleBus.WriteCycle(c.cycles, sz, addr, val)
		return
	}
	c.bus.Write(sz, addr, val)
}

// fetchPC reads the word at PC and advances PC past it — the board's
// instruction stream is always fetched this way, one word at a time.
func (c *CPU) fetchPC() uint16 {
	val := c.readBus(Word, c.reg.PC)
	c.reg.PC += 2
	return uint16(val)
}

// fetchPCLong fetches two consecutive words from the instruction stream and
// assembles them into a big-endian long, for opcodes with a 32-bit
// immediate or absolute-long extension word pair.
func (c *CPU) fetchPCLong() uint32 {
	hi := c.fetchPC()
	lo := c.fetchPC()
	return uint32(hi)<<16 | uint32(lo)
}

// pushWord pushes a word onto whichever stack A7 currently points at.
func (c *CPU) pushWord(val uint16) {
	c.reg.A[7] -= 2
	c.writeBus(Word, c.reg.A[7], uint32(val))
}

// pushLong pushes a long onto whichever stack A7 currently points at.
func (c *CPU) pushLong(val uint32) {
	c.reg.A[7] -= 4
	c.writeBus(Long, c.reg.A[7], val)
}

// popWord pops a word off whichever stack A7 currently points at.
func (c *CPU) popWord() uint16 {
	val := c.readBus(Word, c.reg.A[7])
	c.reg.A[7] += 2
	return uint16(val)
}

// popLong pops a long off whichever stack A7 currently points at.
func (c *CPU) popLong() uint32 {
	val := c.readBus(Long, c.reg.A[7])
	c.reg.A[7] += 4
	return val
}

// supervisor reports whether the CPU is currently running in supervisor
// mode — privileged instructions and interrupt/exception handlers on this
// board always run with this true.
func (c *CPU) supervisor() bool {
	return c.reg.SR&flagS != 0
}

// requirePrivileged guards a privileged opcode handler: a user-mode caller
// gets a privilege violation raised for it and false, so the handler's only
// job is `if !c.requirePrivileged() { return }` before doing anything else.
// The ROM runs everything it executes directly in supervisor mode, so on
// this board this only ever fires against a loaded application.
func (c *CPU) requirePrivileged() bool {
	if c.supervisor() {
		return true
	}
	c.exception(vecPrivilegeViolation)
	return false
}

// setSR installs a new status register value, swapping A7 between the
// shadowed USP and SSP whenever the S bit changes. RTE, STOP, and the
// explicit MOVE/ANDI/ORI/EORI to SR instructions funnel through here;
// exception and interrupt entry set S and swap A7 themselves
// (enterSupervisorMode, processInterrupt).
func (c *CPU) setSR(sr uint16) {
	wasSupervisor := c.reg.SR&flagS != 0
	willBeSupervisor := sr&flagS != 0

	switch {
	case wasSupervisor && !willBeSupervisor:
		c.reg.SSP = c.reg.A[7]
		c.reg.A[7] = c.reg.USP
	case !wasSupervisor && willBeSupervisor:
		c.reg.USP = c.reg.A[7]
		c.reg.A[7] = c.reg.SSP
	}

	// 0xA71F keeps only the bits the 68000 actually defines in SR:
	// T _ S _ _ III _ _ _ X N Z V C.
	c.reg.SR = sr & 0xA71F
}

// setCCR replaces just the condition codes (SR's low byte), leaving the
// system byte untouched. Bits 5-7 of the CCR don't exist on a 68000 and are
// always forced to zero.
func (c *CPU) setCCR(ccr uint8) {
	c.reg.SR = (c.reg.SR & 0xFF00) | uint16(ccr&0x1F)
}

// SetState loads a full register snapshot directly, bypassing the normal
// reset sequence. sbc.SBC uses this after reading the boot vectors itself
// (so it can apply board-specific setup like ROM mirroring first) and the
// ISA conformance tests use it to establish exact pre-instruction state.
func (c *CPU) SetState(regs Registers) {
	c.cycleBus, _ = c.bus.(CycleBus)
	c.reg.D = regs.D
	c.reg.SR = regs.SR
	c.reg.USP = regs.USP
	c.reg.SSP = regs.SSP
	c.reg.PC = regs.PC
	c.stopped = false
	c.halted = false
	c.cycles = 0
	c.deficit = 0
	c.pendingIPL = 0
	c.pendingVec = nil

	// A7 is the active stack pointer: SSP in supervisor mode, USP in user mode
	for i := 0; i < 7; i++ {
		c.reg.A[i] = regs.A[i]
	}
	if regs.SR&flagS != 0 {
		c.reg.A[7] = regs.SSP
	} else {
		c.reg.A[7] = regs.USP
	}
}
