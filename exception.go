package m68k

import "log"

// Exception vector numbers, indexing the 256-byte vector table at the base
// of the address space. The board's ROM populates this table at boot; in
// app-load mode sbc.SBC patches TRAP #0/#2/#3/#5 (vectors 32, 34, 35, 37)
// to point at small RAM-resident stubs instead, so an application can make
// ROM-style syscalls without the ROM actually being mapped.
const (
	vecResetSSP           = 0
	vecResetPC            = 1
	vecBusError           = 2
	vecAddressError       = 3
	vecIllegalInstruction = 4
	vecDivideByZero       = 5
	vecCHK                = 6
	vecTRAPV              = 7
	vecPrivilegeViolation = 8
	vecTrace              = 9
	vecLineA              = 10
	vecLineF              = 11
	vecUninitialized      = 15
	vecSpuriousInterrupt  = 24
	vecAutoVector1        = 25
	vecTrap0              = 32 // TRAP #0 through TRAP #15 = vectors 32-47
)

// exception takes the CPU into the given vector: enters supervisor mode,
// pushes the PC/SR return frame, resolves the handler address out of the
// vector table, and redirects PC there.
func (c *CPU) exception(vector int) {
	if vector >= vecBusError && vector <= vecLineF {
		log.Printf("[m68k] exception %d at PC=%06x SR=%04x", vector, c.reg.PC, c.reg.SR)
	}

	oldSR := c.reg.SR
	pushPC := c.faultingFramePC(vector)

	c.enterSupervisorMode()

	c.pushLong(pushPC)
	c.pushWord(oldSR)

	addr, ok := c.resolveVectorHandler(vector)
	if !ok {
		c.halted = true
		return
	}
	c.reg.PC = addr
	c.cycles += 34
}

// faultingFramePC picks which PC value the exception frame records. Group-1
// faults (illegal instruction, privilege violation, Line-A, Line-F) push the
// address of the instruction that faulted; every other exception — TRAP,
// TRAPV, CHK, divide-by-zero, interrupts, trace — pushes the address of the
// instruction that would execute next.
func (c *CPU) faultingFramePC(vector int) uint32 {
	switch vector {
	case vecIllegalInstruction, vecPrivilegeViolation, vecLineA, vecLineF:
		return c.prevPC
	default:
		return c.reg.PC
	}
}

// enterSupervisorMode swaps in the SSP if the CPU isn't already running
// privileged, and clears the trace bit — exception handlers never start
// with single-stepping active.
func (c *CPU) enterSupervisorMode() {
	if c.reg.SR&flagS == 0 {
		c.reg.USP = c.reg.A[7]
		c.reg.A[7] = c.reg.SSP
	}
	c.reg.SR = (c.reg.SR | flagS) & ^flagT
}

// resolveVectorHandler reads the handler address for vector out of the
// vector table, falling back to the uninitialized-vector handler if the
// slot is still zero (as it is for any TRAP the board hasn't patched). The
// second return is false only when both the requested vector and the
// uninitialized-vector slot are zero — a double fault the caller must halt
// on rather than redirect PC to address zero.
func (c *CPU) resolveVectorHandler(vector int) (uint32, bool) {
	addr := c.readBus(Long, uint32(vector)*4)
	if addr != 0 {
		return addr, true
	}
	addr = c.readBus(Long, vecUninitialized*4)
	if addr == 0 {
		return 0, false
	}
	return addr, true
}
