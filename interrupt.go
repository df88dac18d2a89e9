package m68k

// checkInterrupt delivers the pending interrupt request, if any, that the
// current priority mask doesn't block. sbc.SBC never calls this directly;
// it's implicit in every Step — the board only ever has one interrupt
// source (the UART, at a single fixed level), so whether it fires on a
// given step depends entirely on SR's mask bits at the moment Step runs.
func (c *CPU) checkInterrupt() {
	if c.pendingIPL == 0 {
		return
	}

	mask := uint8((c.reg.SR >> 8) & 7)

	// Level 7 (NMI) always fires regardless of the mask; levels 1-6 must
	// strictly exceed it.
	if c.pendingIPL > mask || c.pendingIPL == 7 {
		c.processInterrupt()
	}
}

// processInterrupt takes the pending request, clears it, and performs the
// same context-save-then-vector dance as exception: enter supervisor mode
// with the mask raised to the servicing level, push PC/SR, then jump to
// the resolved handler. STOP is cleared here so a CPU halted on STOP #$2700
// resumes the instant an unmasked interrupt arrives.
func (c *CPU) processInterrupt() {
	level := c.pendingIPL
	vector := c.pendingVec
	c.pendingIPL = 0
	c.pendingVec = nil

	oldSR := c.reg.SR

	if c.reg.SR&flagS == 0 {
		c.reg.USP = c.reg.A[7]
		c.reg.A[7] = c.reg.SSP
	}
	c.reg.SR = (c.reg.SR | flagS) & ^flagT
	c.reg.SR = (c.reg.SR & 0xF8FF) | uint16(level)<<8

	c.pushLong(c.reg.PC)
	c.pushWord(oldSR)

	c.reg.PC = c.readBus(Long, uint32(c.interruptVectorNumber(level, vector))*4)
	if c.reg.PC == 0 {
		// Nothing wired the requested vector: fall back to the spurious
		// interrupt handler rather than redirecting execution to address 0.
		c.reg.PC = c.readBus(Long, vecSpuriousInterrupt*4)
	}

	c.stopped = false
	c.cycles += 44
}

// interruptVectorNumber picks the vector to service level at: the device's
// own vector number if RequestInterrupt was given one, otherwise the
// autovector slot for that priority level. The UART on this board always
// requests autovectoring (sbc.SBC.handleInterrupts passes a nil vector).
func (c *CPU) interruptVectorNumber(level uint8, vector *uint8) uint8 {
	if vector != nil {
		return *vector
	}
	return vecAutoVector1 - 1 + level
}
