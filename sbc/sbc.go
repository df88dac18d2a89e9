package sbc

import "github.com/flux32/m68ksbc"

// Board constants for the 68HC000 single-board computer this package
// emulates: a 12MHz CPU with 64KB ROM mirrored across two 1MB windows,
// 1MB of RAM mirrored once, a 16550 UART carrying an SPI-bit-banged RTC,
// and a CompactFlash card in True IDE mode.
const (
	ClockHz       = 12_000_000
	DefaultBaud   = 57600
	ramBase       = 0xC00000
	ramMirror     = 0xE00000
	appStart      = 0xE00100
	initialSP     = 0xF00000
	uartBase      = 0xA00000
	uartInterrupt = 1 // autovector level the UART raises on the board
)

// SBC ties a m68k.CPU to the board's memory map and peripherals.
type SBC struct {
	cpu    *m68k.CPU
	memory *Memory
	uart   *UART16550
	cf     *CFCard

	romData []byte

	uartOutput []byte
}

// NewSBC returns an SBC with a blank (all-0xFF) ROM, powered on in
// supervisor mode with interrupts masked.
func NewSBC() *SBC {
	uart := NewUART16550()
	cf := NewCFCard()
	mem := NewMemory(uart, cf)

	s := &SBC{
		memory:  mem,
		uart:    uart,
		cf:      cf,
		romData: make([]byte, romSize),
	}
	for i := range s.romData {
		s.romData[i] = 0xFF
	}

	s.cpu = m68k.New(mem)
	s.cpu.SetState(m68k.Registers{SR: 0x2700})
	s.syncROMToMemory()

	return s
}

// syncROMToMemory copies the current ROM image into both 1MB ROM windows,
// repeated every 64KB within each window, matching the board's minimal
// address decode.
func (s *SBC) syncROMToMemory() {
	bases := []uint32{0x000000, 0x200000}
	for _, base := range bases {
		for mirror := uint32(0); mirror < 16; mirror++ {
			addr := base + mirror*romSize
			s.memory.LoadBinary(addr, s.romData)
		}
	}
}

// Reset performs a hardware reset: the initial SSP and PC are read from
// $000000 and $000004, and the UART is reset.
func (s *SBC) Reset() {
	s.syncROMToMemory()

	ssp := s.memory.Read(m68k.Long, 0x000000)
	pc := s.memory.Read(m68k.Long, 0x000004)

	s.cpu.Reset()
	s.memory.Reset()
	s.syncROMToMemory()

	regs := s.cpu.Registers()
	regs.SSP = ssp
	regs.A[7] = ssp
	regs.PC = pc
	regs.SR = 0x2700
	s.cpu.SetState(regs)

	s.uart.Reset()
	s.uartOutput = s.uartOutput[:0]
}

// LoadROM installs a single ROM image, padded with 0xFF up to 64KB.
func (s *SBC) LoadROM(data []byte) {
	for i := range s.romData {
		s.romData[i] = 0xFF
	}
	n := len(data)
	if n > romSize {
		n = romSize
	}
	copy(s.romData[:n], data[:n])
	s.syncROMToMemory()
}

// LoadROMSplit interleaves two 8-bit EEPROM images into one 16-bit ROM
// image, as the board wires its upper (D8-D15) and lower (D0-D7) EEPROMs
// to even and odd addresses respectively.
func (s *SBC) LoadROMSplit(romL, romU []byte) {
	for i := range s.romData {
		s.romData[i] = 0xFF
	}
	n := len(romL)
	if len(romU) < n {
		n = len(romU)
	}
	if n > romSize/2 {
		n = romSize / 2
	}
	for i := 0; i < n; i++ {
		s.romData[i*2] = romU[i]
		s.romData[i*2+1] = romL[i]
	}
	s.syncROMToMemory()
}

// LoadCFImage inserts a raw disk image into the CompactFlash card.
func (s *SBC) LoadCFImage(data []byte) { s.cf.LoadBytes(data) }

// EjectCF removes the current CompactFlash image.
func (s *SBC) EjectCF() { s.cf.Eject() }

// CFInserted reports whether a CompactFlash image is loaded.
func (s *SBC) CFInserted() bool { return s.cf.IsInserted() }

// LoadApp writes an application binary into RAM at the board's app load
// address.
func (s *SBC) LoadApp(data []byte) {
	s.memory.LoadBinary(appStart, data)
}

// RunApp installs TRAP handler stubs and starts executing the loaded
// application directly, bypassing ROM boot. Registers are set up as a
// ROM bootloader would: supervisor mode, interrupts enabled, SP at the
// end of RAM, PC at the app load address.
func (s *SBC) RunApp() {
	s.installTrapStubs()

	s.cpu.SetState(m68k.Registers{SR: 0x2000})
	regs := s.cpu.Registers()
	regs.SSP = initialSP
	regs.A[7] = initialSP
	regs.PC = appStart
	s.cpu.SetState(regs)
}

// installTrapStubs writes small hand-assembled M68K handlers into RAM's
// system area ($E00080-$E000FF) and points the TRAP #0/#2/#3/#5 vectors
// at them, so application code can use the ROM's syscall conventions
// without depending on the ROM actually being present.
//
//	TRAP #0 (Exit):    STOP #$2700
//	TRAP #2 (OutChar): write D0.B to the UART once THRE is set
//	TRAP #3 (OutStr):  write the null-terminated string at A0 to the UART
//	TRAP #5 (InChar):  read one byte from the UART into D0.B once DR is set
func (s *SBC) installTrapStubs() {
	const stubBase = uint32(0xE00080)
	addr := stubBase

	write := func(words ...uint16) uint32 {
		start := addr
		for _, w := range words {
			s.memory.LoadBinary(addr, []byte{byte(w >> 8), byte(w)})
			addr += 2
		}
		return start
	}
	writeLong := func(v uint32) {
		s.memory.LoadBinary(addr, []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		addr += 4
	}

	trap0 := write(0x4E72, 0x2700) // STOP #$2700

	trap2 := addr
	write(0x43F9)
	writeLong(uartBase) // LEA.L uartBase,A1
	write(
		0x0829, 0x0005, 0x000A, // .wait: BTST #5,10(A1)
		0x67F8, // BEQ.S .wait
		0x1280, // MOVE.B D0,(A1)
		0x4E73, // RTE
	)

	trap3 := addr
	write(0x48E7, 0x80C0) // MOVEM.L D0/A0-A1,-(SP)
	write(0x43F9)
	writeLong(uartBase) // LEA.L uartBase,A1
	write(
		0x1018,         // .loop: MOVE.B (A0)+,D0
		0x670C,         // BEQ.S .done
		0x0829, 0x0005, // .twait: BTST #5,10(A1)
		0x000A,
		0x67F8,         // BEQ.S .twait
		0x1280,         // MOVE.B D0,(A1)
		0x60F0,         // BRA.S .loop
		0x4CDF, 0x0301, // .done: MOVEM.L (SP)+,D0/A0-A1
		0x4E73, // RTE
	)

	trap5 := addr
	write(0x43F9)
	writeLong(uartBase) // LEA.L uartBase,A1
	write(
		0x0829, 0x0000, 0x000A, // .wait: BTST #0,10(A1)
		0x67F8, // BEQ.S .wait
		0x1011, // MOVE.B (A1),D0
		0x4E73, // RTE
	)

	writeVec := func(vecAddr, handler uint32) {
		s.memory.LoadBinary(vecAddr, []byte{byte(handler >> 24), byte(handler >> 16), byte(handler >> 8), byte(handler)})
	}
	writeVec(0x80, trap0) // TRAP #0 = Exit
	writeVec(0x84, trap0) // TRAP #1 = halt too
	writeVec(0x88, trap2) // TRAP #2 = OutChar
	writeVec(0x8C, trap3) // TRAP #3 = OutStr
	writeVec(0x94, trap5) // TRAP #5 = InChar

	// OUTCH_VEC: indirect call slot for code that calls through a function
	// pointer rather than using TRAP #2 directly.
	const outchVec = ramMirror
	s.memory.LoadBinary(outchVec, []byte{byte(trap2 >> 24), byte(trap2 >> 16), byte(trap2 >> 8), byte(trap2)})
}

// UART returns the board's UART peripheral.
func (s *SBC) UART() *UART16550 { return s.uart }

// CF returns the board's CompactFlash peripheral.
func (s *SBC) CF() *CFCard { return s.cf }

// Halted reports whether the CPU has stopped (STOP instruction or a
// double bus fault).
func (s *SBC) Halted() bool { return s.cpu.Halted() }

// PC returns the current program counter.
func (s *SBC) PC() uint32 { return s.cpu.Registers().PC }

// SR returns the current status register.
func (s *SBC) SR() uint16 { return s.cpu.Registers().SR }

// LEDState returns the status LED state driven by the UART's MCR.
func (s *SBC) LEDState() bool { return s.uart.LEDState() }

// Cycles returns the total number of CPU cycles executed.
func (s *SBC) Cycles() uint64 { return s.cpu.Cycles() }

// PushRX delivers a byte to the UART as if received over the serial line.
func (s *SBC) PushRX(b byte) { s.uart.PushRX(b) }

// PopTX drains accumulated UART output first, then the UART's TX FIFO
// directly, so callers see output in the order it was produced.
func (s *SBC) PopTX() (byte, bool) {
	if len(s.uartOutput) > 0 {
		b := s.uartOutput[0]
		s.uartOutput = s.uartOutput[1:]
		return b, true
	}
	return s.uart.PopTX()
}

// SendBreak sends a break condition to the UART, used to enter the
// board's serial loader.
func (s *SBC) SendBreak() { s.uart.SendBreak() }

// SetButton sets the front-panel button state.
func (s *SBC) SetButton(pressed bool) { s.uart.SetButton(pressed) }

// Step executes a single instruction, delivering any pending UART
// interrupt first and auto-draining transmitted UART bytes afterward so
// blocking ROM code never stalls waiting on THRE.
func (s *SBC) Step() bool {
	s.handleInterrupts()
	executed := s.cpu.Step() > 0
	s.drainUARTTX()
	return executed
}

func (s *SBC) drainUARTTX() {
	for {
		b, ok := s.uart.PopTX()
		if !ok {
			break
		}
		s.uartOutput = append(s.uartOutput, b)
	}
}

// DrainOutput returns and clears the accumulated UART output buffer.
func (s *SBC) DrainOutput() []byte {
	out := s.uartOutput
	s.uartOutput = nil
	return out
}

// PeekOutput returns the accumulated UART output without clearing it.
func (s *SBC) PeekOutput() []byte { return s.uartOutput }

// handleInterrupts requests an autovector interrupt at the UART's fixed
// priority level when the UART has a pending interrupt the current
// interrupt mask does not block.
func (s *SBC) handleInterrupts() {
	if !s.uart.InterruptPending() {
		return
	}

	currentIPL := uint8((s.cpu.Registers().SR >> 8) & 7)
	if uartInterrupt > currentIPL {
		s.cpu.RequestInterrupt(uartInterrupt, nil)
		s.uart.ClearInterrupt()
	}
}

// Run executes instructions until the CPU halts or maxCycles have
// elapsed, returning the number of cycles actually executed.
func (s *SBC) Run(maxCycles uint64) uint64 {
	start := s.cpu.Cycles()
	for !s.Halted() && s.cpu.Cycles()-start < maxCycles {
		s.handleInterrupts()
		s.cpu.Step()
		s.drainUARTTX()
	}
	return s.cpu.Cycles() - start
}

// CPU returns the underlying m68k.CPU.
func (s *SBC) CPU() *m68k.CPU { return s.cpu }

// Registers returns the CPU's current register file.
func (s *SBC) Registers() m68k.Registers { return s.cpu.Registers() }
