package sbc

import (
	"testing"

	"github.com/flux32/m68ksbc"
	"github.com/stretchr/testify/require"
)

func TestSBCNew(t *testing.T) {
	s := NewSBC()
	require.False(t, s.Halted())
}

func TestSBCReset(t *testing.T) {
	s := NewSBC()

	rom := make([]byte, 64)
	rom[0], rom[1], rom[2], rom[3] = 0x00, 0xF0, 0x00, 0x00 // initial SSP
	rom[4], rom[5], rom[6], rom[7] = 0x00, 0x00, 0x00, 0x08 // initial PC

	s.LoadROM(rom)
	s.Reset()

	require.Equal(t, uint32(0x00F00000), s.Registers().A[7])
	require.Equal(t, uint32(0x00000008), s.PC())
}

func TestSBCROMMirroring(t *testing.T) {
	s := NewSBC()

	rom := make([]byte, 16)
	rom[0], rom[1], rom[2], rom[3] = 0xDE, 0xAD, 0xBE, 0xEF
	s.LoadROM(rom)

	require.Equal(t, uint32(0xDEADBEEF), s.memory.Read(m68k.Long, 0x000000))
	require.Equal(t, uint32(0xDEADBEEF), s.memory.Read(m68k.Long, 0x010000))
	require.Equal(t, uint32(0xDEADBEEF), s.memory.Read(m68k.Long, 0x200000))
	require.Equal(t, uint32(0xDEADBEEF), s.memory.Read(m68k.Long, 0x210000))
}

func TestSBCUARTTx(t *testing.T) {
	s := NewSBC()

	s.memory.Write(m68k.Byte, 0xA00000, uint32('H'))
	s.memory.Write(m68k.Byte, 0xA00000, uint32('i'))
	s.drainUARTTX()

	b, ok := s.PopTX()
	require.True(t, ok)
	require.Equal(t, byte('H'), b)

	b, ok = s.PopTX()
	require.True(t, ok)
	require.Equal(t, byte('i'), b)

	_, ok = s.PopTX()
	require.False(t, ok)
}

func TestSBCUARTRx(t *testing.T) {
	s := NewSBC()

	s.PushRX('A')
	s.PushRX('B')

	lsr := s.memory.Read(m68k.Byte, 0xA0000A)
	require.NotZero(t, lsr&0x01)
}

func TestSBCCFCard(t *testing.T) {
	s := NewSBC()

	require.False(t, s.CFInserted())

	s.LoadCFImage(make([]byte, 512*10))
	require.True(t, s.CFInserted())
}

func TestSBCLEDControl(t *testing.T) {
	s := NewSBC()
	require.False(t, s.LEDState())

	s.memory.Write(m68k.Byte, 0xA00008, 0x02)
	require.True(t, s.LEDState())

	s.memory.Write(m68k.Byte, 0xA00008, 0x00)
	require.False(t, s.LEDState())
}

func TestSBCLoadApp(t *testing.T) {
	s := NewSBC()

	app := []byte{0x70, 0x2A} // MOVEQ #42,D0
	s.LoadApp(app)

	require.Equal(t, uint32(0x702A), s.memory.Read(m68k.Word, appStart))
}

func TestSBCForbiddenRegionReadsOpenBus(t *testing.T) {
	s := NewSBC()

	s.memory.Write(m68k.Byte, 0x100000, 0xAA)
	require.Equal(t, uint32(0xFF), s.memory.Read(m68k.Byte, 0x100000))
}

func TestSBCButtonMSRPolarity(t *testing.T) {
	s := NewSBC()

	s.SetButton(true)
	msr := s.memory.Read(m68k.Byte, 0xA0000C)
	require.NotZero(t, msr&0x40)
}

func TestSBCBreakInsertsZeroAndSetsLSR(t *testing.T) {
	s := NewSBC()

	s.SendBreak()

	lsr := s.memory.Read(m68k.Byte, 0xA0000A)
	require.NotZero(t, lsr&0x10)

	b := s.memory.Read(m68k.Byte, 0xA00000)
	require.Equal(t, uint32(0), b)
}

func TestSBCROMCompatibility(t *testing.T) {
	s := NewSBC()

	rom := make([]byte, romSize)
	rom[0], rom[1], rom[2], rom[3] = 0x00, 0xF0, 0x00, 0x00 // initial SSP
	rom[4], rom[5], rom[6], rom[7] = 0x00, 0x00, 0x00, 0xC0 // initial PC

	rom[0xC0] = 0x70 // MOVEQ
	rom[0xC1] = 0x2A // #42
	rom[0xC2] = 0x4E // STOP
	rom[0xC3] = 0x72
	rom[0xC4] = 0x27
	rom[0xC5] = 0x00

	s.LoadROM(rom)
	s.Reset()

	require.Equal(t, uint32(0x000000C0), s.PC())
	require.Equal(t, uint32(0x00F00000), s.Registers().A[7])
	require.Equal(t, uint16(0x2700), s.SR())

	executed := 0
	for i := 0; i < 10; i++ {
		if !s.Step() {
			break
		}
		executed++
	}

	require.GreaterOrEqual(t, executed, 1)
	require.Equal(t, uint32(42), s.Registers().D[0])
	require.True(t, s.Halted())
}

func TestSBCAppModeTrapStubOutChar(t *testing.T) {
	s := NewSBC()

	// TRAP #2 stub writes D0.B to the UART once THRE is set.
	app := []byte{
		0x70, 0x41, // MOVEQ #'A',D0
		0x4E, 0x42, // TRAP #2
		0x4E, 0x72, 0x27, 0x00, // STOP #$2700
	}
	s.LoadApp(app)
	s.RunApp()

	for i := 0; i < 200 && !s.Halted(); i++ {
		s.Step()
	}

	b, ok := s.PopTX()
	require.True(t, ok)
	require.Equal(t, byte('A'), b)
}
