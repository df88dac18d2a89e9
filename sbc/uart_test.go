package sbc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUARTTXFIFO(t *testing.T) {
	u := NewUART16550()

	u.Write(regRHRTHRDLL, 'H')
	u.Write(regRHRTHRDLL, 'i')

	b, ok := u.PopTX()
	require.True(t, ok)
	require.Equal(t, byte('H'), b)

	b, ok = u.PopTX()
	require.True(t, ok)
	require.Equal(t, byte('i'), b)

	_, ok = u.PopTX()
	require.False(t, ok)
}

func TestUARTRXFIFO(t *testing.T) {
	u := NewUART16550()

	u.PushRX('A')
	u.PushRX('B')

	lsr := u.Read(regLSR)
	require.NotZero(t, lsr&lsrDR)

	require.Equal(t, byte('A'), u.Read(regRHRTHRDLL))
	require.Equal(t, byte('B'), u.Read(regRHRTHRDLL))

	lsr = u.Read(regLSR)
	require.Zero(t, lsr&lsrDR)
}

func TestUARTDivisorLatch(t *testing.T) {
	u := NewUART16550()

	u.Write(regLCR, lcrDLAB)
	u.Write(regRHRTHRDLL, 0x0D)
	u.Write(regIERDLM, 0x00)
	u.Write(regLCR, 0x00)

	require.Equal(t, uint16(0x0D), u.Divisor())
}

func TestUARTLEDControl(t *testing.T) {
	u := NewUART16550()
	require.False(t, u.LEDState())

	u.Write(regMCR, mcrLED)
	require.True(t, u.LEDState())

	u.Write(regMCR, 0x00)
	require.False(t, u.LEDState())
}

func TestUARTButtonEdge(t *testing.T) {
	u := NewUART16550()

	u.SetButton(true)
	msr := u.Read(regMSR)
	require.NotZero(t, msr&msrBTN)
	require.NotZero(t, msr&msrTERI)

	// TERI is a read-to-clear sticky bit.
	msr = u.Read(regMSR)
	require.Zero(t, msr&msrTERI)
}

func TestUARTLSRTXReady(t *testing.T) {
	u := NewUART16550()

	lsr := u.Read(regLSR)
	require.NotZero(t, lsr&lsrTHRE)
	require.NotZero(t, lsr&lsrTEMT)

	u.Write(regRHRTHRDLL, 'X')
	lsr = u.Read(regLSR)
	require.NotZero(t, lsr&lsrTHRE)
	require.Zero(t, lsr&lsrTEMT)
}

func TestUARTScratchpad(t *testing.T) {
	u := NewUART16550()

	u.Write(regSPR, 0x5A)
	require.Equal(t, byte(0x5A), u.Read(regSPR))
}

func TestUARTBreakPulse(t *testing.T) {
	u := NewUART16550()

	u.SendBreak()

	seen := false
	for i := 0; i < breakPulseReads; i++ {
		lsr := u.Read(regLSR)
		if lsr&lsrBI != 0 {
			seen = true
		}
	}
	require.True(t, seen)

	lsr := u.Read(regLSR)
	require.Zero(t, lsr&lsrBI)
}

func TestUARTRTCSPIRoundTrip(t *testing.T) {
	r := newRTCSPI()
	r.startTransfer()

	sendByte := func(b byte) {
		for i := 7; i >= 0; i-- {
			r.onClockRising((b >> uint(i)) & 1)
		}
	}

	sendByte(0x80 | 0x08) // write command, address 0x08
	sendByte(0x42)
	r.endTransfer()

	require.Equal(t, byte(0x42), r.regs[0x08])

	r.startTransfer()
	sendByte(0x08) // read command, address 0x08
	var out byte
	for i := 0; i < 8; i++ {
		out = out<<1 | r.onClockRising(0)
	}
	r.endTransfer()

	require.Equal(t, byte(0x42), out)
}
