package sbc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoderROM(t *testing.T) {
	var d Decoder
	region, offset := d.Decode(0x000000)
	require.Equal(t, RegionROM, region)
	require.Equal(t, uint32(0), offset)

	region, offset = d.Decode(0x01FFFF)
	require.Equal(t, RegionROM, region)
	require.Equal(t, uint32(0xFFFF), offset)
}

func TestDecoderRAM(t *testing.T) {
	var d Decoder
	region, offset := d.Decode(0xC00000)
	require.Equal(t, RegionRAM, region)
	require.Equal(t, uint32(0), offset)

	region, _ = d.Decode(0xE00100)
	require.Equal(t, RegionRAM, region)
}

func TestDecoderUART(t *testing.T) {
	var d Decoder
	region, offset := d.Decode(0xA00000)
	require.Equal(t, RegionUART, region)
	require.Equal(t, uint32(0), offset)

	region, offset = d.Decode(0xA0000A)
	require.Equal(t, RegionUART, region)
	require.Equal(t, uint32(0xA), offset)
}

func TestDecoderCF(t *testing.T) {
	var d Decoder
	region, offset := d.Decode(0x900000)
	require.Equal(t, RegionCF, region)
	require.Equal(t, uint32(0), offset)
}

func TestDecoderOpenBus(t *testing.T) {
	var d Decoder
	region, _ := d.Decode(0x800000)
	require.Equal(t, RegionOpenBus, region)
}

func TestDecoderConflict(t *testing.T) {
	var d Decoder

	// $100000-$1FFFFF: ROM (A23=0) and CF (A20=1) both select.
	region, _ := d.Decode(0x100000)
	require.Equal(t, RegionConflict, region)

	// $B00000-$BFFFFF: UART and CF overlap.
	region, _ = d.Decode(0xB00000)
	require.Equal(t, RegionConflict, region)

	// $D00000-$DFFFFF: RAM and CF overlap.
	region, _ = d.Decode(0xD00000)
	require.Equal(t, RegionConflict, region)
}
