package sbc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func readStatusReady(c *CFCard) byte {
	for i := 0; i < 4; i++ {
		status := c.Read(cfRegStatusCmd)
		if status&ataBSY == 0 {
			return status
		}
	}
	return c.Read(cfRegStatusCmd)
}

func TestCFCardNew(t *testing.T) {
	c := NewCFCard()
	require.False(t, c.IsInserted())
	require.Equal(t, uint64(0), c.Capacity())
}

func TestCFCardLoadBytes(t *testing.T) {
	c := NewCFCard()

	data := make([]byte, sectorSize)
	data[0] = 0xEB
	data[0x1FE] = 0x55
	data[0x1FF] = 0xAA

	c.LoadBytes(data)

	require.True(t, c.IsInserted())
	require.Equal(t, uint64(sectorSize), c.Capacity())
	require.Equal(t, uint32(1), c.SectorCount())
}

func TestCFCardIdentify(t *testing.T) {
	c := NewCFCard()
	c.LoadBytes(make([]byte, sectorSize*100))

	c.Write(cfRegStatusCmd, cmdIdentify)

	status := readStatusReady(c)
	require.NotZero(t, status&ataDRQ)
	require.NotZero(t, status&ataDRDY)

	b0 := c.Read(cfRegData)
	b1 := c.Read(cfRegData)
	require.Equal(t, byte(0x84), b0)
	require.Equal(t, byte(0x8A), b1)
}

func TestCFCardReadSector(t *testing.T) {
	c := NewCFCard()

	data := make([]byte, sectorSize*10)
	data[0] = 0xAA
	data[sectorSize] = 0xBB
	data[sectorSize*2] = 0xCC

	c.LoadBytes(data)

	c.Write(cfRegLBA0, 0)
	c.Write(cfRegLBA1, 0)
	c.Write(cfRegLBA2, 0)
	c.Write(cfRegDriveHead, 0xE0)
	c.Write(cfRegSectorCount, 1)
	c.Write(cfRegStatusCmd, cmdReadSectors)

	status := readStatusReady(c)
	require.NotZero(t, status&ataDRQ)
	require.Equal(t, byte(0xAA), c.Read(cfRegData))

	c.Write(cfRegLBA0, 1)
	c.Write(cfRegStatusCmd, cmdReadSectors)
	require.Equal(t, byte(0xBB), c.Read(cfRegData))
}

func TestCFCardInvalidSector(t *testing.T) {
	c := NewCFCard()
	c.LoadBytes(make([]byte, sectorSize))

	c.Write(cfRegLBA0, 10)
	c.Write(cfRegStatusCmd, cmdReadSectors)

	status := readStatusReady(c)
	require.NotZero(t, status&ataERR)
	require.NotZero(t, c.Read(cfRegErrorFeature)&ataIDNF)
}

func TestCFCardNoCard(t *testing.T) {
	c := NewCFCard()

	require.Equal(t, byte(0xFF), c.Read(cfRegStatusCmd))
	require.Equal(t, byte(0xFF), c.Read(cfRegData))
}
