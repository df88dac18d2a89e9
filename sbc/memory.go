package sbc

import (
	"log"

	"github.com/flux32/m68ksbc"
)

// Memory is the board's 24-bit flat address bus. It backs ROM and RAM with
// plain byte arrays and routes UART and CompactFlash addresses to their
// peripheral emulations via the board's Decoder. It implements m68k.Bus.
type Memory struct {
	decoder Decoder

	rom [romSize]byte
	ram [ramSize]byte

	uart *UART16550
	cf   *CFCard
}

// NewMemory returns a Memory wired to the given UART and CF peripherals.
// ROM starts filled with 0xFF, matching an erased EEPROM.
func NewMemory(uart *UART16550, cf *CFCard) *Memory {
	m := &Memory{uart: uart, cf: cf}
	for i := range m.rom {
		m.rom[i] = 0xFF
	}
	return m
}

// Reset clears RAM. ROM is untouched; the caller re-syncs ROM data
// separately after a reset.
func (m *Memory) Reset() {
	for i := range m.ram {
		m.ram[i] = 0
	}
}

// LoadROM copies data into the ROM backing store, padding with 0xFF.
func (m *Memory) LoadROM(data []byte) {
	for i := range m.rom {
		m.rom[i] = 0xFF
	}
	n := len(data)
	if n > len(m.rom) {
		n = len(m.rom)
	}
	copy(m.rom[:n], data[:n])
}

// LoadBinary writes data directly into the flat address space at addr,
// targeting ROM or RAM uniformly regardless of which one the decoder
// resolves addr to. It is used for loading application images and
// patching the vector table.
func (m *Memory) LoadBinary(addr uint32, data []byte) {
	for i, b := range data {
		region, offset := m.decoder.Decode(addr + uint32(i))
		switch region {
		case RegionROM:
			m.rom[offset] = b
		case RegionRAM:
			m.ram[offset] = b
		}
	}
}

// ReadByte reads a single byte through the decoder, for inspection and
// vector-table reads that don't need a full Size-aware Read.
func (m *Memory) ReadByte(addr uint32) byte {
	return byte(m.Read(m68k.Byte, addr))
}

// Read implements m68k.Bus.
func (m *Memory) Read(op m68k.Size, addr uint32) uint32 {
	region, offset := m.decoder.Decode(addr)

	switch region {
	case RegionROM:
		return readBytes(m.rom[:], offset, op)
	case RegionRAM:
		return readBytes(m.ram[:], offset, op)
	case RegionUART:
		return readDevice(m.uart.Read, offset, op)
	case RegionCF:
		return readDevice(m.cf.Read, offset, op)
	case RegionConflict:
		log.Printf("[sbc] decode conflict: read %s from addr=%06x", op, addr&0xFFFFFF)
		return op.Mask()
	default: // RegionOpenBus
		return op.Mask()
	}
}

// Write implements m68k.Bus.
func (m *Memory) Write(op m68k.Size, addr uint32, val uint32) {
	region, offset := m.decoder.Decode(addr)

	switch region {
	case RegionROM, RegionOpenBus, RegionConflict:
		// ROM is not writable; open bus and decode conflicts discard writes.
	case RegionRAM:
		writeBytes(m.ram[:], offset, op, val)
	case RegionUART:
		writeDevice(m.uart.Write, offset, op, val)
	case RegionCF:
		writeDevice(m.cf.Write, offset, op, val)
	}
}

func readBytes(store []byte, offset uint32, op m68k.Size) uint32 {
	var val uint32
	for i := 0; i < int(op); i++ {
		val = val<<8 | uint32(store[(offset+uint32(i))%uint32(len(store))])
	}
	return val
}

func writeBytes(store []byte, offset uint32, op m68k.Size, val uint32) {
	n := int(op)
	for i := 0; i < n; i++ {
		shift := uint(n-1-i) * 8
		store[(offset+uint32(i))%uint32(len(store))] = byte(val >> shift)
	}
}

func readDevice(read func(uint32) byte, offset uint32, op m68k.Size) uint32 {
	var val uint32
	for i := 0; i < int(op); i++ {
		val = val<<8 | uint32(read(offset+uint32(i)))
	}
	return val
}

func writeDevice(write func(uint32, byte), offset uint32, op m68k.Size, val uint32) {
	n := int(op)
	for i := 0; i < n; i++ {
		shift := uint(n-1-i) * 8
		write(offset+uint32(i), byte(val>>shift))
	}
}
