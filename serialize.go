package m68k

import (
	"encoding/binary"
	"errors"
)

// serializeVersion is incremented whenever the binary layout below changes,
// so a stale save state from an older build of this package is rejected
// instead of silently misread.
const serializeVersion = 1

// SerializeSize is the number of bytes Serialize writes and Deserialize
// expects. An embedder persisting CPU state alongside the board's RAM and
// CompactFlash image (for a save/resume feature, say) sizes its buffer from
// this constant rather than a hardcoded number.
const SerializeSize = 104

// SerializeSize returns SerializeSize; kept as a method for callers that
// only have a *CPU in hand and want the buffer size without importing the
// package-level constant separately.
func (c *CPU) SerializeSize() int { return SerializeSize }

// Serialize writes the CPU's full programmer-visible and internal state
// into buf, which must be at least SerializeSize bytes. The bus and
// cycleBus references are deliberately excluded — reattaching to a board's
// Memory is the caller's job, not this package's.
func (c *CPU) Serialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return errors.New("m68k: serialize buffer too small")
	}

	buf[0] = serializeVersion
	w := &fieldWriter{buf: buf, off: 1}

	for i := 0; i < 8; i++ {
		w.putUint32(c.reg.D[i])
	}
	for i := 0; i < 8; i++ {
		w.putUint32(c.reg.A[i])
	}
	w.putUint32(c.reg.PC)
	w.putUint16(c.reg.SR)
	w.putUint32(c.reg.USP)
	w.putUint32(c.reg.SSP)
	w.putUint16(c.reg.IR)

	w.putUint64(c.cycles)
	w.putUint16(c.ir)

	w.putBool(c.stopped)
	w.putBool(c.halted)

	w.putUint32(c.prevPC)
	w.putByte(c.pendingIPL)

	if c.pendingVec != nil {
		w.putByte(1)
		w.putByte(*c.pendingVec)
	} else {
		w.putByte(0)
		w.putByte(0)
	}

	w.putUint32(uint32(int32(c.deficit)))
	return nil
}

// Deserialize restores CPU state previously written by Serialize. buf must
// be at least SerializeSize bytes and carry a matching version byte. The
// bus and cycleBus fields are left exactly as they were — a restored CPU
// keeps running against whichever Memory it was already wired to.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return errors.New("m68k: deserialize buffer too small")
	}
	if buf[0] != serializeVersion {
		return errors.New("m68k: unsupported serialize version")
	}

	r := &fieldReader{buf: buf, off: 1}

	for i := 0; i < 8; i++ {
		c.reg.D[i] = r.uint32()
	}
	for i := 0; i < 8; i++ {
		c.reg.A[i] = r.uint32()
	}
	c.reg.PC = r.uint32()
	c.reg.SR = r.uint16()
	c.reg.USP = r.uint32()
	c.reg.SSP = r.uint32()
	c.reg.IR = r.uint16()

	c.cycles = r.uint64()
	c.ir = r.uint16()

	c.stopped = r.boolean()
	c.halted = r.boolean()

	c.prevPC = r.uint32()
	c.pendingIPL = r.byte()

	hasVec := r.byte()
	vec := r.byte()
	if hasVec != 0 {
		v := vec
		c.pendingVec = &v
	} else {
		c.pendingVec = nil
	}

	c.deficit = int(int32(r.uint32()))
	return nil
}

// fieldWriter and fieldReader track a cursor through a big-endian encoded
// buffer so Serialize/Deserialize can read down the register file as a flat
// list of fields without hand-tracking an offset at every line.

type fieldWriter struct {
	buf []byte
	off int
}

func (w *fieldWriter) putByte(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *fieldWriter) putBool(v bool) {
	if v {
		w.putByte(1)
	} else {
		w.putByte(0)
	}
}

func (w *fieldWriter) putUint16(v uint16) {
	binary.BigEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *fieldWriter) putUint32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *fieldWriter) putUint64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

type fieldReader struct {
	buf []byte
	off int
}

func (r *fieldReader) byte() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *fieldReader) boolean() bool {
	return r.byte() != 0
}

func (r *fieldReader) uint16() uint16 {
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *fieldReader) uint32() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *fieldReader) uint64() uint64 {
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}
