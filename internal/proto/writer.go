package proto

import (
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Writer is an owned, growable write sink for a single outgoing frame.
// It is not safe for concurrent use: exactly one task may hold a Writer
// at a time (see AcquireWriter/Release).
type Writer struct {
	buf      []byte
	released bool
}

// NewWriter returns an unpooled Writer. Packet descriptors that need a
// throwaway buffer for tests use this; the hot path uses AcquireWriter.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, writeFloor)}
}

// Bytes returns the accumulated buffer. The slice is only valid until
// the next write or Release.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset empties the buffer for reuse without returning it to the pool.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Write implements io.Writer so the NBT sub-codec (internal/nbt) can
// target a Writer directly, without an intermediate allocation.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteVarInt encodes the unsigned bit pattern of v 7 bits at a time,
// little-endian group order, MSB of each byte set while bits remain.
func (w *Writer) WriteVarInt(v int32) {
	uv := uint32(v)
	for {
		b := byte(uv & 0x7F)
		uv >>= 7
		if uv != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if uv == 0 {
			return
		}
	}
}

// WriteVarLong is WriteVarInt's 64-bit analogue.
func (w *Writer) WriteVarLong(v int64) {
	uv := uint64(v)
	for {
		b := byte(uv & 0x7F)
		uv >>= 7
		if uv != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if uv == 0 {
			return
		}
	}
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteUint8(v uint8) { w.buf = append(w.buf, v) }
func (w *Writer) WriteInt8(v int8)   { w.buf = append(w.buf, byte(v)) }

func (w *Writer) WriteUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

func (w *Writer) WriteInt32(v int32) {
	uv := uint32(v)
	w.buf = append(w.buf, byte(uv>>24), byte(uv>>16), byte(uv>>8), byte(uv))
}

func (w *Writer) WriteInt64(v int64) {
	uv := uint64(v)
	w.buf = append(w.buf,
		byte(uv>>56), byte(uv>>48), byte(uv>>40), byte(uv>>32),
		byte(uv>>24), byte(uv>>16), byte(uv>>8), byte(uv))
}

func (w *Writer) WriteFloat32(v float32) { w.WriteInt32(int32(math.Float32bits(v))) }
func (w *Writer) WriteFloat64(v float64) { w.WriteInt64(int64(math.Float64bits(v))) }

// WriteString writes a VarInt byte-length prefix followed by the UTF-8
// payload. Returns ErrOutOfRange if s has more than 32767 code points.
func (w *Writer) WriteString(s string) error {
	if utf8.RuneCountInString(s) > 32767 {
		return ErrOutOfRange
	}
	b := []byte(s)
	w.WriteVarInt(int32(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// WriteByteArray writes a VarInt count prefix followed by raw bytes.
func (w *Writer) WriteByteArray(b []byte) {
	w.WriteVarInt(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteRaw appends bytes with no length prefix.
func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

// WriteUUID writes the 16 big-endian bytes of the canonical UUID.
func (w *Writer) WriteUUID(u uuid.UUID) { w.buf = append(w.buf, u[:]...) }

// WritePosition packs X/Z as 26-bit and Y as 12-bit signed fields into
// a single 64-bit big-endian word: X in bits 63..38, Z in 37..12, Y in
// 11..0.
func (w *Writer) WritePosition(x, y, z int32) {
	packed := (int64(x)&0x3FFFFFF)<<38 | (int64(z)&0x3FFFFFF)<<12 | (int64(y) & 0xFFF)
	w.WriteInt64(packed)
}

// WriteAbsolutePosition writes three consecutive big-endian float64s.
func (w *Writer) WriteAbsolutePosition(x, y, z float64) {
	w.WriteFloat64(x)
	w.WriteFloat64(y)
	w.WriteFloat64(z)
}

// WriteVelocity writes three consecutive big-endian int16s.
func (w *Writer) WriteVelocity(x, y, z int16) {
	w.WriteInt16(x)
	w.WriteInt16(y)
	w.WriteInt16(z)
}

// WriteAngle writes a rotation in units of 1/256 of a full turn.
func (w *Writer) WriteAngle(a uint8) { w.buf = append(w.buf, a) }

// WriteMetadataHeader writes an entity-metadata entry header. Callers
// write the typed value immediately after; the 0xFF terminator is the
// responsibility of the enclosing packet encoder, not this method.
func (w *Writer) WriteMetadataHeader(index uint8, valueType int32) {
	w.WriteUint8(index)
	w.WriteVarInt(valueType)
}

// WriteMetadataEnd writes the entity-metadata list terminator.
func (w *Writer) WriteMetadataEnd() { w.WriteUint8(0xFF) }
