package proto

import (
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Reader is a read cursor over a single received, already-framed
// packet body. It never copies the underlying slice; ReadBytes hands
// out a view that must not outlive the frame it was decoded from.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential, cursor-advancing reads.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Pos returns the current cursor offset; pass it to Since to recover
// the raw bytes of the values read after it.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrShortRead
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadVarInt decodes a VarInt, rejecting encodings longer than 5 bytes.
func (r *Reader) ReadVarInt() (int32, error) {
	var result uint32
	for i := 0; i < 5; i++ {
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		result |= uint32(b[0]&0x7F) << (7 * i)
		if b[0]&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, ErrMalformed
}

// ReadVarLong is ReadVarInt's 64-bit analogue, rejecting encodings
// longer than 10 bytes.
func (r *Reader) ReadVarLong() (int64, error) {
	var result uint64
	for i := 0; i < 10; i++ {
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		result |= uint64(b[0]&0x7F) << (7 * i)
		if b[0]&0x80 == 0 {
			return int64(result), nil
		}
	}
	return 0, ErrMalformed
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return int64(v), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// ReadString decodes a VarInt byte-length prefix followed by UTF-8.
// Fails with ErrMalformed if the declared length is negative, exceeds
// the remaining frame, or the bytes are not valid UTF-8.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > r.Remaining() {
		return "", ErrMalformed
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrMalformed
	}
	if utf8.RuneCount(b) > 32767 {
		return "", ErrMalformed
	}
	return string(b), nil
}

// ReadByteArray decodes a VarInt count prefix followed by that many
// raw bytes, returned as an owned copy.
func (r *Reader) ReadByteArray() ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) > r.Remaining() {
		return nil, ErrMalformed
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadBytes returns a zero-copy view of the next n bytes. The slice is
// only valid for the lifetime of the decoded packet.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadUUID reads 16 big-endian bytes as a canonical UUID.
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	b, err := r.take(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

// ReadPosition unpacks the 64-bit word into X:26/Z:26/Y:12 signed
// fields by sign-extending each field via arithmetic shifts, per the
// baseline's open-question resolution: treat the source's shift
// pattern as "sign-extend the middle bits", not a bitwise trick tied
// to unsigned wraparound.
func (r *Reader) ReadPosition() (x, y, z int32, err error) {
	v, err := r.ReadInt64()
	if err != nil {
		return 0, 0, 0, err
	}
	x = int32(v >> 38)
	z = int32((v << 26) >> 38)
	y = int32((v << 52) >> 52)
	return x, y, z, nil
}

// ReadAbsolutePosition reads three consecutive big-endian float64s.
func (r *Reader) ReadAbsolutePosition() (x, y, z float64, err error) {
	if x, err = r.ReadFloat64(); err != nil {
		return
	}
	if y, err = r.ReadFloat64(); err != nil {
		return
	}
	z, err = r.ReadFloat64()
	return
}

// ReadVelocity reads three consecutive big-endian int16s.
func (r *Reader) ReadVelocity() (x, y, z int16, err error) {
	if x, err = r.ReadInt16(); err != nil {
		return
	}
	if y, err = r.ReadInt16(); err != nil {
		return
	}
	z, err = r.ReadInt16()
	return
}

// ReadAngle reads a rotation in units of 1/256 of a full turn.
func (r *Reader) ReadAngle() (uint8, error) { return r.ReadUint8() }

// MetadataEnd is the terminator index for an entity-metadata list.
const MetadataEnd = 0xFF

// ReadMetadataHeader reads one entity-metadata entry header. The
// caller checks index against MetadataEnd before reading the typed
// value that follows.
func (r *Reader) ReadMetadataHeader() (index uint8, valueType int32, err error) {
	if index, err = r.ReadUint8(); err != nil {
		return
	}
	if index == MetadataEnd {
		return index, 0, nil
	}
	valueType, err = r.ReadVarInt()
	return
}
