package proto

import (
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, 127, 128, 255, 2097151, -1, math.MinInt32, math.MaxInt32}
	for _, v := range cases {
		w := NewWriter()
		w.WriteVarInt(v)
		require.GreaterOrEqual(t, w.Len(), 1)
		require.LessOrEqual(t, w.Len(), 5)
		got, err := NewReader(w.Bytes()).ReadVarInt()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	w := NewWriter()
	w.WriteVarInt(127)
	require.Equal(t, 1, w.Len())
}

func TestVarIntRejectsOverlongEncoding(t *testing.T) {
	// Five bytes, all with continuation bit set: never terminates within 5.
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	_, err := NewReader(data).ReadVarInt()
	require.ErrorIs(t, err, ErrMalformed)
}

func TestVarLongRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 127, 128, -1, math.MinInt64, math.MaxInt64}
	for _, v := range cases {
		w := NewWriter()
		w.WriteVarLong(v)
		require.LessOrEqual(t, w.Len(), 10)
		got, err := NewReader(w.Bytes()).ReadVarLong()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestBigEndianScalars(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(-1)
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, w.Bytes())

	w = NewWriter()
	w.WriteInt16(256)
	require.Equal(t, []byte{0x01, 0x00}, w.Bytes())

	w = NewWriter()
	w.WriteInt64(1)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, w.Bytes())
}

func TestPositionRoundTrip(t *testing.T) {
	cases := [][3]int32{
		{0, 0, 0},
		{-1, -1, -1},
		{1<<25 - 1, 1<<11 - 1, 1<<25 - 1},
		{-(1 << 25), -(1 << 11), -(1 << 25)},
	}
	for _, c := range cases {
		w := NewWriter()
		w.WritePosition(c[0], c[1], c[2])
		x, y, z, err := NewReader(w.Bytes()).ReadPosition()
		require.NoError(t, err)
		require.Equal(t, c[0], x)
		require.Equal(t, c[1], y)
		require.Equal(t, c[2], z)
	}
}

// TestPositionLiteral754 pins the packed-word layout (X:26 | Z:26 | Y:12)
// against the worked example for X=18357644, Y=831, Z=-20882616. See
// DESIGN.md for why this literal differs from the one named in the
// originating spec text: that literal does not satisfy the bit-layout
// formula given in the same document, so the formula (independently
// verifiable by unpacking the literal's own bits) is treated as
// authoritative.
func TestPositionLiteral754(t *testing.T) {
	w := NewWriter()
	w.WritePosition(18357644, 831, -20882616)
	got, err := NewReader(w.Bytes()).ReadInt64()
	require.NoError(t, err)
	require.Equal(t, int64(0x4607632C15B4833F), got)
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "héllo wörld", strings.Repeat("a", 1000)}
	for _, s := range cases {
		w := NewWriter()
		require.NoError(t, w.WriteString(s))
		got, err := NewReader(w.Bytes()).ReadString()
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestStringRejectsOverlongDeclaredLength(t *testing.T) {
	w := NewWriter()
	w.WriteVarInt(1000)
	w.WriteRaw([]byte("short"))
	_, err := NewReader(w.Bytes()).ReadString()
	require.ErrorIs(t, err, ErrMalformed)
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	w := NewWriter()
	w.WriteVarInt(1)
	w.WriteRaw([]byte{0xFF})
	_, err := NewReader(w.Bytes()).ReadString()
	require.ErrorIs(t, err, ErrMalformed)
}

func TestUUIDRoundTrip(t *testing.T) {
	var u uuid.UUID
	for i := range u {
		u[i] = byte(i)
	}
	w := NewWriter()
	w.WriteUUID(u)
	got, err := NewReader(w.Bytes()).ReadUUID()
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestItemStackRoundTrip(t *testing.T) {
	empty := ItemStack{Present: false}
	w := NewWriter()
	require.NoError(t, w.WriteItemStack(empty))
	got, err := NewReader(w.Bytes()).ReadItemStack()
	require.NoError(t, err)
	require.Equal(t, empty, got)

	withEmptyTag := ItemStack{Present: true, ItemID: 5, Count: 3}
	w = NewWriter()
	require.NoError(t, w.WriteItemStack(withEmptyTag))
	got, err = NewReader(w.Bytes()).ReadItemStack()
	require.NoError(t, err)
	require.True(t, got.Present)
	require.Equal(t, int32(5), got.ItemID)
	require.Equal(t, int8(3), got.Count)
	require.True(t, got.Tag.Empty())
}
