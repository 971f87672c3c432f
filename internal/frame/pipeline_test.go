package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// loopback is an io.ReadWriter over two independent buffers so a
// single Pipeline can write into one side and read back from the
// other, simulating a socket without a real connection.
type loopback struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (l *loopback) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.out.Write(p) }

func newPair() (client, server *loopback) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	client = &loopback{in: b, out: a}
	server = &loopback{in: a, out: b}
	return
}

func TestFrameRoundTripAllCombinations(t *testing.T) {
	payload := append([]byte{0x05}, bytes.Repeat([]byte("x"), 600)...)

	for _, compress := range []bool{false, true} {
		for _, encrypt := range []bool{false, true} {
			client, server := newPair()
			cp := New(client)
			sp := New(server)

			key := bytes.Repeat([]byte{0x42}, 16)
			if encrypt {
				require.NoError(t, cp.EnableEncryption(key))
				require.NoError(t, sp.EnableEncryption(key))
			}
			if compress {
				require.NoError(t, cp.EnableCompression(256))
				require.NoError(t, sp.EnableCompression(256))
			}

			require.NoError(t, cp.WriteFrame(payload))
			got, err := sp.ReadFrame()
			require.NoError(t, err)
			require.Equal(t, payload, got)
		}
	}
}

func TestCompressionThresholdFraming(t *testing.T) {
	client, server := newPair()
	cp := New(client)
	sp := New(server)
	require.NoError(t, cp.EnableCompression(256))
	require.NoError(t, sp.EnableCompression(256))

	small := append([]byte{0x01}, bytes.Repeat([]byte("a"), 50)...)
	require.NoError(t, cp.WriteFrame(small))
	got, err := sp.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, small, got)

	large := append([]byte{0x01}, bytes.Repeat([]byte("b"), 1024)...)
	require.NoError(t, cp.WriteFrame(large))
	got, err = sp.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, large, got)
}

func TestCompressionCannotBeDisabledOnceEnabled(t *testing.T) {
	client, _ := newPair()
	cp := New(client)
	require.NoError(t, cp.EnableCompression(256))
	err := cp.EnableCompression(-1)
	require.ErrorIs(t, err, ErrAlreadyCompressed)
}

func TestEncryptionIsOneShot(t *testing.T) {
	client, _ := newPair()
	cp := New(client)
	key := bytes.Repeat([]byte{0x01}, 16)
	require.NoError(t, cp.EnableEncryption(key))
	require.ErrorIs(t, cp.EnableEncryption(key), ErrAlreadyEncrypted)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	client, server := newPair()
	sp := New(server)
	buf := make([]byte, 0, 5)
	buf = putVarInt(buf, MaxFrameLength+1)
	_, _ = client.Write(buf)
	_, err := sp.ReadFrame()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

var _ io.ReadWriter = (*loopback)(nil)
