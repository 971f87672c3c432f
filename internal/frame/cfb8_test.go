package frame

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCFB8RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x9A}, 16)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog, 0123456789")
	enc := NewCFB8Encrypter(block, key)
	ciphertext := make([]byte, len(plaintext))
	enc.XORKeyStream(ciphertext, plaintext)
	require.NotEqual(t, plaintext, ciphertext)

	block2, err := aes.NewCipher(key)
	require.NoError(t, err)
	dec := NewCFB8Decrypter(block2, key)
	decrypted := make([]byte, len(ciphertext))
	dec.XORKeyStream(decrypted, ciphertext)
	require.Equal(t, plaintext, decrypted)
}

func TestCFB8StreamsAcrossMultipleCalls(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	blockE, _ := aes.NewCipher(key)
	blockD, _ := aes.NewCipher(key)
	enc := NewCFB8Encrypter(blockE, key)
	dec := NewCFB8Decrypter(blockD, key)

	parts := [][]byte{[]byte("hello "), []byte("world"), []byte("!")}
	for _, p := range parts {
		ct := make([]byte, len(p))
		enc.XORKeyStream(ct, p)
		pt := make([]byte, len(ct))
		dec.XORKeyStream(pt, ct)
		require.Equal(t, p, pt)
	}
}
