package frame

import "crypto/cipher"

// cfb8 implements 8-bit-feedback CFB mode: the shared-secret stream
// cipher vanilla's protocol uses for post-handshake encryption. The
// standard library's cipher.NewCFBEncrypter/Decrypter implement
// whole-block CFB (feedback size == block size), not CFB8, so this is
// a small cipher.Stream shim grounded on the same construction
// other_examples/SKBotNL-GoMCProxy wires up (newCFB8Encrypter/
// newCFB8Decrypter around crypto/cipher's Block and StreamReader/
// StreamWriter) for this protocol family. The key is reused as the IV
// per the protocol's convention (baseline §4.2).
type cfb8 struct {
	b         cipher.Block
	shift     []byte // block-size shift register, IV then ciphertext/plaintext bytes
	encrypt   bool
	blockSize int
}

func newCFB8(b cipher.Block, iv []byte, encrypt bool) *cfb8 {
	bs := b.BlockSize()
	shift := make([]byte, bs)
	copy(shift, iv)
	return &cfb8{b: b, shift: shift, encrypt: encrypt, blockSize: bs}
}

// NewCFB8Encrypter returns a cipher.Stream that encrypts one byte at a
// time using CFB-8 feedback, keyed and IV'd by key (both supplied by
// the Minecraft protocol as the same 16-byte shared secret).
func NewCFB8Encrypter(b cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(b, iv, true)
}

// NewCFB8Decrypter is NewCFB8Encrypter's inverse.
func NewCFB8Decrypter(b cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(b, iv, false)
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	tmp := make([]byte, c.blockSize)
	for i := 0; i < len(src); i++ {
		c.b.Encrypt(tmp, c.shift)
		var out byte
		if c.encrypt {
			out = src[i] ^ tmp[0]
			c.feed(out)
		} else {
			out = src[i] ^ tmp[0]
			c.feed(src[i])
		}
		dst[i] = out
	}
}

// feed shifts the new ciphertext byte into the register, vacating the
// oldest byte.
func (c *cfb8) feed(ciphertextByte byte) {
	copy(c.shift, c.shift[1:])
	c.shift[c.blockSize-1] = ciphertextByte
}
