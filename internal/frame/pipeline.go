// Package frame implements the stream transformations stacked between
// the socket and the byte codec: optional AES/CFB8 encryption as the
// outermost layer, optional zlib-compressed framing beneath it, and
// the outer VarInt length prefix beneath that (baseline §4.2).
package frame

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Errors surfaced by the pipeline. internal/netio ends the connection
// on any of them.
var (
	ErrAlreadyEncrypted   = errors.New("frame: encryption already enabled")
	ErrAlreadyCompressed  = errors.New("frame: compression already enabled")
	ErrCompressionDisable = errors.New("frame: negative compression threshold")
	ErrFrameTooLarge      = errors.New("frame: declared length exceeds maximum packet size")
)

// MaxFrameLength is the largest outer length a 3-byte VarInt can carry
// without exceeding the protocol's packet size ceiling (2^21 - 1).
const MaxFrameLength = 2097151

// Pipeline owns the stream transforms for one connection. It is not
// safe for concurrent use from more than one reader and one writer at
// a time, matching the ownership model in baseline §5.
type Pipeline struct {
	reader io.Reader
	writer io.Writer

	encryptionEnabled bool

	compressionEnabled   bool
	compressionThreshold int32
}

// New wraps a raw connection with no transforms enabled.
func New(rw io.ReadWriter) *Pipeline {
	return &Pipeline{reader: rw, writer: rw, compressionThreshold: -1}
}

// EnableEncryption switches every subsequent byte, inbound and
// outbound, to AES/CFB8 keyed and IV'd by the 16-byte shared secret.
// It may be called exactly once; baseline §4.2 calls this transition
// one-shot.
func (p *Pipeline) EnableEncryption(sharedSecret []byte) error {
	if p.encryptionEnabled {
		return ErrAlreadyEncrypted
	}
	block, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return fmt.Errorf("frame: building AES cipher: %w", err)
	}
	p.reader = &cipher.StreamReader{S: NewCFB8Decrypter(block, sharedSecret), R: p.reader}
	p.writer = &cipher.StreamWriter{S: NewCFB8Encrypter(block, sharedSecret), W: p.writer}
	p.encryptionEnabled = true
	return nil
}

// EnableCompression switches every subsequent frame to compressed
// framing with the given size threshold. It may be called exactly
// once: any later call, whatever its threshold, returns
// ErrAlreadyCompressed, so compression cannot be switched off again.
// A negative threshold is rejected with ErrCompressionDisable and
// leaves compression off.
func (p *Pipeline) EnableCompression(threshold int32) error {
	if p.compressionEnabled {
		return ErrAlreadyCompressed
	}
	if threshold < 0 {
		return ErrCompressionDisable
	}
	p.compressionEnabled = true
	p.compressionThreshold = threshold
	return nil
}

// ReadFrame reads exactly one frame and returns its plaintext payload:
// the packet ID VarInt immediately followed by the packet's field
// data, with all framing and compression already stripped.
func (p *Pipeline) ReadFrame() ([]byte, error) {
	length, err := readVarInt(p.reader)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > MaxFrameLength {
		return nil, ErrFrameTooLarge
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(p.reader, body); err != nil {
		return nil, err
	}
	if !p.compressionEnabled {
		return body, nil
	}
	return p.decompressBody(body)
}

func (p *Pipeline) decompressBody(body []byte) ([]byte, error) {
	br := bytes.NewReader(body)
	dataLength, err := readVarInt(br)
	if err != nil {
		return nil, err
	}
	if dataLength == 0 {
		rest := make([]byte, br.Len())
		_, _ = io.ReadFull(br, rest)
		return rest, nil
	}
	if dataLength < 0 {
		return nil, ErrMalformedVarInt
	}
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("frame: opening zlib stream: %w", err)
	}
	defer zr.Close()
	out := make([]byte, dataLength)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("frame: inflating payload: %w", err)
	}
	return out, nil
}

// WriteFrame frames and sends payload (packet ID + data, uncompressed,
// unencrypted) applying whichever transforms are currently enabled.
func (p *Pipeline) WriteFrame(payload []byte) error {
	var staged []byte
	if p.compressionEnabled {
		staged = p.compressBody(payload)
	} else {
		staged = payload
	}
	outer := make([]byte, 0, 5+len(staged))
	outer = putVarInt(outer, int32(len(staged)))
	outer = append(outer, staged...)
	_, err := p.writer.Write(outer)
	return err
}

func (p *Pipeline) compressBody(payload []byte) []byte {
	if int32(len(payload)) < p.compressionThreshold {
		staged := make([]byte, 0, 1+len(payload))
		staged = putVarInt(staged, 0)
		return append(staged, payload...)
	}
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, _ = zw.Write(payload)
	_ = zw.Close()

	staged := make([]byte, 0, 5+compressed.Len())
	staged = putVarInt(staged, int32(len(payload)))
	return append(staged, compressed.Bytes()...)
}
