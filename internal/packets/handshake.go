// Package packets implements the typed packet descriptors for
// protocol 754's handshake, status, login, and the minimal play set
// named in SPEC_FULL.md §4. Each packet is a plain struct plus a
// decode/encode function pair; internal/registry binds them to their
// (state, direction, id).
package packets

import (
	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

// Handshake is the sole Handshaking-state packet: it carries the
// client's declared protocol version and which state to switch to.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

const (
	NextStateStatus = 1
	NextStateLogin  = 2
)

func decodeHandshake(r *proto.Reader) (any, error) {
	var h Handshake
	var err error
	if h.ProtocolVersion, err = r.ReadVarInt(); err != nil {
		return nil, err
	}
	if h.ServerAddress, err = r.ReadString(); err != nil {
		return nil, err
	}
	if h.ServerPort, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	if h.NextState, err = r.ReadVarInt(); err != nil {
		return nil, err
	}
	return h, nil
}

func encodeHandshake(w *proto.Writer, p any) error {
	h := p.(Handshake)
	w.WriteVarInt(h.ProtocolVersion)
	if err := w.WriteString(h.ServerAddress); err != nil {
		return err
	}
	w.WriteUint16(h.ServerPort)
	w.WriteVarInt(h.NextState)
	return nil
}

func registerHandshake(t *registry.Table) {
	t.Register(registry.Descriptor{
		State: registry.Handshaking, Direction: registry.Serverbound, ID: 0x00,
		Name: "Handshake", Decode: decodeHandshake, Encode: encodeHandshake,
	})
}
