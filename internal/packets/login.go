package packets

import (
	"github.com/google/uuid"

	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

// LoginStart carries the client's claimed username; identity is only
// confirmed later, in online mode, by the session-server collaborator.
type LoginStart struct {
	Username string
}

// EncryptionResponse carries the client's RSA-encrypted shared secret
// and verify token, returned in answer to EncryptionRequest.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

// Disconnect (login phase) carries a JSON chat reason and always
// terminates the connection.
type Disconnect struct {
	Reason string
}

// EncryptionRequest carries the server's DER-encoded RSA public key
// and a random verify token the client must echo back encrypted.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

// LoginSuccess carries the authenticated (or offline-derived) player
// UUID and username; receiving it transitions the connection to Play.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

// SetCompression switches the connection to compressed framing from
// the next outbound/inbound packet onward.
type SetCompression struct {
	Threshold int32
}

func decodeLoginStart(r *proto.Reader) (any, error) {
	s, err := r.ReadString()
	return LoginStart{Username: s}, err
}

func encodeLoginStart(w *proto.Writer, p any) error {
	return w.WriteString(p.(LoginStart).Username)
}

func decodeEncryptionResponse(r *proto.Reader) (any, error) {
	secret, err := r.ReadByteArray()
	if err != nil {
		return nil, err
	}
	token, err := r.ReadByteArray()
	if err != nil {
		return nil, err
	}
	return EncryptionResponse{SharedSecret: secret, VerifyToken: token}, nil
}

func encodeEncryptionResponse(w *proto.Writer, p any) error {
	e := p.(EncryptionResponse)
	w.WriteByteArray(e.SharedSecret)
	w.WriteByteArray(e.VerifyToken)
	return nil
}

func decodeLoginDisconnect(r *proto.Reader) (any, error) {
	s, err := r.ReadString()
	return Disconnect{Reason: s}, err
}

func encodeLoginDisconnect(w *proto.Writer, p any) error {
	return w.WriteString(p.(Disconnect).Reason)
}

func decodeEncryptionRequest(r *proto.Reader) (any, error) {
	var e EncryptionRequest
	var err error
	if e.ServerID, err = r.ReadString(); err != nil {
		return nil, err
	}
	if e.PublicKey, err = r.ReadByteArray(); err != nil {
		return nil, err
	}
	if e.VerifyToken, err = r.ReadByteArray(); err != nil {
		return nil, err
	}
	return e, nil
}

func encodeEncryptionRequest(w *proto.Writer, p any) error {
	e := p.(EncryptionRequest)
	if err := w.WriteString(e.ServerID); err != nil {
		return err
	}
	w.WriteByteArray(e.PublicKey)
	w.WriteByteArray(e.VerifyToken)
	return nil
}

func decodeLoginSuccess(r *proto.Reader) (any, error) {
	var l LoginSuccess
	var err error
	if l.UUID, err = r.ReadUUID(); err != nil {
		return nil, err
	}
	if l.Username, err = r.ReadString(); err != nil {
		return nil, err
	}
	return l, nil
}

func encodeLoginSuccess(w *proto.Writer, p any) error {
	l := p.(LoginSuccess)
	w.WriteUUID(l.UUID)
	return w.WriteString(l.Username)
}

func decodeSetCompression(r *proto.Reader) (any, error) {
	v, err := r.ReadVarInt()
	return SetCompression{Threshold: v}, err
}

func encodeSetCompression(w *proto.Writer, p any) error {
	w.WriteVarInt(p.(SetCompression).Threshold)
	return nil
}

func registerLogin(t *registry.Table) {
	t.Register(registry.Descriptor{
		State: registry.Login, Direction: registry.Serverbound, ID: 0x00,
		Name: "LoginStart", Decode: decodeLoginStart, Encode: encodeLoginStart,
	})
	t.Register(registry.Descriptor{
		State: registry.Login, Direction: registry.Serverbound, ID: 0x01,
		Name: "EncryptionResponse", Decode: decodeEncryptionResponse, Encode: encodeEncryptionResponse,
	})
	t.Register(registry.Descriptor{
		State: registry.Login, Direction: registry.Clientbound, ID: 0x00,
		Name: "Disconnect", Decode: decodeLoginDisconnect, Encode: encodeLoginDisconnect,
	})
	t.Register(registry.Descriptor{
		State: registry.Login, Direction: registry.Clientbound, ID: 0x01,
		Name: "EncryptionRequest", Decode: decodeEncryptionRequest, Encode: encodeEncryptionRequest,
	})
	t.Register(registry.Descriptor{
		State: registry.Login, Direction: registry.Clientbound, ID: 0x02,
		Name: "LoginSuccess", Decode: decodeLoginSuccess, Encode: encodeLoginSuccess,
	})
	t.Register(registry.Descriptor{
		State: registry.Login, Direction: registry.Clientbound, ID: 0x03,
		Name: "SetCompression", Decode: decodeSetCompression, Encode: encodeSetCompression,
	})
}
