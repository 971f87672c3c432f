package packets

import (
	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

// StatusRequest carries no fields; the client sends it to ask for the
// server list ping response.
type StatusRequest struct{}

// StatusResponse carries the JSON status document verbatim (baseline
// §3's Chat/JSON value shape).
type StatusResponse struct {
	JSON string
}

// Ping/Pong echo an opaque client-chosen token, used to measure RTT.
type Ping struct{ Payload int64 }
type Pong struct{ Payload int64 }

func decodeStatusRequest(r *proto.Reader) (any, error) { return StatusRequest{}, nil }
func encodeStatusRequest(w *proto.Writer, p any) error { return nil }

func decodeStatusResponse(r *proto.Reader) (any, error) {
	s, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return StatusResponse{JSON: s}, nil
}

func encodeStatusResponse(w *proto.Writer, p any) error {
	return w.WriteString(p.(StatusResponse).JSON)
}

func decodePing(r *proto.Reader) (any, error) {
	v, err := r.ReadInt64()
	return Ping{Payload: v}, err
}

func encodePing(w *proto.Writer, p any) error {
	w.WriteInt64(p.(Ping).Payload)
	return nil
}

func decodePong(r *proto.Reader) (any, error) {
	v, err := r.ReadInt64()
	return Pong{Payload: v}, err
}

func encodePong(w *proto.Writer, p any) error {
	w.WriteInt64(p.(Pong).Payload)
	return nil
}

func registerStatus(t *registry.Table) {
	t.Register(registry.Descriptor{
		State: registry.Status, Direction: registry.Serverbound, ID: 0x00,
		Name: "StatusRequest", Decode: decodeStatusRequest, Encode: encodeStatusRequest,
	})
	t.Register(registry.Descriptor{
		State: registry.Status, Direction: registry.Serverbound, ID: 0x01,
		Name: "Ping", Decode: decodePing, Encode: encodePing,
	})
	t.Register(registry.Descriptor{
		State: registry.Status, Direction: registry.Clientbound, ID: 0x00,
		Name: "StatusResponse", Decode: decodeStatusResponse, Encode: encodeStatusResponse,
	})
	t.Register(registry.Descriptor{
		State: registry.Status, Direction: registry.Clientbound, ID: 0x01,
		Name: "Pong", Decode: decodePong, Encode: encodePong,
	})
}
