package packets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

func TestHandshakeRoundTrip(t *testing.T) {
	h := Handshake{ProtocolVersion: 754, ServerAddress: "play.example.com", ServerPort: 25565, NextState: NextStateLogin}
	w := proto.NewWriter()
	require.NoError(t, encodeHandshake(w, h))
	got, err := decodeHandshake(proto.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestStatusRoundTrip(t *testing.T) {
	resp := StatusResponse{JSON: `{"version":{"name":"1.16.5","protocol":754}}`}
	w := proto.NewWriter()
	require.NoError(t, encodeStatusResponse(w, resp))
	got, err := decodeStatusResponse(proto.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, resp, got)

	w = proto.NewWriter()
	require.NoError(t, encodePing(w, Ping{Payload: 42}))
	pong, err := decodePing(proto.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, Ping{Payload: 42}, pong)
}

func TestLoginRoundTrip(t *testing.T) {
	w := proto.NewWriter()
	require.NoError(t, encodeLoginStart(w, LoginStart{Username: "Steve"}))
	got, err := decodeLoginStart(proto.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, LoginStart{Username: "Steve"}, got)

	er := EncryptionRequest{ServerID: "", PublicKey: []byte{1, 2, 3}, VerifyToken: []byte{4, 5, 6, 7}}
	w = proto.NewWriter()
	require.NoError(t, encodeEncryptionRequest(w, er))
	gotER, err := decodeEncryptionRequest(proto.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, er, gotER)

	var id uuid.UUID
	for i := range id {
		id[i] = byte(i + 1)
	}
	ls := LoginSuccess{UUID: id, Username: "Steve"}
	w = proto.NewWriter()
	require.NoError(t, encodeLoginSuccess(w, ls))
	gotLS, err := decodeLoginSuccess(proto.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, ls, gotLS)
}

func TestRegisterPopulatesAllStates(t *testing.T) {
	table := registry.NewTable()
	Register(table)

	_, ok := table.Lookup(registry.Handshaking, registry.Serverbound, 0x00)
	require.True(t, ok)
	_, ok = table.Lookup(registry.Status, registry.Serverbound, 0x00)
	require.True(t, ok)
	_, ok = table.Lookup(registry.Login, registry.Serverbound, 0x00)
	require.True(t, ok)
	_, ok = table.Lookup(registry.Play, registry.Clientbound, 0x24)
	require.True(t, ok)
	_, ok = table.Lookup(registry.Play, registry.Serverbound, 0x12)
	require.True(t, ok)

	_, ok = table.Lookup(registry.Play, registry.Clientbound, 0x7F)
	require.False(t, ok)
}
