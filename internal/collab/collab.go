// Package collab defines the three interfaces the network-protocol
// engine consumes but never implements itself: authentication, world
// storage, and gameplay event dispatch (baseline §6's "collaborator
// interfaces", expanded in SPEC_FULL.md §5). Default in-memory
// implementations live in memory.go so the server is runnable without
// a real gameplay system behind it.
package collab

import (
	"context"

	"github.com/google/uuid"
)

// PlayerProfile identifies an authenticated (or offline-derived)
// player.
type PlayerProfile struct {
	UUID     uuid.UUID
	Username string
}

// Position is a block coordinate, independent of internal/proto's
// packed wire Position so this package has no dependency on the codec.
type Position struct {
	X, Y, Z int32
}

// BlockState is an opaque block identifier; the engine never
// interprets it, only relays it between the wire and WorldSource.
type BlockState struct {
	ID int32
}

// ChunkColumn is an opaque per-chunk payload already shaped the way
// internal/packets.ChunkDataRaw expects to frame it.
type ChunkColumn struct {
	X, Z int32
	Data []byte
}

// StatusPayload is what a status-ping response carries, the JSON
// shape the teacher's own sendFakeStatus built by hand.
type StatusPayload struct {
	VersionName     string `json:"-"`
	ProtocolVersion int    `json:"-"`
	MaxPlayers      int    `json:"-"`
	OnlinePlayers   int    `json:"-"`
	MOTD            string `json:"-"`
	FaviconBase64   string `json:"-"`
}

// Authenticator verifies a claimed session against an external
// identity provider (Mojang's session server, in the default
// implementation) when online mode is enabled.
type Authenticator interface {
	VerifySession(ctx context.Context, username, serverIDHash string) (PlayerProfile, error)
}

// WorldSource answers the block- and chunk-level queries the engine
// needs to relay but never computes itself.
type WorldSource interface {
	GetBlock(pos Position) (BlockState, error)
	GetChunk(x, z int32) (ChunkColumn, error)
	SetBlock(pos Position, block BlockState) error
}

// EventDispatcher is notified of the player lifecycle events and chat
// the engine decodes off the wire; it never drives the wire itself.
type EventDispatcher interface {
	OnJoin(profile PlayerProfile)
	OnLeave(profile PlayerProfile)
	OnChat(profile PlayerProfile, message string)
	OnStatusRequest() StatusPayload
}
