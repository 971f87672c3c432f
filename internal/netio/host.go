package netio

import (
	"go.uber.org/zap"

	"github.com/roxxel/obsidian/internal/collab"
	"github.com/roxxel/obsidian/internal/config"
	"github.com/roxxel/obsidian/internal/registry"
)

// Host is everything a Connection needs from the process that owns it
// but does not itself own: the session manager implements this, so
// internal/netio never imports internal/session — the manager holds
// connections, not the reverse (mirrors the source's Connection/Server
// cycle being broken into a non-owning handle plus an id, per baseline
// §9's "cyclic references" design note).
type Host interface {
	Logger() *zap.Logger
	Table() *registry.Table
	Config() *config.Config
	Authenticator() collab.Authenticator
	World() collab.WorldSource
	Dispatcher() collab.EventDispatcher

	// AtCapacity reports whether a new login should be refused.
	AtCapacity() bool
	// BindPlayer registers profile as belonging to conn's id. If another
	// connection is already bound to the same player identifier,
	// BindPlayer kicks it (Disconnect, then Close) before the new
	// binding is committed, never after (baseline §4.5's duplicate-login
	// policy). The evicted connection, if any, is still returned so a
	// caller can log or react to the eviction.
	BindPlayer(conn *Connection, profile collab.PlayerProfile) *Connection
	// Forget removes conn's bookkeeping once it closes.
	Forget(conn *Connection)
	// Broadcast enqueues packet on every live connection except
	// exclude (0 excludes none), per baseline §4.6's broadcast contract.
	Broadcast(exclude uint64, id int32, packet any, lossy bool)
}

// Sender is the narrow outbound half of the handler boundary (baseline
// §4.6): enqueue a clientbound packet by id, looked up in the
// connection's current state.
type Sender interface {
	Send(id int32, packet any, lossy bool) error
}

// DeliverContext is what reaches a Handler for every decoded packet
// the connection's own state machine does not intercept itself
// (Handshake, LoginStart, EncryptionResponse, KeepAlive).
type DeliverContext struct {
	ConnID     uint64
	State      registry.State
	Packet     any
	Sender     Sender
	Host       Host
	Profile    collab.PlayerProfile
	HasProfile bool
}

// Handler is the inbound half of the handler boundary (baseline §4.6):
// implementations must not block the reader goroutine for long and
// must not retain packet past return.
type Handler interface {
	Deliver(ctx DeliverContext) error
}
