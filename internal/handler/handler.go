// Package handler implements the gameplay half of the handler boundary
// (baseline §4.6): everything a Connection decodes but does not need
// to interpret itself to drive its own state machine. It only ever
// sees a netio.DeliverContext; it never touches a socket or the frame
// pipeline directly.
package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roxxel/obsidian/internal/collab"
	"github.com/roxxel/obsidian/internal/netio"
	"github.com/roxxel/obsidian/internal/packets"
)

// GameHandler wires decoded packets to the collaborator interfaces:
// status pings answer from the EventDispatcher's snapshot, chat is
// passed to the dispatcher and broadcast to every Play-state
// connection (the sender included), and position updates are accepted
// without being relayed.
type GameHandler struct {
	log *zap.Logger
}

// New returns a GameHandler that logs through log.
func New(log *zap.Logger) *GameHandler {
	return &GameHandler{log: log}
}

// Deliver implements netio.Handler.
func (h *GameHandler) Deliver(ctx netio.DeliverContext) error {
	switch p := ctx.Packet.(type) {
	case packets.StatusRequest:
		return h.onStatusRequest(ctx)
	case packets.Ping:
		return ctx.Sender.Send(0x01, packets.Pong{Payload: p.Payload}, false)
	case packets.ChatMessageServerbound:
		return h.onChatMessage(ctx, p)
	case packets.PlayerPositionServerbound:
		h.onPositionUpdate(ctx)
		return nil
	case packets.PlayerPositionAndRotationServerbound:
		h.onPositionUpdate(ctx)
		return nil
	case packets.PluginMessage:
		// Client plugin channels (e.g. brand) are acknowledged implicitly;
		// this server does not register any channel-specific behavior.
		return nil
	default:
		h.log.Debug("unhandled packet delivered", zap.String("type", fmt.Sprintf("%T", p)))
		return nil
	}
}

func (h *GameHandler) onStatusRequest(ctx netio.DeliverContext) error {
	payload := ctx.Host.Dispatcher().OnStatusRequest()
	doc := statusJSON(payload)
	return ctx.Sender.Send(0x00, packets.StatusResponse{JSON: doc}, false)
}

func (h *GameHandler) onChatMessage(ctx netio.DeliverContext, p packets.ChatMessageServerbound) error {
	if !ctx.HasProfile {
		return nil
	}
	ctx.Host.Dispatcher().OnChat(ctx.Profile, p.Message)
	doc := fmt.Sprintf(`{"translate":"chat.type.text","with":[{"text":%q},{"text":%q}]}`, ctx.Profile.Username, p.Message)
	ctx.Host.Broadcast(0, 0x0E, packets.ChatMessage{JSON: doc, Position: 0, Sender: ctx.Profile.UUID}, false)
	return nil
}

func (h *GameHandler) onPositionUpdate(ctx netio.DeliverContext) {
	// Position tracking for broadcast to other clients is out of this
	// server's scope; the collaborator WorldSource is queried on demand
	// rather than mutated from movement packets.
}

func statusJSON(p collab.StatusPayload) string {
	return fmt.Sprintf(
		`{"version":{"name":%q,"protocol":%d},"players":{"max":%d,"online":%d,"sample":[]},"description":{"text":%q}}`,
		p.VersionName, p.ProtocolVersion, p.MaxPlayers, p.OnlinePlayers, p.MOTD,
	)
}
