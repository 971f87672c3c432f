// Package registry implements the packet table: a static mapping from
// (connection state, direction, packet id) to a typed packet
// descriptor, per baseline §4.3. The table is read-only after the
// process populates it at startup (baseline §5's "Shared resources").
package registry

import (
	"fmt"

	"github.com/roxxel/obsidian/internal/proto"
)

// State is the four-state per-connection protocol phase.
type State uint8

const (
	Handshaking State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	case Play:
		return "play"
	default:
		return "unknown"
	}
}

// Direction is which way a packet travels.
type Direction uint8

const (
	Serverbound Direction = iota
	Clientbound
)

// Decoder parses a packet's fields from a frame body (the ID VarInt
// already consumed by the caller). It returns an any so the registry
// stays decoupled from any specific packet struct set; callers
// type-switch on the concrete packet type it returns.
type Decoder func(r *proto.Reader) (any, error)

// Encoder serialises a decoded packet value's fields into a writer.
// The packet ID itself is written by the caller (internal/netio),
// matching baseline §4.3's "field layout" scope for a descriptor.
type Encoder func(w *proto.Writer, packet any) error

// Descriptor binds one (state, direction, id) triple to its codec.
type Descriptor struct {
	State     State
	Direction Direction
	ID        int32
	Name      string
	Decode    Decoder
	Encode    Encoder
}

type key struct {
	state     State
	direction Direction
	id        int32
}

// Table is the read-only-after-build packet registry.
type Table struct {
	entries map[key]*Descriptor
}

// NewTable builds an empty table for Register calls.
func NewTable() *Table {
	return &Table{entries: make(map[key]*Descriptor)}
}

// Register adds a descriptor. It panics on a duplicate (state,
// direction, id) triple: that is a programming error in the table's
// construction, not a runtime condition.
func (t *Table) Register(d Descriptor) {
	k := key{d.State, d.Direction, d.ID}
	if _, exists := t.entries[k]; exists {
		panic(fmt.Sprintf("registry: duplicate entry for state=%s direction=%d id=0x%02X", d.State, d.Direction, d.ID))
	}
	t.entries[k] = &d
}

// Lookup returns the descriptor for (state, direction, id), or false
// if none is registered. A miss is non-fatal by baseline §4.3: the
// caller logs and skips the frame.
func (t *Table) Lookup(state State, direction Direction, id int32) (*Descriptor, bool) {
	d, ok := t.entries[key{state, direction, id}]
	return d, ok
}
