package packets

import (
	"github.com/google/uuid"

	"github.com/roxxel/obsidian/internal/nbt"
	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

// JoinGame is the first Play-state packet; it hands the client its
// entity id, game mode, and the dimension codec/type it needs to
// render the world the collaborator's WorldSource serves.
type JoinGame struct {
	EntityID            int32
	IsHardcore          bool
	Gamemode            uint8
	PreviousGamemode    int8
	WorldNames          []string
	DimensionCodec      *nbt.Compound
	Dimension           *nbt.Compound
	WorldName           string
	HashedSeed          int64
	MaxPlayers          int32
	ViewDistance        int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

// PluginMessage (both directions) carries a channel-tagged opaque
// payload; vanilla uses it for client brand negotiation.
type PluginMessage struct {
	Channel string
	Data    []byte
}

// ServerDifficulty announces the world difficulty and whether it is
// locked from client-side change.
type ServerDifficulty struct {
	Difficulty uint8
	Locked     bool
}

// SpawnPosition announces the world spawn point.
type SpawnPosition struct {
	X, Y, Z int32
}

// PlayerPositionAndLook (clientbound) is the authoritative position
// sync the client must acknowledge with a matching Teleport Confirm.
type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      uint8
	TeleportID int32
}

// KeepAlive (both directions) carries an opaque 64-bit liveness token.
type KeepAlive struct {
	ID int64
}

// ChatMessage (clientbound) carries a JSON chat document and the
// channel it appeared on (chat box, system, or action bar).
type ChatMessage struct {
	JSON     string
	Position int8
	Sender   uuid.UUID
}

// ChatMessageServerbound is the client's outgoing chat line.
type ChatMessageServerbound struct {
	Message string
}

// PlayDisconnect (play phase) carries a JSON chat reason.
type PlayDisconnect struct {
	Reason string
}

// MetadataEntry is one (index, type, pre-encoded value) triple. The
// caller is responsible for producing a value encoding that matches
// Type (baseline §4.1: "the caller emits the typed value").
type MetadataEntry struct {
	Index uint8
	Type  int32
	Value []byte
}

// EntityMetadata (clientbound) announces or updates an entity's
// metadata fields.
type EntityMetadata struct {
	EntityID int32
	Entries  []MetadataEntry
}

// ChunkDataRaw is a pass-through of collaborator-supplied chunk bytes:
// chunk generation is out of scope, but the outer chunk-data framing
// (coordinates + an opaque data blob) is a codec-level value shape.
type ChunkDataRaw struct {
	ChunkX, ChunkZ int32
	Data           []byte
}

// UnloadChunk (clientbound) tells the client to discard a chunk column
// it previously received via ChunkDataRaw; it carries no payload
// beyond the coordinates, since there is nothing else to discard.
type UnloadChunk struct {
	ChunkX, ChunkZ int32
}

// PlayerPositionServerbound is the client's reported position.
type PlayerPositionServerbound struct {
	X, Y, Z  float64
	OnGround bool
}

// PlayerPositionAndRotationServerbound adds yaw/pitch to a position
// update.
type PlayerPositionAndRotationServerbound struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func encodeJoinGame(w *proto.Writer, p any) error {
	j := p.(JoinGame)
	w.WriteInt32(j.EntityID)
	w.WriteBool(j.IsHardcore)
	w.WriteUint8(j.Gamemode)
	w.WriteInt8(j.PreviousGamemode)
	w.WriteVarInt(int32(len(j.WorldNames)))
	for _, name := range j.WorldNames {
		if err := w.WriteString(name); err != nil {
			return err
		}
	}
	if err := nbt.NewEncoder(w).WriteRootCompound("", j.DimensionCodec); err != nil {
		return err
	}
	if err := nbt.NewEncoder(w).WriteRootCompound("", j.Dimension); err != nil {
		return err
	}
	if err := w.WriteString(j.WorldName); err != nil {
		return err
	}
	w.WriteInt64(j.HashedSeed)
	w.WriteVarInt(j.MaxPlayers)
	w.WriteVarInt(j.ViewDistance)
	w.WriteBool(j.ReducedDebugInfo)
	w.WriteBool(j.EnableRespawnScreen)
	w.WriteBool(j.IsDebug)
	w.WriteBool(j.IsFlat)
	return nil
}

func decodeJoinGame(r *proto.Reader) (any, error) {
	var j JoinGame
	var err error
	if j.EntityID, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if j.IsHardcore, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if j.Gamemode, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if j.PreviousGamemode, err = r.ReadInt8(); err != nil {
		return nil, err
	}
	count, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	j.WorldNames = make([]string, count)
	for i := range j.WorldNames {
		if j.WorldNames[i], err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	_, j.DimensionCodec, err = r.ReadNBTCompound()
	if err != nil {
		return nil, err
	}
	_, j.Dimension, err = r.ReadNBTCompound()
	if err != nil {
		return nil, err
	}
	if j.WorldName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if j.HashedSeed, err = r.ReadInt64(); err != nil {
		return nil, err
	}
	if j.MaxPlayers, err = r.ReadVarInt(); err != nil {
		return nil, err
	}
	if j.ViewDistance, err = r.ReadVarInt(); err != nil {
		return nil, err
	}
	if j.ReducedDebugInfo, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if j.EnableRespawnScreen, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if j.IsDebug, err = r.ReadBool(); err != nil {
		return nil, err
	}
	j.IsFlat, err = r.ReadBool()
	return j, err
}

func encodePluginMessage(w *proto.Writer, p any) error {
	m := p.(PluginMessage)
	if err := w.WriteString(m.Channel); err != nil {
		return err
	}
	w.WriteRaw(m.Data)
	return nil
}

func decodePluginMessage(r *proto.Reader) (any, error) {
	ch, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, err
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	return PluginMessage{Channel: ch, Data: owned}, nil
}

func encodeServerDifficulty(w *proto.Writer, p any) error {
	d := p.(ServerDifficulty)
	w.WriteUint8(d.Difficulty)
	w.WriteBool(d.Locked)
	return nil
}

func decodeServerDifficulty(r *proto.Reader) (any, error) {
	var d ServerDifficulty
	var err error
	if d.Difficulty, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	d.Locked, err = r.ReadBool()
	return d, err
}

func encodeSpawnPosition(w *proto.Writer, p any) error {
	s := p.(SpawnPosition)
	w.WritePosition(s.X, s.Y, s.Z)
	return nil
}

func decodeSpawnPosition(r *proto.Reader) (any, error) {
	x, y, z, err := r.ReadPosition()
	return SpawnPosition{X: x, Y: y, Z: z}, err
}

func encodePlayerPositionAndLook(w *proto.Writer, p any) error {
	pl := p.(PlayerPositionAndLook)
	w.WriteAbsolutePosition(pl.X, pl.Y, pl.Z)
	w.WriteFloat32(pl.Yaw)
	w.WriteFloat32(pl.Pitch)
	w.WriteUint8(pl.Flags)
	w.WriteVarInt(pl.TeleportID)
	return nil
}

func decodePlayerPositionAndLook(r *proto.Reader) (any, error) {
	var pl PlayerPositionAndLook
	var err error
	if pl.X, pl.Y, pl.Z, err = r.ReadAbsolutePosition(); err != nil {
		return nil, err
	}
	if pl.Yaw, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if pl.Pitch, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if pl.Flags, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	pl.TeleportID, err = r.ReadVarInt()
	return pl, err
}

func encodeKeepAlive(w *proto.Writer, p any) error {
	w.WriteInt64(p.(KeepAlive).ID)
	return nil
}

func decodeKeepAlive(r *proto.Reader) (any, error) {
	v, err := r.ReadInt64()
	return KeepAlive{ID: v}, err
}

func encodeChatMessage(w *proto.Writer, p any) error {
	c := p.(ChatMessage)
	if err := w.WriteString(c.JSON); err != nil {
		return err
	}
	w.WriteInt8(c.Position)
	w.WriteUUID(c.Sender)
	return nil
}

func decodeChatMessage(r *proto.Reader) (any, error) {
	var c ChatMessage
	var err error
	if c.JSON, err = r.ReadString(); err != nil {
		return nil, err
	}
	if c.Position, err = r.ReadInt8(); err != nil {
		return nil, err
	}
	c.Sender, err = r.ReadUUID()
	return c, err
}

func encodeChatMessageServerbound(w *proto.Writer, p any) error {
	return w.WriteString(p.(ChatMessageServerbound).Message)
}

func decodeChatMessageServerbound(r *proto.Reader) (any, error) {
	s, err := r.ReadString()
	return ChatMessageServerbound{Message: s}, err
}

func encodePlayDisconnect(w *proto.Writer, p any) error {
	return w.WriteString(p.(PlayDisconnect).Reason)
}

func decodePlayDisconnect(r *proto.Reader) (any, error) {
	s, err := r.ReadString()
	return PlayDisconnect{Reason: s}, err
}

func encodeEntityMetadata(w *proto.Writer, p any) error {
	m := p.(EntityMetadata)
	w.WriteVarInt(m.EntityID)
	for _, e := range m.Entries {
		w.WriteMetadataHeader(e.Index, e.Type)
		w.WriteRaw(e.Value)
	}
	w.WriteMetadataEnd()
	return nil
}

func decodeEntityMetadata(r *proto.Reader) (any, error) {
	id, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	m := EntityMetadata{EntityID: id}
	for {
		index, valueType, err := r.ReadMetadataHeader()
		if err != nil {
			return nil, err
		}
		if index == proto.MetadataEnd {
			return m, nil
		}
		value, err := decodeMetadataValue(r, valueType)
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, MetadataEntry{Index: index, Type: valueType, Value: value})
	}
}

// decodeMetadataValue decodes the handful of entity-metadata value
// types this server exercises end to end (baseline's full metadata
// type table is gameplay-system scope, out of this engine's reach).
func decodeMetadataValue(r *proto.Reader, valueType int32) ([]byte, error) {
	start := r.Pos()
	var err error
	switch valueType {
	case 0: // Byte
		_, err = r.ReadInt8()
	case 1: // VarInt
		_, err = r.ReadVarInt()
	case 2: // Float
		_, err = r.ReadFloat32()
	case 3: // String
		_, err = r.ReadString()
	case 6: // Boolean
		_, err = r.ReadBool()
	default:
		return nil, proto.ErrMalformed
	}
	if err != nil {
		return nil, err
	}
	return r.Since(start), nil
}

func encodeChunkDataRaw(w *proto.Writer, p any) error {
	c := p.(ChunkDataRaw)
	w.WriteInt32(c.ChunkX)
	w.WriteInt32(c.ChunkZ)
	w.WriteByteArray(c.Data)
	return nil
}

func decodeChunkDataRaw(r *proto.Reader) (any, error) {
	var c ChunkDataRaw
	var err error
	if c.ChunkX, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if c.ChunkZ, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	c.Data, err = r.ReadByteArray()
	return c, err
}

func encodeUnloadChunk(w *proto.Writer, p any) error {
	u := p.(UnloadChunk)
	w.WriteInt32(u.ChunkX)
	w.WriteInt32(u.ChunkZ)
	return nil
}

func decodeUnloadChunk(r *proto.Reader) (any, error) {
	var u UnloadChunk
	var err error
	if u.ChunkX, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	u.ChunkZ, err = r.ReadInt32()
	return u, err
}

func encodePlayerPositionServerbound(w *proto.Writer, p any) error {
	pp := p.(PlayerPositionServerbound)
	w.WriteAbsolutePosition(pp.X, pp.Y, pp.Z)
	w.WriteBool(pp.OnGround)
	return nil
}

func decodePlayerPositionServerbound(r *proto.Reader) (any, error) {
	var pp PlayerPositionServerbound
	var err error
	if pp.X, pp.Y, pp.Z, err = r.ReadAbsolutePosition(); err != nil {
		return nil, err
	}
	pp.OnGround, err = r.ReadBool()
	return pp, err
}

func encodePlayerPositionAndRotationServerbound(w *proto.Writer, p any) error {
	pp := p.(PlayerPositionAndRotationServerbound)
	w.WriteAbsolutePosition(pp.X, pp.Y, pp.Z)
	w.WriteFloat32(pp.Yaw)
	w.WriteFloat32(pp.Pitch)
	w.WriteBool(pp.OnGround)
	return nil
}

func decodePlayerPositionAndRotationServerbound(r *proto.Reader) (any, error) {
	var pp PlayerPositionAndRotationServerbound
	var err error
	if pp.X, pp.Y, pp.Z, err = r.ReadAbsolutePosition(); err != nil {
		return nil, err
	}
	if pp.Yaw, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if pp.Pitch, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	pp.OnGround, err = r.ReadBool()
	return pp, err
}

func registerPlay(t *registry.Table) {
	cb := []registry.Descriptor{
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x24, Name: "JoinGame", Decode: decodeJoinGame, Encode: encodeJoinGame},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x18, Name: "PluginMessage", Decode: decodePluginMessage, Encode: encodePluginMessage},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x0D, Name: "ServerDifficulty", Decode: decodeServerDifficulty, Encode: encodeServerDifficulty},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x42, Name: "SpawnPosition", Decode: decodeSpawnPosition, Encode: encodeSpawnPosition},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x34, Name: "PlayerPositionAndLook", Decode: decodePlayerPositionAndLook, Encode: encodePlayerPositionAndLook},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x20, Name: "KeepAlive", Decode: decodeKeepAlive, Encode: encodeKeepAlive},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x0E, Name: "ChatMessage", Decode: decodeChatMessage, Encode: encodeChatMessage},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x19, Name: "Disconnect", Decode: decodePlayDisconnect, Encode: encodePlayDisconnect},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x44, Name: "EntityMetadata", Decode: decodeEntityMetadata, Encode: encodeEntityMetadata},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x21, Name: "ChunkData", Decode: decodeChunkDataRaw, Encode: encodeChunkDataRaw},
		{State: registry.Play, Direction: registry.Clientbound, ID: 0x1C, Name: "UnloadChunk", Decode: decodeUnloadChunk, Encode: encodeUnloadChunk},
	}
	for _, d := range cb {
		t.Register(d)
	}

	sb := []registry.Descriptor{
		{State: registry.Play, Direction: registry.Serverbound, ID: 0x10, Name: "KeepAlive", Decode: decodeKeepAlive, Encode: encodeKeepAlive},
		{State: registry.Play, Direction: registry.Serverbound, ID: 0x03, Name: "ChatMessage", Decode: decodeChatMessageServerbound, Encode: encodeChatMessageServerbound},
		{State: registry.Play, Direction: registry.Serverbound, ID: 0x12, Name: "PlayerPosition", Decode: decodePlayerPositionServerbound, Encode: encodePlayerPositionServerbound},
		{State: registry.Play, Direction: registry.Serverbound, ID: 0x13, Name: "PlayerPositionAndRotation", Decode: decodePlayerPositionAndRotationServerbound, Encode: encodePlayerPositionAndRotationServerbound},
		{State: registry.Play, Direction: registry.Serverbound, ID: 0x0B, Name: "PluginMessage", Decode: decodePluginMessage, Encode: encodePluginMessage},
	}
	for _, d := range sb {
		t.Register(d)
	}
}
