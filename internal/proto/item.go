package proto

import (
	"bytes"

	"github.com/roxxel/obsidian/internal/nbt"
)

// ItemStack is the value shape for inventory slots: presence flag,
// then (if present) item id, count, and an NBT tag body that is
// always present when the stack is present, even if empty (a bare
// TAG_End).
type ItemStack struct {
	Present bool
	ItemID  int32
	Count   int8
	Tag     *nbt.Compound
}

// WriteItemStack encodes an ItemStack per baseline §3/§4.1.
func (w *Writer) WriteItemStack(item ItemStack) error {
	w.WriteBool(item.Present)
	if !item.Present {
		return nil
	}
	w.WriteVarInt(item.ItemID)
	w.WriteInt8(item.Count)
	tag := item.Tag
	if tag == nil {
		tag = nbt.NewCompound()
	}
	enc := nbt.NewEncoder(w)
	if tag.Empty() {
		// A present, empty tag is still a document: a single TAG_End.
		w.WriteUint8(nbt.TagEnd)
		return nil
	}
	return enc.WriteRootCompound("", tag)
}

// ReadItemStack decodes an ItemStack, delegating the embedded NBT
// document to internal/nbt.
func (r *Reader) ReadItemStack() (ItemStack, error) {
	present, err := r.ReadBool()
	if err != nil {
		return ItemStack{}, err
	}
	if !present {
		return ItemStack{Present: false}, nil
	}
	id, err := r.ReadVarInt()
	if err != nil {
		return ItemStack{}, err
	}
	count, err := r.ReadInt8()
	if err != nil {
		return ItemStack{}, err
	}
	br := bytes.NewReader(r.data[r.pos:])
	_, tag, err := nbt.NewDecoder(br).ReadRootCompound()
	if err != nil {
		return ItemStack{}, ErrMalformed
	}
	consumed := r.Remaining() - br.Len()
	r.pos += consumed
	return ItemStack{Present: true, ItemID: id, Count: count, Tag: tag}, nil
}

// ReadNBTCompound decodes a bare NBT document (name + compound body)
// starting at the cursor, delegating to internal/nbt and advancing the
// cursor by exactly the bytes the sub-codec consumed. Used for
// embedded documents like JoinGame's dimension codec, where the NBT
// document is not preceded by any length prefix of its own.
func (r *Reader) ReadNBTCompound() (string, *nbt.Compound, error) {
	br := bytes.NewReader(r.data[r.pos:])
	name, tag, err := nbt.NewDecoder(br).ReadRootCompound()
	if err != nil {
		return "", nil, ErrMalformed
	}
	consumed := r.Remaining() - br.Len()
	r.pos += consumed
	return name, tag, nil
}

// Since returns the bytes consumed between start and the current
// cursor position, for callers that need to retain an already-decoded
// value's raw encoding (e.g. entity-metadata values).
func (r *Reader) Since(start int) []byte {
	return r.data[start:r.pos]
}
