package nbt

import "io"

// Encoder writes NBT documents to an underlying sink. It holds no
// buffering of its own; every write goes straight through to w, so it
// can be pointed at a *proto.Writer and avoid a staging allocation.
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder wraps w for a sequence of tag writes.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Err returns the first error encountered by any Write call.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *Encoder) writeName(name string) {
	b := []byte(name)
	e.write([]byte{byte(len(b) >> 8), byte(len(b))})
	e.write(b)
}

// WriteRootCompound writes a complete document: a named TAG_Compound
// at the root, its fields, and the terminating TAG_End. This is the
// shape ItemStack's "NBT tag body" and the dimension codec both use.
func (e *Encoder) WriteRootCompound(name string, c *Compound) error {
	if e.err != nil {
		return e.err
	}
	e.write([]byte{TagCompound})
	e.writeName(name)
	e.writeCompoundBody(c)
	return e.err
}

func (e *Encoder) writeCompoundBody(c *Compound) {
	for _, key := range c.Keys {
		v := c.Values[key]
		id := tagIDFor(v)
		e.write([]byte{id})
		e.writeName(key)
		e.writePayload(id, v)
	}
	e.write([]byte{TagEnd})
}

func (e *Encoder) writePayload(id byte, v Value) {
	if e.err != nil {
		return
	}
	switch id {
	case TagByte:
		e.write([]byte{byte(v.(int8))})
	case TagShort:
		x := uint16(v.(int16))
		e.write([]byte{byte(x >> 8), byte(x)})
	case TagInt:
		e.writeInt32(v.(int32))
	case TagLong:
		e.writeInt64(v.(int64))
	case TagFloat:
		e.writeInt32(int32(f32bits(v.(float32))))
	case TagDouble:
		e.writeInt64(int64(f64bits(v.(float64))))
	case TagByteArray:
		b := v.([]byte)
		e.writeInt32(int32(len(b)))
		e.write(b)
	case TagString:
		e.writeName(v.(string))
	case TagList:
		l := v.(*List)
		e.write([]byte{l.ElemType})
		e.writeInt32(int32(len(l.Items)))
		for _, item := range l.Items {
			e.writePayload(l.ElemType, item)
		}
	case TagCompound:
		e.writeCompoundBody(v.(*Compound))
	case TagIntArray:
		arr := v.([]int32)
		e.writeInt32(int32(len(arr)))
		for _, x := range arr {
			e.writeInt32(x)
		}
	case TagLongArray:
		arr := v.([]int64)
		e.writeInt32(int32(len(arr)))
		for _, x := range arr {
			e.writeInt64(x)
		}
	default:
		e.err = ErrMalformed
	}
}

func (e *Encoder) writeInt32(v int32) {
	uv := uint32(v)
	e.write([]byte{byte(uv >> 24), byte(uv >> 16), byte(uv >> 8), byte(uv)})
}

func (e *Encoder) writeInt64(v int64) {
	uv := uint64(v)
	e.write([]byte{
		byte(uv >> 56), byte(uv >> 48), byte(uv >> 40), byte(uv >> 32),
		byte(uv >> 24), byte(uv >> 16), byte(uv >> 8), byte(uv),
	})
}

func tagIDFor(v Value) byte {
	switch v.(type) {
	case int8:
		return TagByte
	case int16:
		return TagShort
	case int32:
		return TagInt
	case int64:
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case []byte:
		return TagByteArray
	case string:
		return TagString
	case *List:
		return TagList
	case *Compound:
		return TagCompound
	case []int32:
		return TagIntArray
	case []int64:
		return TagLongArray
	default:
		return TagEnd
	}
}
