package nbt

import "io"

// Decoder reads NBT documents from an underlying source, one tag at a
// time, without buffering past what each tag needs.
type Decoder struct {
	r io.Reader
}

// NewDecoder wraps r for a sequence of tag reads.
func NewDecoder(r io.Reader) *Decoder { return &Decoder{r: r} }

func (d *Decoder) readFull(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Decoder) readName() (string, error) {
	b, err := d.readFull(2)
	if err != nil {
		return "", err
	}
	n := int(b[0])<<8 | int(b[1])
	if n == 0 {
		return "", nil
	}
	nb, err := d.readFull(n)
	if err != nil {
		return "", err
	}
	return string(nb), nil
}

func (d *Decoder) readInt32() (int32, error) {
	b, err := d.readFull(4)
	if err != nil {
		return 0, err
	}
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}

func (d *Decoder) readInt64() (int64, error) {
	b, err := d.readFull(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return int64(v), nil
}

// ReadRootCompound reads a root TAG_Compound: its type byte (must be
// TagCompound), name, fields, and terminating TAG_End.
func (d *Decoder) ReadRootCompound() (name string, c *Compound, err error) {
	idb, err := d.readFull(1)
	if err != nil {
		return "", nil, err
	}
	if idb[0] == TagEnd {
		// An item stack's empty NBT body: a bare TAG_End, no name.
		return "", NewCompound(), nil
	}
	if idb[0] != TagCompound {
		return "", nil, ErrMalformed
	}
	name, err = d.readName()
	if err != nil {
		return "", nil, err
	}
	c, err = d.readCompoundBody()
	return name, c, err
}

func (d *Decoder) readCompoundBody() (*Compound, error) {
	c := NewCompound()
	for {
		idb, err := d.readFull(1)
		if err != nil {
			return nil, err
		}
		if idb[0] == TagEnd {
			return c, nil
		}
		key, err := d.readName()
		if err != nil {
			return nil, err
		}
		v, err := d.readPayload(idb[0])
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
	}
}

func (d *Decoder) readPayload(id byte) (Value, error) {
	switch id {
	case TagByte:
		b, err := d.readFull(1)
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case TagShort:
		b, err := d.readFull(2)
		if err != nil {
			return nil, err
		}
		return int16(uint16(b[0])<<8 | uint16(b[1])), nil
	case TagInt:
		return d.readInt32()
	case TagLong:
		return d.readInt64()
	case TagFloat:
		v, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		return f32frombits(uint32(v)), nil
	case TagDouble:
		v, err := d.readInt64()
		if err != nil {
			return nil, err
		}
		return f64frombits(uint64(v)), nil
	case TagByteArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrMalformed
		}
		return d.readFull(int(n))
	case TagString:
		return d.readName()
	case TagList:
		elemb, err := d.readFull(1)
		if err != nil {
			return nil, err
		}
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrMalformed
		}
		l := &List{ElemType: elemb[0], Items: make([]Value, 0, n)}
		for i := int32(0); i < n; i++ {
			v, err := d.readPayload(elemb[0])
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, v)
		}
		return l, nil
	case TagCompound:
		return d.readCompoundBody()
	case TagIntArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrMalformed
		}
		arr := make([]int32, n)
		for i := range arr {
			arr[i], err = d.readInt32()
			if err != nil {
				return nil, err
			}
		}
		return arr, nil
	case TagLongArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, ErrMalformed
		}
		arr := make([]int64, n)
		for i := range arr {
			arr[i], err = d.readInt64()
			if err != nil {
				return nil, err
			}
		}
		return arr, nil
	default:
		return nil, ErrMalformed
	}
}
