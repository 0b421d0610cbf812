package packet

import (
	"github.com/pkg/errors"
)

// Value is every type with a fixed packet encoding.
type Value interface {
	bool |
		int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 |
		float32 | float64 |
		string | []byte
}

// Write appends the encoding of v to p.
func Write[T Value](p *Packet, v T) {
	if err := writeAny(p, v); err != nil {
		// Unreachable: Value only admits encodable types.
		panic(err)
	}
}

// Read decodes the next value of type T from p.
func Read[T Value](p *Packet) (T, error) {
	var v T
	if err := readAny(p, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func writeAny(p *Packet, v any) error {
	switch v := v.(type) {
	case bool:
		p.WriteBool(v)
	case int8:
		p.WriteInt8(v)
	case uint8:
		p.WriteUint8(v)
	case int16:
		p.WriteInt16(v)
	case uint16:
		p.WriteUint16(v)
	case int32:
		p.WriteInt32(v)
	case uint32:
		p.WriteUint32(v)
	case int64:
		p.WriteInt64(v)
	case uint64:
		p.WriteUint64(v)
	case float32:
		p.WriteFloat32(v)
	case float64:
		p.WriteFloat64(v)
	case string:
		p.WriteString(v)
	case []byte:
		p.WriteBytes(v)
	default:
		return errors.Errorf("type %T has no packet encoding", v)
	}
	return nil
}

func readAny(p *Packet, ptr any) (err error) {
	switch ptr := ptr.(type) {
	case *bool:
		*ptr, err = p.ReadBool()
	case *int8:
		*ptr, err = p.ReadInt8()
	case *uint8:
		*ptr, err = p.ReadUint8()
	case *int16:
		*ptr, err = p.ReadInt16()
	case *uint16:
		*ptr, err = p.ReadUint16()
	case *int32:
		*ptr, err = p.ReadInt32()
	case *uint32:
		*ptr, err = p.ReadUint32()
	case *int64:
		*ptr, err = p.ReadInt64()
	case *uint64:
		*ptr, err = p.ReadUint64()
	case *float32:
		*ptr, err = p.ReadFloat32()
	case *float64:
		*ptr, err = p.ReadFloat64()
	case *string:
		*ptr, err = p.ReadString()
	case *[]byte:
		*ptr, err = p.ReadBytes()
	default:
		return errors.Errorf("type %T has no packet encoding", ptr)
	}
	return err
}
