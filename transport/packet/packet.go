// Package packet implements a growable byte buffer with typed, positional
// encoding. Values must be read back in the order and with the types they were
// written; nothing on the wire describes the layout.
//
// Wire format: integers and floats are big-endian (network byte order), bools are
// a single byte, strings and byte runs carry a uint32 length prefix.
package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrEndOfPacket = errors.New("read past the end of packet")

// Sizes of the fixed-width encodings.
const (
	sizeBool    = 1
	size8       = 1
	size16      = 2
	size32      = 4
	size64      = 8
	sizeLenHead = size32
)

type Packet struct {
	data    []byte
	readPos int
}

func New() *Packet { return &Packet{} }

// Data returns the underlying buffer. It is only valid until the next mutation.
func (p *Packet) Data() []byte  { return p.data }
func (p *Packet) DataSize() int { return len(p.data) }
func (p *Packet) ReadPos() int  { return p.readPos }
func (p *Packet) IsAtEnd() bool { return p.readPos >= len(p.data) }

// Append appends raw bytes. The read cursor doesn't move.
func (p *Packet) Append(b []byte) { p.data = append(p.data, b...) }

func (p *Packet) Clear() {
	p.data = p.data[:0]
	p.readPos = 0
}

// Copy returns a deep copy, read cursor included.
func (p *Packet) Copy() *Packet {
	return &Packet{data: bytes.Clone(p.data), readPos: p.readPos}
}

// Reset replaces the contents with b and rewinds the cursor.
func (p *Packet) Reset(b []byte) {
	p.data = append(p.data[:0], b...)
	p.readPos = 0
}

// ReadRemaining drains every unread byte.
func (p *Packet) ReadRemaining() []byte {
	b := bytes.Clone(p.data[p.readPos:])
	p.readPos = len(p.data)
	return b
}

func (p *Packet) WriteBool(v bool) {
	if v {
		p.data = append(p.data, 1)
		return
	}
	p.data = append(p.data, 0)
}

func (p *Packet) WriteUint8(v uint8)   { p.data = append(p.data, v) }
func (p *Packet) WriteInt8(v int8)     { p.WriteUint8(uint8(v)) }
func (p *Packet) WriteUint16(v uint16) { p.data = binary.BigEndian.AppendUint16(p.data, v) }
func (p *Packet) WriteInt16(v int16)   { p.WriteUint16(uint16(v)) }
func (p *Packet) WriteUint32(v uint32) { p.data = binary.BigEndian.AppendUint32(p.data, v) }
func (p *Packet) WriteInt32(v int32)   { p.WriteUint32(uint32(v)) }
func (p *Packet) WriteUint64(v uint64) { p.data = binary.BigEndian.AppendUint64(p.data, v) }
func (p *Packet) WriteInt64(v int64)   { p.WriteUint64(uint64(v)) }

func (p *Packet) WriteFloat32(v float32) { p.WriteUint32(math.Float32bits(v)) }
func (p *Packet) WriteFloat64(v float64) { p.WriteUint64(math.Float64bits(v)) }

// WriteString writes len(s) as uint32 followed by the bytes of s.
// It panics when s is 4 GiB or longer, as the length can't be encoded.
func (p *Packet) WriteString(s string) {
	p.writeLength(len(s))
	p.data = append(p.data, s...)
}

// WriteBytes writes a length-prefixed byte run, encoded like a string.
func (p *Packet) WriteBytes(b []byte) {
	p.writeLength(len(b))
	p.data = append(p.data, b...)
}

func (p *Packet) writeLength(n int) {
	if uint64(n) > math.MaxUint32 {
		panic(fmt.Sprintf("packet: length %d overflows the uint32 prefix", n))
	}
	p.WriteUint32(uint32(n))
}

// next returns the next n bytes and advances the cursor.
// On underrun the cursor stays where it was.
func (p *Packet) next(n int) ([]byte, error) {
	if n < 0 || len(p.data)-p.readPos < n {
		return nil, ErrEndOfPacket
	}
	b := p.data[p.readPos : p.readPos+n]
	p.readPos += n
	return b, nil
}

func (p *Packet) ReadBool() (bool, error) {
	b, err := p.next(sizeBool)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (p *Packet) ReadUint8() (uint8, error) {
	b, err := p.next(size8)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *Packet) ReadInt8() (int8, error) {
	v, err := p.ReadUint8()
	return int8(v), err
}

func (p *Packet) ReadUint16() (uint16, error) {
	b, err := p.next(size16)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (p *Packet) ReadInt16() (int16, error) {
	v, err := p.ReadUint16()
	return int16(v), err
}

func (p *Packet) ReadUint32() (uint32, error) {
	b, err := p.next(size32)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (p *Packet) ReadInt32() (int32, error) {
	v, err := p.ReadUint32()
	return int32(v), err
}

func (p *Packet) ReadUint64() (uint64, error) {
	b, err := p.next(size64)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (p *Packet) ReadInt64() (int64, error) {
	v, err := p.ReadUint64()
	return int64(v), err
}

func (p *Packet) ReadFloat32() (float32, error) {
	v, err := p.ReadUint32()
	return math.Float32frombits(v), err
}

func (p *Packet) ReadFloat64() (float64, error) {
	v, err := p.ReadUint64()
	return math.Float64frombits(v), err
}

func (p *Packet) ReadString() (string, error) {
	b, err := p.readRun()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *Packet) ReadBytes() ([]byte, error) {
	b, err := p.readRun()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// readRun reads a length-prefixed run. The length header is only consumed
// when the whole run is available.
func (p *Packet) readRun() ([]byte, error) {
	start := p.readPos

	n, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}

	if uint64(n) > uint64(len(p.data)-p.readPos) {
		p.readPos = start
		return nil, ErrEndOfPacket
	}

	return p.next(int(n))
}
