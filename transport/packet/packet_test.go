package packet

import (
	"io"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PacketTestSuite struct {
	suite.Suite

	p *Packet
}

func TestPacketTestSuite(t *testing.T) {
	suite.Run(t, new(PacketTestSuite))
}

func (s *PacketTestSuite) SetupTest() {
	s.p = New()
}

func (s *PacketTestSuite) TestMixedWriteAndAppend() {
	s.p.WriteUint16(1999)
	s.p.WriteBool(true)

	w := s.p.Writer()
	s.Require().NoError(w.WriteValue(uint32(12_345_678)))
	s.Require().NoError(w.WriteValue("oh:"))

	s.p.Append([]byte("abc"))
	s.Require().Equal(2+1+4+(4+3)+3, s.p.DataSize())

	u16, err := s.p.ReadUint16()
	s.Require().NoError(err)
	s.Equal(uint16(1999), u16)

	b, err := s.p.ReadBool()
	s.Require().NoError(err)
	s.True(b)

	var u32 uint32
	s.Require().NoError(s.p.Reader().ReadValue(&u32))
	s.Equal(uint32(12_345_678), u32)

	str, err := s.p.ReadString()
	s.Require().NoError(err)
	s.Equal("oh:", str)

	s.False(s.p.IsAtEnd())
	s.Equal([]byte("abc"), s.p.ReadRemaining())
	s.True(s.p.IsAtEnd())
}

func (s *PacketTestSuite) TestWireLayout() {
	s.p.WriteUint16(0x0102)
	s.p.WriteBool(false)
	s.p.WriteInt32(-2)
	s.p.WriteString("hi")

	expected := []byte{
		0x01, 0x02,
		0x00,
		0xFF, 0xFF, 0xFF, 0xFE,
		0x00, 0x00, 0x00, 0x02, 'h', 'i',
	}
	s.Equal(expected, s.p.Data())
}

func (s *PacketTestSuite) TestAppendKeepsCursor() {
	s.p.WriteUint8(7)
	_, err := s.p.ReadUint8()
	s.Require().NoError(err)

	before := s.p.DataSize()
	s.p.Append([]byte{1, 2, 3, 4})

	s.Equal(before+4, s.p.DataSize())
	s.Equal(1, s.p.ReadPos())
}

func (s *PacketTestSuite) TestClear() {
	s.p.WriteFloat64(math.Pi)
	_, err := s.p.ReadUint8()
	s.Require().NoError(err)

	s.p.Clear()

	s.Zero(s.p.DataSize())
	s.Zero(s.p.ReadPos())
	s.True(s.p.IsAtEnd())
}

func (s *PacketTestSuite) TestCopyIndependence() {
	s.p.WriteUint16(1999)
	s.p.WriteString("copy")
	_, err := s.p.ReadUint16()
	s.Require().NoError(err)

	clone := s.p.Copy()
	s.Equal(s.p.Data(), clone.Data())
	s.Equal(s.p.ReadPos(), clone.ReadPos())

	s.p.Clear()
	s.p.WriteUint8(0xAA)

	s.Equal(2+4+4, clone.DataSize())
	s.Equal(2, clone.ReadPos())

	str, err := clone.ReadString()
	s.Require().NoError(err)
	s.Equal("copy", str)
	s.True(clone.IsAtEnd())
}

func (s *PacketTestSuite) TestReadUnderrun() {
	s.p.WriteUint16(5)

	_, err := s.p.ReadUint32()
	s.ErrorIs(err, ErrEndOfPacket)
	s.Zero(s.p.ReadPos())

	v, err := s.p.ReadUint16()
	s.Require().NoError(err)
	s.Equal(uint16(5), v)

	_, err = s.p.ReadBool()
	s.ErrorIs(err, ErrEndOfPacket)
	s.True(s.p.IsAtEnd())
}

func (s *PacketTestSuite) TestStringUnderrun() {
	// Header announces 10 bytes, only 3 follow.
	s.p.WriteUint32(10)
	s.p.Append([]byte("abc"))

	_, err := s.p.ReadString()
	s.ErrorIs(err, ErrEndOfPacket)
	s.Zero(s.p.ReadPos())

	n, err := s.p.ReadUint32()
	s.Require().NoError(err)
	s.Equal(uint32(10), n)
}

func (s *PacketTestSuite) TestReset() {
	s.p.WriteUint32(1)
	_, err := s.p.ReadUint32()
	s.Require().NoError(err)

	s.p.Reset([]byte{9})
	s.Equal([]byte{9}, s.p.Data())
	s.Zero(s.p.ReadPos())
}

func TestRoundTrip(t *testing.T) {
	p := New()

	Write(p, true)
	Write(p, int8(-8))
	Write(p, uint8(8))
	Write(p, int16(-1600))
	Write(p, uint16(1600))
	Write(p, int32(-320000))
	Write(p, uint32(320000))
	Write(p, int64(math.MinInt64))
	Write(p, uint64(math.MaxUint64))
	Write(p, float32(1.5))
	Write(p, math.E)
	Write(p, "")
	Write(p, "unicode ✓")
	Write(p, []byte{0, 1, 2})

	reads := []func() (any, error){
		func() (any, error) { return Read[bool](p) },
		func() (any, error) { return Read[int8](p) },
		func() (any, error) { return Read[uint8](p) },
		func() (any, error) { return Read[int16](p) },
		func() (any, error) { return Read[uint16](p) },
		func() (any, error) { return Read[int32](p) },
		func() (any, error) { return Read[uint32](p) },
		func() (any, error) { return Read[int64](p) },
		func() (any, error) { return Read[uint64](p) },
		func() (any, error) { return Read[float32](p) },
		func() (any, error) { return Read[float64](p) },
		func() (any, error) { return Read[string](p) },
		func() (any, error) { return Read[string](p) },
		func() (any, error) { return Read[[]byte](p) },
	}
	expected := []any{
		true, int8(-8), uint8(8), int16(-1600), uint16(1600), int32(-320000), uint32(320000),
		int64(math.MinInt64), uint64(math.MaxUint64), float32(1.5), math.E, "", "unicode ✓", []byte{0, 1, 2},
	}

	for idx, read := range reads {
		require.False(t, p.IsAtEnd(), "ended early at %d", idx)
		got, err := read()
		require.NoError(t, err)
		assert.Equal(t, expected[idx], got)
	}
	assert.True(t, p.IsAtEnd())

	_, err := Read[uint8](p)
	assert.ErrorIs(t, err, ErrEndOfPacket)
}

func TestLengthPrefixOverflow(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("lengths past uint32 need a 64-bit int")
	}

	longest := uint64(math.MaxUint32)

	p := New()
	p.writeLength(int(longest))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, p.Data())

	assert.Panics(t, func() { p.writeLength(int(longest + 1)) })
	assert.Equal(t, 4, p.DataSize())
}

func TestBoolDecoding(t *testing.T) {
	p := New()
	p.Append([]byte{0, 1, 2})

	for _, expected := range []bool{false, true, true} {
		b, err := p.ReadBool()
		require.NoError(t, err)
		assert.Equal(t, expected, b)
	}
}

func TestUnsupportedValue(t *testing.T) {
	p := New()

	assert.Error(t, p.Writer().WriteValue(struct{}{}))
	assert.Error(t, p.Reader().ReadValue(new(int)))
	assert.Zero(t, p.DataSize())
}

func TestReaderWriter(t *testing.T) {
	p := New()
	w := p.Writer()

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	r := p.Reader()
	buf := make([]byte, 3)

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hel"), buf[:n])

	c, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('l'), c)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("o"), rest)

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}
