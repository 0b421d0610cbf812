package socket

import (
	"bytes"
	ipv4 "media-net/network/ip/v4"
	"media-net/transport"
	"media-net/transport/packet"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ephemeralRange returns the kernel's ephemeral port range where it is exposed.
func ephemeralRange() (lo, hi uint16, ok bool) {
	raw, err := os.ReadFile("/proc/sys/net/ipv4/ip_local_port_range")
	if err != nil {
		return 0, 0, false
	}

	fields := strings.Fields(string(raw))
	if len(fields) != 2 {
		return 0, 0, false
	}
	l, err1 := strconv.ParseUint(fields[0], 10, 16)
	h, err2 := strconv.ParseUint(fields[1], 10, 16)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uint16(l), uint16(h), true
}

func TestMaxDatagramSize(t *testing.T) {
	assert.Equal(t, uint32(65507), MaxDatagramSize())
}

func TestUDPSocketBindUnbind(t *testing.T) {
	var buf [1024]byte

	sock := NewUDPSocket(Options{})
	defer sock.Close()

	sock.SetBlocking(false)
	assert.False(t, sock.IsBlocking())

	require.NoError(t, sock.Bind(0, ipv4.Any))
	port, ok := sock.LocalPort()
	require.True(t, ok)
	if lo, hi, ok := ephemeralRange(); ok {
		assert.GreaterOrEqual(t, port, lo)
		assert.LessOrEqual(t, port, hi)
	} else {
		assert.NotZero(t, port)
	}

	_, err := sock.Receive(buf[:])
	assert.ErrorIs(t, err, transport.ErrNotReady)

	sock.Unbind()
	_, ok = sock.LocalPort()
	assert.False(t, ok)

	_, err = sock.Receive(buf[:])
	assert.ErrorIs(t, err, transport.ErrOther)

	sock.Unbind() // idempotent
}

func TestUDPSocketBindBroadcast(t *testing.T) {
	sock := NewUDPSocket(Options{})
	defer sock.Close()

	assert.ErrorIs(t, sock.Bind(0, ipv4.Broadcast), transport.ErrOther)
	_, ok := sock.LocalPort()
	assert.False(t, ok)
}

type UDPSocketTestSuite struct {
	suite.Suite

	a, b  *UDPSocket
	aAddr Endpoint
}

func TestUDPSocketTestSuite(t *testing.T) {
	suite.Run(t, new(UDPSocketTestSuite))
}

func (s *UDPSocketTestSuite) SetupTest() {
	s.a = NewUDPSocket(Options{})
	s.b = NewUDPSocket(Options{})

	s.Require().NoError(s.a.Bind(0, ipv4.LocalHost))
	port, ok := s.a.LocalPort()
	s.Require().True(ok)
	s.aAddr = NewEndpoint(ipv4.LocalHost, port)
}

func (s *UDPSocketTestSuite) TearDownTest() {
	s.NoError(s.a.Close())
	s.NoError(s.b.Close())
}

func (s *UDPSocketTestSuite) TestSendFromUnboundSocket() {
	_, ok := s.b.LocalPort()
	s.Require().False(ok)

	s.Require().NoError(s.b.Send([]byte("hello"), s.aAddr))

	bPort, ok := s.b.LocalPort()
	s.Require().True(ok)

	buf := make([]byte, 64)
	d, err := s.a.Receive(buf)
	s.Require().NoError(err)
	s.Equal([]byte("hello"), d.Data)
	s.Equal(NewEndpoint(ipv4.LocalHost, bPort), d.Sender)
}

func (s *UDPSocketTestSuite) TestPacket() {
	s.Require().NoError(s.b.Bind(0, ipv4.LocalHost))
	bPort, _ := s.b.LocalPort()

	out := packet.New()
	out.WriteString("datagram")
	out.WriteInt64(-42)
	s.Require().NoError(s.b.SendPacket(out, s.aAddr))

	in := packet.New()
	in.WriteUint8(0xFF)
	sender, err := s.a.ReceivePacket(in)
	s.Require().NoError(err)
	s.Equal(NewEndpoint(ipv4.LocalHost, bPort), sender)
	s.Equal(out.Data(), in.Data())

	str, err := in.ReadString()
	s.Require().NoError(err)
	s.Equal("datagram", str)

	v, err := in.ReadInt64()
	s.Require().NoError(err)
	s.Equal(int64(-42), v)
	s.True(in.IsAtEnd())
}

func (s *UDPSocketTestSuite) TestNonBlockingReceive() {
	s.a.SetBlocking(false)

	buf := make([]byte, 64)
	_, err := s.a.Receive(buf)
	s.ErrorIs(err, transport.ErrNotReady)

	_, err = s.a.ReceivePacket(packet.New())
	s.ErrorIs(err, transport.ErrNotReady)

	s.b.SetBlocking(false)
	s.Require().NoError(s.b.Send([]byte("late"), s.aAddr))

	var d Datagram
	s.Eventually(func() bool {
		d, err = s.a.Receive(buf)
		return err == nil
	}, testTimeout, time.Millisecond)
	s.Equal([]byte("late"), d.Data)
	s.Equal(ipv4.LocalHost, d.Sender.IP)
}

func (s *UDPSocketTestSuite) TestTruncatedDatagram() {
	s.Require().NoError(s.b.Send([]byte("0123456789"), s.aAddr))

	buf := make([]byte, 4)
	d, err := s.a.Receive(buf)
	s.Require().NoError(err)
	s.Equal([]byte("0123"), d.Data)
}

func (s *UDPSocketTestSuite) TestOversizedDatagram() {
	data := bytes.Repeat([]byte{1}, maxDatagramSize+1)
	s.ErrorIs(s.b.Send(data, s.aAddr), transport.ErrOther)

	p := packet.New()
	p.Append(data)
	s.ErrorIs(s.b.SendPacket(p, s.aAddr), transport.ErrOther)
}

func (s *UDPSocketTestSuite) TestEmptyReceiveBuffer() {
	_, err := s.a.Receive(nil)
	s.ErrorIs(err, transport.ErrOther)
}
