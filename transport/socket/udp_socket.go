package socket

import (
	ipv4 "media-net/network/ip/v4"
	"media-net/transport"
	"media-net/transport/packet"
	"net"

	"github.com/pkg/errors"
)

// maxDatagramSize is the largest UDP payload over IPv4:
// 65535 minus the 8-byte UDP header minus the 20-byte IP header.
const maxDatagramSize = 65507

// MaxDatagramSize returns the largest payload a single UDP send accepts.
func MaxDatagramSize() uint32 { return maxDatagramSize }

// Datagram is a received payload along with who sent it.
type Datagram struct {
	Data   []byte
	Sender Endpoint
}

// UDPSocket is a connectionless datagram socket.
type UDPSocket struct {
	handle

	conn *net.UDPConn
	opts Options

	buf []byte // receive buffer for packets, allocated on first use.
}

func NewUDPSocket(opts Options) *UDPSocket {
	return &UDPSocket{handle: newHandle(), opts: opts.withDefaults()}
}

// Bind binds the socket to port on address. Port 0 picks an ephemeral port and
// the zero address binds to every local address.
func (s *UDPSocket) Bind(port uint16, address ipv4.Addr) error {
	s.Unbind()

	if address == ipv4.Broadcast {
		return otherError("cannot bind to the broadcast address")
	}

	local := Endpoint{IP: address, Port: port}
	conn, err := net.ListenUDP("udp4", local.udpAddr())
	if err != nil {
		s.opts.Logger.Debug("bind failed", addrAttr("local", local), "error", err)
		return statusError("bind", err)
	}

	rc, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return statusError("bind", err)
	}

	s.conn = conn
	s.attach(rc)

	s.opts.Logger.Debug("bound", addrAttr("local", endpointOf(conn.LocalAddr())))
	return nil
}

// Unbind releases the port. It is safe to call on an unbound socket.
func (s *UDPSocket) Unbind() {
	if s.conn == nil {
		return
	}

	if err := s.conn.Close(); err != nil {
		s.opts.Logger.Debug("close failed", "error", err)
	}
	s.opts.Logger.Debug("unbound", addrAttr("local", endpointOf(s.conn.LocalAddr())))

	s.conn = nil
	s.detach()
}

func (s *UDPSocket) Close() error {
	s.Unbind()
	return nil
}

// LocalPort returns the port the socket is bound to. ok is false when unbound.
func (s *UDPSocket) LocalPort() (port uint16, ok bool) {
	if s.conn == nil {
		return 0, false
	}
	port = endpointOf(s.conn.LocalAddr()).Port
	return port, port != 0
}

// Send sends b as one datagram to remote.
// An unbound socket is bound to an ephemeral port first.
func (s *UDPSocket) Send(b []byte, remote Endpoint) error {
	if len(b) > maxDatagramSize {
		return errors.WithMessagef(transport.ErrOther,
			"datagram of %d bytes exceeds the maximum of %d", len(b), maxDatagramSize)
	}

	if s.conn == nil {
		if err := s.Bind(0, ipv4.Any); err != nil {
			return err
		}
	}

	if s.blocking {
		_, err := s.conn.WriteToUDP(b, remote.udpAddr())
		return statusError("send", err)
	}
	return statusError("send", s.rawSendTo(b, remote))
}

// SendPacket sends the contents of p as one datagram to remote.
func (s *UDPSocket) SendPacket(p *packet.Packet, remote Endpoint) error {
	return s.Send(p.Data(), remote)
}

// Receive reads one datagram into buf. A datagram larger than buf is truncated.
func (s *UDPSocket) Receive(buf []byte) (Datagram, error) {
	if s.conn == nil {
		return Datagram{}, otherError("socket is not bound")
	}
	if len(buf) == 0 {
		return Datagram{}, otherError("cannot receive into an empty buffer")
	}

	var (
		n      int
		sender Endpoint
		err    error
	)
	if s.blocking {
		var from *net.UDPAddr
		n, from, err = s.conn.ReadFromUDP(buf)
		if from != nil {
			sender = endpointOf(from)
		}
	} else {
		n, sender, err = s.rawRecvFrom(buf)
	}

	if err != nil {
		return Datagram{}, statusError("receive", err)
	}
	return Datagram{Data: buf[:n], Sender: sender}, nil
}

// ReceivePacket receives one datagram into p, replacing its contents.
func (s *UDPSocket) ReceivePacket(p *packet.Packet) (Endpoint, error) {
	if s.buf == nil {
		s.buf = make([]byte, maxDatagramSize)
	}

	p.Clear()

	d, err := s.Receive(s.buf)
	if err != nil {
		return Endpoint{}, err
	}

	p.Append(d.Data)
	return d.Sender, nil
}
