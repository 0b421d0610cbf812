package socket

import (
	"encoding/binary"
	"errors"
	iolib "media-net/lib/io"
	"media-net/transport"
	"media-net/transport/packet"
	"net"
	"slices"
	"time"
)

const (
	packetHeaderSize = 4
	// Packet bodies are received in chunks of at most this size,
	// so a bogus size header can't allocate the whole announced length upfront.
	receiveChunkSize = 1024
)

// TCPSocket is a connection-oriented stream socket.
type TCPSocket struct {
	handle

	conn *net.TCPConn
	opts Options

	pendingRecv pendingPacket
	pendingSend pendingBlock
}

// pendingPacket is a packet being received across non-blocking calls.
type pendingPacket struct {
	header     [packetHeaderSize]byte
	headerRead int
	body       []byte
}

// pendingBlock is a framed packet being sent across non-blocking calls.
type pendingBlock struct {
	p     *packet.Packet
	block []byte
	sent  int
}

func NewTCPSocket(opts Options) *TCPSocket {
	return &TCPSocket{handle: newHandle(), opts: opts.withDefaults()}
}

func (s *TCPSocket) attachConn(conn *net.TCPConn) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return statusError("attach", err)
	}
	s.conn = conn
	s.attach(rc)
	return nil
}

// LocalPort returns the port the socket is bound to. ok is false when unbound.
func (s *TCPSocket) LocalPort() (port uint16, ok bool) {
	if s.conn == nil {
		return 0, false
	}
	port = endpointOf(s.conn.LocalAddr()).Port
	return port, port != 0
}

// Remote returns the address of the connected peer.
func (s *TCPSocket) Remote() (Endpoint, error) {
	if s.conn == nil {
		return Endpoint{}, otherError("socket is not connected")
	}
	remote := endpointOf(s.conn.RemoteAddr())
	if remote.Port == 0 {
		return Endpoint{}, otherError("socket is not connected")
	}
	return remote, nil
}

// Connect connects to remote, dropping any previous connection first.
// A zero timeout leaves the limit to the operating system.
func (s *TCPSocket) Connect(remote Endpoint, timeout time.Duration) error {
	s.Disconnect()

	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp4", remote.String())
	if err != nil {
		s.opts.Logger.Debug("connect failed", addrAttr("remote", remote), "error", err)
		return statusError("connect", err)
	}

	if err := s.attachConn(conn.(*net.TCPConn)); err != nil {
		return err
	}

	s.opts.Logger.Debug("connected",
		addrAttr("remote", remote), addrAttr("local", endpointOf(s.conn.LocalAddr())))
	return nil
}

// Disconnect closes the connection. It is safe to call on an unconnected socket.
func (s *TCPSocket) Disconnect() {
	if s.conn == nil {
		return
	}

	if err := s.conn.Close(); err != nil {
		s.opts.Logger.Debug("close failed", "error", err)
	}
	s.opts.Logger.Debug("disconnected", addrAttr("remote", endpointOf(s.conn.RemoteAddr())))

	s.conn = nil
	s.detach()
	s.pendingRecv = pendingPacket{}
	s.pendingSend = pendingBlock{}
}

func (s *TCPSocket) Close() error {
	s.Disconnect()
	return nil
}

// Send sends all of b. In non-blocking mode it may fail with
// transport.ErrPartial, in which case SendPartial tells how much was sent.
func (s *TCPSocket) Send(b []byte) error {
	_, err := s.write(b)
	return err
}

// SendPartial sends as much of b as possible and returns the unsent suffix.
// A partial transfer isn't an error here.
func (s *TCPSocket) SendPartial(b []byte) ([]byte, error) {
	sent, err := s.write(b)
	if errors.Is(err, transport.ErrPartial) {
		err = nil
	}
	return b[sent:], err
}

// SendPacket sends the contents of p behind a 4-byte big-endian size header.
// When a non-blocking send ends with transport.ErrPartial, calling SendPacket
// again with the same, unmodified packet resumes where it stopped.
func (s *TCPSocket) SendPacket(p *packet.Packet) error {
	if s.pendingSend.p != p {
		block := make([]byte, packetHeaderSize, packetHeaderSize+p.DataSize())
		binary.BigEndian.PutUint32(block, uint32(p.DataSize()))
		block = append(block, p.Data()...)

		s.pendingSend = pendingBlock{p: p, block: block}
	}

	n, err := s.write(s.pendingSend.block[s.pendingSend.sent:])
	s.pendingSend.sent += n

	if errors.Is(err, transport.ErrPartial) ||
		(errors.Is(err, transport.ErrNotReady) && s.pendingSend.sent > 0) {
		return transport.ErrPartial
	}

	s.pendingSend = pendingBlock{}
	return err
}

// write returns how many bytes of b were sent along with the outcome.
func (s *TCPSocket) write(b []byte) (int, error) {
	if s.conn == nil {
		return 0, otherError("socket is not connected")
	}
	if len(b) == 0 {
		return 0, otherError("cannot send empty data")
	}

	if s.blocking {
		sent, err := iolib.WriteFull(s.conn, b)
		return sent, statusError("send", err)
	}

	sent := 0
	for sent < len(b) {
		n, err := s.rawWrite(b[sent:])
		sent += n
		if err == nil {
			continue
		}

		status := transport.StatusOf(err)
		if status == transport.StatusNotReady && sent > 0 {
			status = transport.StatusPartial
		}
		return sent, wrapStatus(status, "send", err)
	}
	return sent, nil
}

// Receive reads whatever data is available into buf and returns the filled part.
//
// In non-blocking mode without pending data it returns an empty slice together
// with transport.ErrNotReady, or with no error when Options.LenientReceive is set.
func (s *TCPSocket) Receive(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return buf, otherError("cannot receive into an empty buffer")
	}

	n, err := s.read(buf)
	if errors.Is(err, transport.ErrNotReady) && s.opts.LenientReceive {
		err = nil
	}
	return buf[:n], err
}

// ReceivePacket receives one packet sent by SendPacket and replaces the contents
// of p with it. In non-blocking mode a packet may arrive across several calls;
// every call but the last one returns transport.ErrNotReady.
func (s *TCPSocket) ReceivePacket(p *packet.Packet) error {
	p.Clear()

	pending := &s.pendingRecv
	for pending.headerRead < packetHeaderSize {
		n, err := s.read(pending.header[pending.headerRead:])
		pending.headerRead += n
		if err != nil {
			return s.abortReceive(err)
		}
	}

	size := int(binary.BigEndian.Uint32(pending.header[:]))
	for len(pending.body) < size {
		chunk := min(size-len(pending.body), receiveChunkSize)
		pending.body = slices.Grow(pending.body, chunk)

		n, err := s.read(pending.body[len(pending.body) : len(pending.body)+chunk])
		pending.body = pending.body[:len(pending.body)+n]
		if err != nil {
			return s.abortReceive(err)
		}
	}

	p.Reset(pending.body)
	s.pendingRecv = pendingPacket{}
	return nil
}

// abortReceive keeps a partially received packet only when more data may come.
func (s *TCPSocket) abortReceive(err error) error {
	if !errors.Is(err, transport.ErrNotReady) {
		s.pendingRecv = pendingPacket{}
	}
	return err
}

func (s *TCPSocket) read(buf []byte) (int, error) {
	if s.conn == nil {
		return 0, otherError("socket is not connected")
	}

	var (
		n   int
		err error
	)
	if s.blocking {
		n, err = s.conn.Read(buf)
	} else {
		n, err = s.rawRead(buf)
	}

	if n > 0 {
		// Data first. An error arriving together with it shows up on the next call.
		return n, nil
	}
	return 0, statusError("receive", err)
}
