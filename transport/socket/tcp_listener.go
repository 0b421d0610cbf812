package socket

import (
	ipv4 "media-net/network/ip/v4"
	"media-net/transport"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
)

// acceptGrace bounds a non-blocking accept that raced with a vanished connection.
const acceptGrace = 10 * time.Millisecond

// TCPListener accepts incoming TCP connections.
type TCPListener struct {
	handle

	ln   *net.TCPListener
	opts Options
}

func NewTCPListener(opts Options) *TCPListener {
	return &TCPListener{handle: newHandle(), opts: opts.withDefaults()}
}

// Listen starts listening on port. The zero address listens on every local address.
// Port 0 picks an ephemeral port.
func (l *TCPListener) Listen(port uint16, address ipv4.Addr) error {
	l.Close()

	if address == ipv4.Broadcast {
		return otherError("cannot listen on the broadcast address")
	}

	local := Endpoint{IP: address, Port: port}
	ln, err := net.ListenTCP("tcp4", local.tcpAddr())
	if err != nil {
		l.opts.Logger.Debug("listen failed", addrAttr("local", local), "error", err)
		return statusError("listen", err)
	}

	rc, err := ln.SyscallConn()
	if err != nil {
		ln.Close()
		return statusError("listen", err)
	}

	l.ln = ln
	l.attach(rc)

	l.opts.Logger.Debug("listening", addrAttr("local", endpointOf(ln.Addr())))
	return nil
}

// LocalPort returns the port the listener is bound to.
func (l *TCPListener) LocalPort() (uint16, error) {
	if l.ln == nil {
		return 0, otherError("listener is not listening")
	}
	return endpointOf(l.ln.Addr()).Port, nil
}

// Accept returns the next incoming connection.
//
// In non-blocking mode, having no pending connection is not an error:
// Accept returns a nil socket and a nil error.
func (l *TCPListener) Accept() (*TCPSocket, error) {
	if l.ln == nil {
		return nil, otherError("listener is not listening")
	}

	if !l.blocking {
		ready, err := l.readable()
		if err != nil {
			return nil, errors.WithMessagef(transport.ErrOther, "accept: %v", err)
		}
		if !ready {
			return nil, nil
		}

		// A pending connection may be reset between poll and accept.
		if err := l.ln.SetDeadline(l.opts.Clock.Now().Add(acceptGrace)); err != nil {
			return nil, errors.WithMessagef(transport.ErrOther, "accept: %v", err)
		}
		defer l.ln.SetDeadline(time.Time{})
	}

	conn, err := l.ln.AcceptTCP()
	if err != nil {
		if !l.blocking && errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}
		return nil, errors.WithMessagef(transport.ErrOther, "accept: %v", err)
	}

	sock := NewTCPSocket(l.opts)
	if err := sock.attachConn(conn); err != nil {
		return nil, errors.WithMessagef(transport.ErrOther, "accept: %v", err)
	}

	l.opts.Logger.Debug("accepted", addrAttr("remote", endpointOf(conn.RemoteAddr())))
	return sock, nil
}

// Close stops listening. It is safe to call more than once.
func (l *TCPListener) Close() error {
	if l.ln == nil {
		return nil
	}

	err := l.ln.Close()
	l.ln = nil
	l.detach()

	return statusError("close", err)
}
