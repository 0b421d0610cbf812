package main

import (
	"context"
	"log/slog"
	"media-net/network/resolve"
	"media-net/transport"
	"media-net/transport/packet"
	"media-net/transport/socket"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var errTimeout = errors.New("no reply before the timeout")

// resolveEndpoint turns "host:port" into an endpoint.
func resolveEndpoint(ctx context.Context, resolver *resolve.Resolver, hostport string) (socket.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return socket.Endpoint{}, errors.Wrap(err, "invalid address")
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return socket.Endpoint{}, errors.Wrapf(err, "invalid port %q", portStr)
	}

	addr, err := resolver.Resolve(ctx, host)
	if err != nil {
		return socket.Endpoint{}, err
	}
	return socket.NewEndpoint(addr, uint16(port)), nil
}

func encodeMessage(msg string) *packet.Packet {
	p := packet.New()
	p.WriteString(msg)
	return p
}

func decodeMessage(p *packet.Packet) (string, error) {
	msg, err := p.ReadString()
	if err != nil {
		return "", errors.Wrap(err, "malformed reply")
	}
	if !p.IsAtEnd() {
		return "", errors.Errorf("malformed reply: %d trailing bytes", p.DataSize()-p.ReadPos())
	}
	return msg, nil
}

// exchangeUDP sends msg to remote and waits for one reply.
func exchangeUDP(logger *slog.Logger, remote socket.Endpoint, msg string, timeout time.Duration) (string, error) {
	sock := socket.NewUDPSocket(socket.Options{Logger: logger})
	defer sock.Close()

	if err := sock.SendPacket(encodeMessage(msg), remote); err != nil {
		return "", err
	}

	selector := socket.NewSelector(socket.Options{Logger: logger})
	selector.Add(sock)

	reply := packet.New()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 || !selector.Wait(remaining) {
			return "", errTimeout
		}

		sender, err := sock.ReceivePacket(reply)
		if err != nil {
			return "", err
		}
		if sender != remote {
			logger.Debug("ignoring stray datagram", "from", sender)
			continue
		}
		return decodeMessage(reply)
	}
}

// exchangeTCP connects to remote, sends msg and waits for one reply packet.
func exchangeTCP(logger *slog.Logger, remote socket.Endpoint, msg string, timeout time.Duration) (string, error) {
	sock := socket.NewTCPSocket(socket.Options{Logger: logger})
	defer sock.Close()

	if err := sock.Connect(remote, timeout); err != nil {
		return "", err
	}
	if err := sock.SendPacket(encodeMessage(msg)); err != nil {
		return "", err
	}

	sock.SetBlocking(false)
	selector := socket.NewSelector(socket.Options{Logger: logger})
	selector.Add(sock)

	reply := packet.New()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 || !selector.Wait(remaining) {
			return "", errTimeout
		}

		err := sock.ReceivePacket(reply)
		if errors.Is(err, transport.ErrNotReady) {
			continue
		}
		if err != nil {
			return "", err
		}
		return decodeMessage(reply)
	}
}
