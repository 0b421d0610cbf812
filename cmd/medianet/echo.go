package main

import (
	"context"
	"log/slog"
	ipv4 "media-net/network/ip/v4"
	"media-net/transport"
	"media-net/transport/packet"
	"media-net/transport/socket"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// echoServer sends every packet it receives back to where it came from,
// over UDP and over TCP.
type echoServer struct {
	logger       *slog.Logger
	pollInterval time.Duration

	udp      *socket.UDPSocket
	listener *socket.TCPListener
}

func newEchoServer(logger *slog.Logger, pollInterval time.Duration) *echoServer {
	opts := socket.Options{Logger: logger}
	return &echoServer{
		logger:       logger,
		pollInterval: pollInterval,
		udp:          socket.NewUDPSocket(opts),
		listener:     socket.NewTCPListener(opts),
	}
}

func (s *echoServer) listen(address ipv4.Addr, udpPort, tcpPort uint16) error {
	if err := s.udp.Bind(udpPort, address); err != nil {
		return err
	}
	if err := s.listener.Listen(tcpPort, address); err != nil {
		s.udp.Unbind()
		return err
	}
	return nil
}

func (s *echoServer) ports() (udpPort, tcpPort uint16) {
	udpPort, _ = s.udp.LocalPort()
	tcpPort, _ = s.listener.LocalPort()
	return udpPort, tcpPort
}

// run serves until ctx is done. Each protocol runs in its own goroutine
// with its own selector, so no socket is shared between goroutines.
func (s *echoServer) run(ctx context.Context) error {
	defer s.listener.Close()
	defer s.udp.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.serveUDP(ctx) })
	g.Go(func() error { return s.serveTCP(ctx) })
	return g.Wait()
}

func (s *echoServer) serveUDP(ctx context.Context) error {
	s.udp.SetBlocking(false)

	selector := socket.NewSelector(socket.Options{Logger: s.logger})
	selector.Add(s.udp)

	p := packet.New()
	for ctx.Err() == nil {
		if !selector.Wait(s.pollInterval) {
			continue
		}

		sender, err := s.udp.ReceivePacket(p)
		switch {
		case errors.Is(err, transport.ErrNotReady):
			continue
		case err != nil:
			// Usually an ICMP error from an earlier reply; the socket stays usable.
			s.logger.Warn("udp receive failed", "error", err)
			continue
		}

		s.logger.Debug("udp echo", "from", sender, "bytes", p.DataSize())
		if err := s.udp.SendPacket(p, sender); err != nil && !errors.Is(err, transport.ErrNotReady) {
			s.logger.Warn("udp send failed", "to", sender, "error", err)
		}
	}
	return nil
}

func (s *echoServer) serveTCP(ctx context.Context) error {
	s.listener.SetBlocking(false)

	selector := socket.NewSelector(socket.Options{Logger: s.logger})
	selector.Add(s.listener)

	clients := make(map[*socket.TCPSocket]struct{})
	defer func() {
		for client := range clients {
			client.Close()
		}
	}()

	drop := func(client *socket.TCPSocket) {
		selector.Remove(client)
		delete(clients, client)
		client.Close()
	}

	p := packet.New()
	for ctx.Err() == nil {
		if !selector.Wait(s.pollInterval) {
			continue
		}

		if selector.IsReady(s.listener) {
			client, err := s.listener.Accept()
			if err != nil {
				s.logger.Warn("accept failed", "error", err)
			} else if client != nil {
				client.SetBlocking(false)
				selector.Add(client)
				clients[client] = struct{}{}
			}
		}

		for client := range clients {
			if !selector.IsReady(client) {
				continue
			}

			err := client.ReceivePacket(p)
			switch {
			case errors.Is(err, transport.ErrNotReady):
				continue
			case errors.Is(err, transport.ErrDisconnected):
				s.logger.Debug("client left")
				drop(client)
				continue
			case err != nil:
				s.logger.Warn("tcp receive failed", "error", err)
				drop(client)
				continue
			}

			// Replies are small; block until the whole packet is out.
			client.SetBlocking(true)
			err = client.SendPacket(p)
			client.SetBlocking(false)
			if err != nil {
				s.logger.Warn("tcp send failed", "error", err)
				drop(client)
			}
		}
	}
	return nil
}
