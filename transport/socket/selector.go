package socket

import (
	"maps"
	"time"

	"golang.org/x/sys/unix"
)

// Socket is implemented by TCPListener, TCPSocket and UDPSocket.
type Socket interface {
	addToSelector(s *Selector)
	removeFromSelector(s *Selector)
	isReady(s *Selector) bool
}

var (
	_ Socket = (*TCPListener)(nil)
	_ Socket = (*TCPSocket)(nil)
	_ Socket = (*UDPSocket)(nil)
)

// Selector waits until one of its sockets has something to read.
// For a listener that means a pending connection.
//
// Readiness is level-triggered and only a hint: the following operation may
// still report transport.ErrNotReady.
type Selector struct {
	members map[*handle]bool // value is the readiness seen by the last Wait.
	opts    Options
}

func NewSelector(opts Options) *Selector {
	return &Selector{
		members: make(map[*handle]bool),
		opts:    opts.withDefaults(),
	}
}

// Copy returns a selector with the same members.
// The sockets themselves are shared, not duplicated.
func (s *Selector) Copy() *Selector {
	return &Selector{members: maps.Clone(s.members), opts: s.opts}
}

// Add registers sock. Adding a registered socket again has no effect.
func (s *Selector) Add(sock Socket)    { sock.addToSelector(s) }
func (s *Selector) Remove(sock Socket) { sock.removeFromSelector(s) }
func (s *Selector) Clear()             { clear(s.members) }
func (s *Selector) Len() int           { return len(s.members) }

// IsReady reports whether sock was ready during the last Wait.
// It is false for sockets that aren't registered.
func (s *Selector) IsReady(sock Socket) bool { return sock.isReady(s) }

// Wait blocks until at least one socket is ready or timeout elapses.
// A zero timeout waits forever.
func (s *Selector) Wait(timeout time.Duration) bool {
	fds := make([]unix.PollFd, 0, len(s.members))
	handles := make([]*handle, 0, len(s.members))

	for h := range s.members {
		s.members[h] = false

		fd, ok := h.fd()
		if !ok {
			// Not connected or bound; nothing to wait on.
			continue
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		handles = append(handles, h)
	}

	if timeout <= 0 {
		timeout = -1
	}

	n, err := poll(fds, timeout, s.opts.Clock)
	if err != nil {
		s.opts.Logger.Warn("selector wait failed", "error", err)
		return false
	}
	if n == 0 {
		return false
	}

	anyReady := false
	for idx, fd := range fds {
		if isReadable(fd) {
			s.members[handles[idx]] = true
			anyReady = true
		}
	}
	return anyReady
}

func (s *Selector) add(h *handle) {
	if _, ok := s.members[h]; !ok {
		s.members[h] = false
	}
}

func (s *Selector) remove(h *handle)     { delete(s.members, h) }
func (s *Selector) ready(h *handle) bool { return s.members[h] }
