package socket

import (
	"io"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sys/unix"
)

// handle is the native side shared by every socket type.
// It is also what a Selector keys its members by.
type handle struct {
	blocking bool
	rc       syscall.RawConn // nil while there is no native socket.
}

func newHandle() handle { return handle{blocking: true} }

// SetBlocking toggles whether IO calls wait for completion.
func (h *handle) SetBlocking(blocking bool) { h.blocking = blocking }
func (h *handle) IsBlocking() bool          { return h.blocking }

func (h *handle) addToSelector(s *Selector)      { s.add(h) }
func (h *handle) removeFromSelector(s *Selector) { s.remove(h) }
func (h *handle) isReady(s *Selector) bool       { return s.ready(h) }

func (h *handle) attach(rc syscall.RawConn) { h.rc = rc }
func (h *handle) detach()                   { h.rc = nil }

func (h *handle) fd() (int, bool) {
	if h.rc == nil {
		return -1, false
	}

	fd := -1
	if err := h.rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return -1, false
	}
	return fd, fd >= 0
}

// readable reports whether a read on h would not block.
func (h *handle) readable() (bool, error) {
	fd, ok := h.fd()
	if !ok {
		return false, syscall.EBADF
	}

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := poll(fds, 0, nil)
	if err != nil {
		return false, err
	}
	return n > 0 && isReadable(fds[0]), nil
}

// rawRead performs a single read without waiting for readiness.
func (h *handle) rawRead(b []byte) (n int, err error) {
	err = h.control(func(fd int) error {
		n, err = unix.Read(fd, b)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n == 0 && len(b) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// rawWrite performs a single write without waiting for readiness.
func (h *handle) rawWrite(b []byte) (n int, err error) {
	err = h.control(func(fd int) error {
		n, err = unix.Write(fd, b)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (h *handle) rawSendTo(b []byte, to Endpoint) error {
	sa := &unix.SockaddrInet4{Port: int(to.Port), Addr: to.IP}
	return h.control(func(fd int) error {
		return unix.Sendto(fd, b, 0, sa)
	})
}

func (h *handle) rawRecvFrom(b []byte) (n int, sender Endpoint, err error) {
	var from unix.Sockaddr
	err = h.control(func(fd int) error {
		n, from, err = unix.Recvfrom(fd, b, 0)
		return err
	})
	if err != nil {
		return 0, Endpoint{}, err
	}

	if sa, ok := from.(*unix.SockaddrInet4); ok {
		sender = Endpoint{IP: sa.Addr, Port: uint16(sa.Port)}
	}
	return n, sender, nil
}

// control runs op on the native descriptor, retrying when a signal interrupts it.
// op must not block: the descriptor is in non-blocking mode underneath package net.
func (h *handle) control(op func(fd int) error) error {
	if h.rc == nil {
		return syscall.EBADF
	}

	var opErr error
	err := h.rc.Control(func(fd uintptr) {
		for {
			opErr = op(int(fd))
			if opErr != unix.EINTR {
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

func isReadable(fd unix.PollFd) bool {
	return fd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
}

// poll waits for events on fds. A negative timeout waits forever.
// Interrupted polls resume with whatever time is left on clk.
func poll(fds []unix.PollFd, timeout time.Duration, clk clock.Clock) (int, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = clk.Now().Add(timeout)
	}

	for {
		n, err := unix.Poll(fds, pollMillis(timeout))
		if err != unix.EINTR {
			return n, err
		}

		if timeout > 0 {
			timeout = max(clk.Until(deadline), 0)
		}
	}
}

// pollMillis rounds up so a wait never ends before its timeout.
func pollMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	return int((timeout + time.Millisecond - 1) / time.Millisecond)
}
