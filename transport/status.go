package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"syscall"
)

// Status is the outcome of a socket operation.
type Status int

const (
	StatusDone Status = iota
	StatusNotReady
	StatusPartial
	StatusDisconnected
	StatusError
)

var (
	// ErrNotReady reports that a non-blocking operation would have blocked.
	ErrNotReady = errors.New("socket not ready")
	// ErrPartial reports that fewer bytes than requested were transferred.
	ErrPartial = errors.New("partial transfer")
	// ErrDisconnected reports that the remote peer closed the connection.
	ErrDisconnected = errors.New("socket disconnected")
	// ErrOther covers every other failure.
	ErrOther = errors.New("socket error")
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusNotReady:
		return "not ready"
	case StatusPartial:
		return "partial"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Err translates the status into the error taxonomy.
// A status outside the known set means the caller and the transport disagree,
// so it panics instead of guessing.
func (s Status) Err() error {
	switch s {
	case StatusDone:
		return nil
	case StatusNotReady:
		return ErrNotReady
	case StatusPartial:
		return ErrPartial
	case StatusDisconnected:
		return ErrDisconnected
	case StatusError:
		return ErrOther
	}
	panic("unexpected socket status " + strconv.Itoa(int(s)))
}

// StatusOf classifies an error returned by the operating system or package net.
func StatusOf(err error) Status {
	if err == nil {
		return StatusDone
	}

	if errors.Is(err, io.EOF) {
		return StatusDisconnected
	}
	// Dial timeouts match context.DeadlineExceeded, IO deadlines os.ErrDeadlineExceeded.
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return StatusNotReady
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return StatusError
	}

	// Reference: BSD socket error codes.
	switch errno {
	case syscall.EAGAIN, syscall.EINPROGRESS:
		return StatusNotReady
	case syscall.ECONNABORTED,
		syscall.ECONNRESET,
		syscall.ETIMEDOUT,
		syscall.ENETRESET,
		syscall.ENOTCONN,
		syscall.EPIPE:
		return StatusDisconnected
	}

	// EWOULDBLOCK equals EAGAIN on most platforms, which would make it a duplicate case.
	if errno == syscall.EWOULDBLOCK {
		return StatusNotReady
	}

	return StatusError
}
