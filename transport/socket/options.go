package socket

import (
	"log/slog"

	"github.com/benbjohnson/clock"
)

type Options struct {
	Logger *slog.Logger
	// Clock measures the remaining time of interrupted waits.
	Clock clock.Clock

	// LenientReceive makes a non-blocking TCPSocket.Receive without pending data
	// return an empty slice and no error instead of transport.ErrNotReady.
	LenientReceive bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}
