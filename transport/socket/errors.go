package socket

import (
	"media-net/transport"

	"github.com/pkg/errors"
)

// statusError classifies cause and attaches it to the matching sentinel.
func statusError(op string, cause error) error {
	return wrapStatus(transport.StatusOf(cause), op, cause)
}

func wrapStatus(status transport.Status, op string, cause error) error {
	if status == transport.StatusDone {
		return nil
	}
	return errors.WithMessagef(status.Err(), "%s: %v", op, cause)
}

// otherError reports a failure that has no OS-level cause.
func otherError(msg string) error {
	return errors.WithMessage(transport.ErrOther, msg)
}
