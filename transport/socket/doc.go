// Package socket provides TCP listeners, TCP stream sockets and UDP datagram
// sockets with a per-socket blocking flag, plus a [Selector] that waits on many of
// them at once.
//
// Every failure maps onto the taxonomy of package transport, so callers decide
// what to do with errors.Is:
//
//	transport.ErrNotReady     retry later (non-blocking mode)
//	transport.ErrPartial      resume with the remainder
//	transport.ErrDisconnected the peer closed the connection
//	transport.ErrOther        give up
//
// Sockets are not safe for concurrent use. Non-blocking IO relies on raw socket
// syscalls and poll(2), so the package targets unix platforms.
package socket
