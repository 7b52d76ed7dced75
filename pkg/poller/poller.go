// Package poller wraps the operating system's readiness multiplexer.
//
// Only Linux (epoll) is implemented. On other platforms New returns
// ErrUnsupportedPlatform so callers fail at construction rather than mid-loop.
package poller

import "errors"

// Events is a bit set of readiness conditions.
type Events uint32

const (
	// Readable reports (or requests) read readiness.
	Readable Events = 1 << iota
	// Writable reports (or requests) write readiness.
	Writable
	// HangUp reports an error or hang-up on the descriptor. It is always
	// reported by the kernel and never needs to be requested.
	HangUp
)

// Event is one ready descriptor returned by Wait.
type Event struct {
	Fd     int
	Events Events
}

var (
	// ErrUnsupportedPlatform is returned by New on platforms without epoll.
	ErrUnsupportedPlatform = errors.New("poller: readiness multiplexer not supported on this platform")
	// ErrClosed is returned by operations on a closed poller.
	ErrClosed = errors.New("poller: closed")
)
