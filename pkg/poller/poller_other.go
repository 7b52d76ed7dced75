//go:build !linux

package poller

import "time"

// Poller is unavailable on this platform.
type Poller struct{}

// New always fails with ErrUnsupportedPlatform.
func New(size int) (*Poller, error) {
	return nil, ErrUnsupportedPlatform
}

func (p *Poller) Add(fd int, ev Events) error { return ErrUnsupportedPlatform }
func (p *Poller) Del(fd int) error            { return ErrUnsupportedPlatform }
func (p *Poller) Close() error                { return nil }

func (p *Poller) Wait(events []Event, timeout time.Duration) (int, error) {
	return 0, ErrUnsupportedPlatform
}
