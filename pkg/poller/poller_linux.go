//go:build linux

package poller

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Poller is an epoll instance.
type Poller struct {
	epfd int
	raw  []unix.EpollEvent
}

// New creates an epoll instance able to report up to size events per Wait.
func New(size int) (*Poller, error) {
	if size < 1 {
		size = 1
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &Poller{
		epfd: epfd,
		raw:  make([]unix.EpollEvent, size),
	}, nil
}

func toEpoll(ev Events) uint32 {
	var mask uint32
	if ev&Readable != 0 {
		mask |= unix.EPOLLIN
	}
	if ev&Writable != 0 {
		mask |= unix.EPOLLOUT
	}
	return mask
}

func fromEpoll(mask uint32) Events {
	var ev Events
	if mask&unix.EPOLLIN != 0 {
		ev |= Readable
	}
	if mask&unix.EPOLLOUT != 0 {
		ev |= Writable
	}
	if mask&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ev |= HangUp
	}
	return ev
}

// Add starts monitoring fd for the given readiness conditions.
func (p *Poller) Add(fd int, ev Events) error {
	if p.epfd < 0 {
		return ErrClosed
	}
	e := unix.EpollEvent{Events: toEpoll(ev), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &e); err != nil {
		return fmt.Errorf("epoll ctl add %d: %w", fd, err)
	}
	return nil
}

// Del stops monitoring fd.
func (p *Poller) Del(fd int) error {
	if p.epfd < 0 {
		return ErrClosed
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del %d: %w", fd, err)
	}
	return nil
}

// Wait blocks for at most timeout (negative blocks indefinitely) and fills
// events with ready descriptors. At most min(len(events), size) entries are
// written. An interrupted wait reports zero events and no error.
func (p *Poller) Wait(events []Event, timeout time.Duration) (int, error) {
	if p.epfd < 0 {
		return 0, ErrClosed
	}
	raw := p.raw
	if len(events) < len(raw) {
		raw = raw[:len(events)]
	}
	if len(raw) == 0 {
		return 0, nil
	}
	n, err := unix.EpollWait(p.epfd, raw, waitMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		events[i] = Event{Fd: int(raw[i].Fd), Events: fromEpoll(raw[i].Events)}
	}
	return n, nil
}

// Close releases the epoll descriptor. Monitored descriptors are not closed.
func (p *Poller) Close() error {
	if p.epfd < 0 {
		return nil
	}
	err := unix.Close(p.epfd)
	p.epfd = -1
	return err
}

// waitMillis converts timeout to epoll's millisecond argument, rounding up so
// a sub-millisecond budget still sleeps. Negative means block.
func waitMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	return int((timeout + time.Millisecond - 1) / time.Millisecond)
}
