package murl

import (
	"time"

	"github.com/warpdl/murl/pkg/engine"
	"github.com/warpdl/murl/pkg/poller"
)

// socketRegistration is attached to a live engine descriptor.
type socketRegistration struct {
	fd   int
	mask poller.Events
	ctx  *Context
}

func interest(what engine.Poll) poller.Events {
	var ev poller.Events
	if what&engine.PollIn != 0 {
		ev |= poller.Readable
	}
	if what&engine.PollOut != 0 {
		ev |= poller.Writable
	}
	return ev
}

// onSocket mirrors the engine's descriptor interest into the poller.
func (c *Context) onSocket(e *engine.Easy, fd int, what engine.Poll, assoc interface{}) {
	reg, _ := assoc.(*socketRegistration)
	if what == engine.PollRemove {
		// The engine closes fd itself, which also drops it from epoll.
		delete(c.sockets, fd)
		return
	}
	mask := interest(what)
	if reg == nil {
		reg = &socketRegistration{fd: fd, ctx: c}
		c.sockets[fd] = reg
		if err := c.poll.Add(fd, mask); err != nil {
			c.log.Error("murl: watch fd %d for %s: %v", fd, e.URL(), err)
		}
		reg.mask = mask
		if err := c.multi.Assign(fd, reg); err != nil {
			c.log.Error("murl: %v", err)
		}
		return
	}
	if reg.mask != 0 {
		if err := c.poll.Del(fd); err != nil {
			c.log.Warning("murl: unwatch fd %d: %v", fd, err)
		}
	}
	if err := c.poll.Add(fd, mask); err != nil {
		c.log.Error("murl: rewatch fd %d: %v", fd, err)
	}
	reg.mask = mask
}

func (c *Context) onTimer(d time.Duration) { c.timer = d }

func action(ev poller.Events) engine.Action {
	var a engine.Action
	if ev&poller.Readable != 0 {
		a |= engine.ActionIn
	}
	if ev&poller.Writable != 0 {
		a |= engine.ActionOut
	}
	if ev&poller.HangUp != 0 {
		a |= engine.ActionErr
	}
	return a
}
