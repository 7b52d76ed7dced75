// Package murl schedules many HTTP fetches over a single readiness loop.
//
// A Context owns a fixed number of slots. Each registered URL occupies one
// slot and writes its response into a caller buffer behind a 4-byte length
// header. RunOnce drives every slot to a terminal state within a deadline;
// RunRepeatable drives for at most a deadline and leaves unfinished slots
// for a later call.
//
// A Context is not safe for concurrent use. Use one Context per goroutine.
package murl

import (
	"fmt"
	"time"

	"github.com/warpdl/murl/pkg/engine"
	"github.com/warpdl/murl/pkg/logger"
	"github.com/warpdl/murl/pkg/poller"
)

// Options configures a Context. The zero value is usable.
type Options struct {
	// Logger receives driver tracing. Defaults to a NopLogger.
	Logger logger.Logger
	// UserAgent overrides the engine's default User-Agent.
	UserAgent string
	// Proxy routes every transfer through an http, https or socks5 proxy.
	Proxy string
	// MaxRedirects enables following up to this many redirects.
	MaxRedirects int
}

// Context is a scheduler instance.
type Context struct {
	slots  []slot
	active int

	multi   *engine.Multi
	poll    *poller.Poller
	events  []poller.Event
	sockets map[int]*socketRegistration

	// engine-suggested wake-up; negative means none
	timer   time.Duration
	running int

	log logger.Logger
}

// NewContext creates a scheduler with room for capacity concurrent URLs.
// The first Context in a process initializes the engine; Destroy releases it.
func NewContext(capacity int, opts *Options) (*Context, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if opts == nil {
		opts = &Options{}
	}
	l := opts.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	if err := engine.GlobalInit(); err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}
	p, err := poller.New(capacity)
	if err != nil {
		engine.GlobalCleanup()
		return nil, err
	}
	m, err := engine.NewMulti(&engine.MultiOpts{
		UserAgent:    opts.UserAgent,
		MaxRedirects: opts.MaxRedirects,
		Proxy:        opts.Proxy,
		Logger:       l,
	})
	if err != nil {
		p.Close()
		engine.GlobalCleanup()
		return nil, err
	}
	c := &Context{
		slots:   make([]slot, capacity),
		multi:   m,
		poll:    p,
		events:  make([]poller.Event, capacity),
		sockets: make(map[int]*socketRegistration),
		timer:   engine.NoTimer,
		log:     l,
	}
	for i := range c.slots {
		c.slots[i].status = SlotEmpty
	}
	m.SetSocketFunc(c.onSocket)
	m.SetTimerFunc(c.onTimer)
	return c, nil
}

func (c *Context) check() error {
	if c == nil || c.slots == nil {
		return ErrNullContext
	}
	return nil
}

// Destroy withdraws every transfer and releases the context. Any later call
// on c returns ErrNullContext.
func (c *Context) Destroy() error {
	if err := c.check(); err != nil {
		return err
	}
	c.clearAll(true)
	c.slots = nil
	err := c.multi.Close()
	if perr := c.poll.Close(); err == nil {
		err = perr
	}
	c.sockets = nil
	engine.GlobalCleanup()
	return err
}

// Reset withdraws every transfer and empties every slot, keeping the
// context usable.
func (c *Context) Reset() error {
	if err := c.check(); err != nil {
		return err
	}
	c.clearAll(false)
	c.running = 0
	return nil
}

// ActiveCount is the number of occupied slots.
func (c *Context) ActiveCount() int {
	if c.check() != nil {
		return 0
	}
	return c.active
}

// Capacity is the number of slots.
func (c *Context) Capacity() int {
	if c.check() != nil {
		return 0
	}
	return len(c.slots)
}
