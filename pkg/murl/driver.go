package murl

import (
	"time"

	"github.com/warpdl/murl/pkg/engine"
)

// RunOnce drives every registered transfer to a terminal state and returns
// within deadline. Per-transfer timeouts longer than deadline are shortened
// to it, and transfers still pending when the deadline passes are marked
// TimedOut with whatever they had written. The returned error aggregates the
// transfers that finished during this call: nil, ErrTimeout, ErrOverflow or
// ErrMulti.
func (c *Context) RunOnce(deadline time.Duration) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.perform(deadline, true)
}

// RunRepeatable drives transfers for at most deadline and reports how many
// are still running. Unfinished transfers keep their own timeouts and carry
// on in the next call.
func (c *Context) RunRepeatable(deadline time.Duration) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	c.perform(deadline, false)
	return c.running, nil
}

func (c *Context) perform(deadline time.Duration, once bool) error {
	if once && deadline > 0 {
		for i := range c.slots {
			s := &c.slots[i]
			if s.status == SlotPending && (s.timeout <= 0 || s.timeout > deadline) {
				s.timeout = deadline
				s.easy.SetTimeout(deadline)
			}
		}
	}

	start := time.Now()
	c.kick()
	c.log.Debug("murl: pass started, %d running, deadline %s", c.running, deadline)
	for c.running > 0 {
		remaining := deadline - time.Since(start)
		wait := remaining
		if c.timer >= 0 && c.timer < wait {
			wait = c.timer
		}
		if wait < 0 {
			c.log.Debug("murl: deadline %s exhausted with %d running", deadline, c.running)
			break
		}
		n, err := c.poll.Wait(c.events, wait)
		if err != nil {
			c.log.Error("murl: wait: %v", err)
			break
		}
		if n == 0 {
			c.kick()
			continue
		}
		for _, ev := range c.events[:n] {
			running, err := c.multi.SocketAction(ev.Fd, action(ev.Events))
			if err != nil {
				c.log.Error("murl: socket action on fd %d: %v", ev.Fd, err)
				continue
			}
			c.running = running
		}
	}

	timedOut, overflowed := c.reconcile()
	if !once {
		c.log.Debug("murl: pass ended after %s, %d running", time.Since(start), c.running)
		return nil
	}
	for i := range c.slots {
		s := &c.slots[i]
		if s.empty() || s.status != SlotPending {
			continue
		}
		c.withdraw(s)
		s.status = SlotTimedOut
		s.result = engine.CodeOperationTimedOut
		s.errText = "deadline of " + deadline.String() + " exhausted"
		s.finalize()
		timedOut = true
	}
	c.running = c.multi.Running()
	c.log.Debug("murl: pass ended after %s", time.Since(start))
	return aggregate(timedOut, overflowed)
}

// kick lets the engine start queued transfers and expire overdue ones.
func (c *Context) kick() {
	running, err := c.multi.SocketAction(engine.SocketTimeout, 0)
	if err != nil {
		c.log.Error("murl: timeout action: %v", err)
		return
	}
	c.running = running
}
