package murl

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/warpdl/murl/pkg/engine"
)

// slot tracks one registered URL. A slot is occupied exactly when url is
// non-empty; status is kept in step with that.
type slot struct {
	url     string
	out     *Output
	written int
	timeout time.Duration
	cookie  string
	status  SlotStatus
	errText string

	// last terminal engine result, for Info
	result   engine.Code
	respCode int

	easy *engine.Easy
}

func (s *slot) empty() bool { return s.url == "" }

// finalize records the payload length in the output header.
func (s *slot) finalize() { s.out.setLen(s.written) }

// clear returns the slot to Empty. The transfer handle is left to the caller.
func (s *slot) clear() {
	s.url = ""
	s.out = nil
	s.written = 0
	s.timeout = 0
	s.cookie = ""
	s.status = SlotEmpty
	s.errText = ""
	s.result = engine.CodeOK
	s.respCode = 0
}

// lookup returns the first occupied slot holding url.
func (c *Context) lookup(url string) *slot {
	for i := range c.slots {
		if s := &c.slots[i]; !s.empty() && s.url == url {
			return s
		}
	}
	return nil
}

func (c *Context) freeSlot() *slot {
	for i := range c.slots {
		if s := &c.slots[i]; s.empty() {
			return s
		}
	}
	return nil
}

// Register places url in the first free slot and hands it to the engine.
// The response is written to buf behind a HeaderSize length header, so the
// payload may use len(buf)-HeaderSize bytes. A zero timeout means the
// transfer is bounded only by the driver deadline. An empty cookie sends none.
func (c *Context) Register(url string, buf []byte, timeout time.Duration, cookie string) error {
	if err := c.check(); err != nil {
		return err
	}
	out, err := NewOutput(buf)
	if err != nil {
		return err
	}
	if url == "" {
		return ErrInvalidURL
	}
	s := c.freeSlot()
	if s == nil {
		return ErrTooManyURLs
	}
	if s.easy == nil {
		s.easy = engine.NewEasy()
	}
	s.url = url
	s.out = out
	s.written = 0
	s.timeout = timeout
	s.cookie = cookie
	s.errText = ""
	s.status = SlotPending

	e := s.easy
	e.SetURL(url)
	e.SetCookie(cookie)
	e.SetTimeout(timeout)
	e.SetWriteFunc(out.appender(&s.written))
	e.SetPrivate(s)
	if err := c.multi.AddHandle(e); err != nil {
		e.Reset()
		s.clear()
		return err
	}
	c.active++
	c.log.Debug("murl: registered %s (%d/%d)", url, c.active, len(c.slots))
	return nil
}

// Unregister withdraws url from the engine and frees its slot. The buffer
// keeps whatever was written to it.
func (c *Context) Unregister(url string) error {
	if err := c.check(); err != nil {
		return err
	}
	s := c.lookup(url)
	if s == nil {
		return ErrInvalidURL
	}
	c.withdraw(s)
	s.easy.Reset()
	s.clear()
	c.active--
	return nil
}

// StatusOf reports the state of url and up to errSize bytes of its last
// error text.
func (c *Context) StatusOf(url string, errSize int) (SlotStatus, string, error) {
	if err := c.check(); err != nil {
		return SlotEmpty, "", err
	}
	s := c.lookup(url)
	if s == nil {
		return SlotEmpty, "", ErrInvalidURL
	}
	return s.status, truncateText(s.errText, errSize), nil
}

// truncateText cuts text to at most n bytes without splitting a rune.
func truncateText(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// Output returns the view over url's buffer.
func (c *Context) Output(url string) (*Output, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := c.lookup(url)
	if s == nil {
		return nil, ErrInvalidURL
	}
	return s.out, nil
}

// SlotInfo is a diagnostic snapshot of one registered URL.
type SlotInfo struct {
	URL          string
	Status       SlotStatus
	Written      int
	Capacity     int
	Result       engine.Code
	ResponseCode int
	Error        string
}

// Info returns the diagnostic snapshot for url, including the engine's
// native result, which the slot status folds away.
func (c *Context) Info(url string) (SlotInfo, error) {
	if err := c.check(); err != nil {
		return SlotInfo{}, err
	}
	s := c.lookup(url)
	if s == nil {
		return SlotInfo{}, ErrInvalidURL
	}
	info := SlotInfo{
		URL:          s.url,
		Status:       s.status,
		Written:      s.written,
		Capacity:     s.out.Capacity(),
		Result:       s.result,
		ResponseCode: s.respCode,
		Error:        s.errText,
	}
	if info.Error == "" {
		info.Error = s.easy.ErrorText()
	}
	return info, nil
}

// withdraw detaches the slot's transfer from the engine. Slots forced to
// TimedOut are already detached.
func (c *Context) withdraw(s *slot) {
	if err := c.multi.RemoveHandle(s.easy); err != nil && !errors.Is(err, engine.ErrHandleNotAdded) {
		c.log.Warning("murl: withdraw %s: %v", s.url, err)
	}
}

// clearAll empties every slot. With destroy the transfer handles are retired
// rather than kept for reuse.
func (c *Context) clearAll(destroy bool) {
	for i := range c.slots {
		s := &c.slots[i]
		if !s.empty() {
			c.withdraw(s)
			s.clear()
		}
		if s.easy == nil {
			continue
		}
		if destroy {
			s.easy.Cleanup()
			s.easy = nil
		} else {
			s.easy.Reset()
		}
	}
	c.active = 0
}
