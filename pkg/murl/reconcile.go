package murl

import "github.com/warpdl/murl/pkg/engine"

// reconcile drains the engine's finished transfers into their slots and
// reports which failure kinds it saw.
func (c *Context) reconcile() (timedOut, overflowed bool) {
	for {
		msg, _ := c.multi.InfoRead()
		if msg == nil {
			return timedOut, overflowed
		}
		s, ok := msg.Easy.Private().(*slot)
		if !ok || s.empty() {
			continue
		}
		switch msg.Result {
		case engine.CodeOperationTimedOut:
			s.status = SlotTimedOut
			s.errText = msg.Easy.ErrorText()
			timedOut = true
		case engine.CodeWriteError:
			s.status = SlotOverflowed
			s.errText = msg.Easy.ErrorText()
			overflowed = true
		default:
			s.status = SlotCompletedOK
			s.errText = ""
		}
		s.result = msg.Result
		s.respCode = msg.Easy.ResponseCode()
		s.finalize()
		c.log.Debug("murl: %s %s (%d bytes)", s.url, s.status, s.written)
	}
}
