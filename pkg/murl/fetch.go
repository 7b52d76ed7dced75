package murl

import (
	"context"
	"time"

	"github.com/warpdl/murl/pkg/engine"
)

// FetchOne fetches url synchronously into buf, outside any Context. The
// payload length is written to the header whatever the outcome. It returns
// ErrTimeout, ErrOverflow or nil; other transfer failures leave an empty
// payload and report nil, as a completed transfer does.
func FetchOne(ctx context.Context, url string, buf []byte, timeout time.Duration, cookie string) error {
	out, err := NewOutput(buf)
	if err != nil {
		return err
	}
	written := 0
	e := engine.NewEasy()
	defer e.Cleanup()
	e.SetURL(url)
	e.SetTimeout(timeout)
	e.SetCookie(cookie)
	e.SetWriteFunc(out.appender(&written))

	err = e.Perform(ctx)
	out.setLen(written)
	switch engine.CodeOf(err) {
	case engine.CodeOperationTimedOut:
		return ErrTimeout
	case engine.CodeWriteError:
		return ErrOverflow
	}
	return nil
}
