package engine

import (
	"runtime/debug"

	"github.com/warpdl/murl/pkg/logger"
)

// safeGo runs fn in a goroutine with panic recovery.
// If l is non-nil, panics are logged with stack traces.
// If onPanic is non-nil, it's called with the recovered value.
func safeGo(l logger.Logger, context string, onPanic func(r interface{}), fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if l != nil {
					l.Error("PANIC [%s]: %v\n%s", context, r, debug.Stack())
				}
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}
