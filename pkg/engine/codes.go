package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Code is the terminal result of a transfer.
type Code int

const (
	CodeOK Code = iota
	CodeUnsupportedProtocol
	CodeFailedInit
	CodeURLMalformat
	CodeCouldntResolveHost
	CodeCouldntConnect
	CodeGotNothing
	CodeWriteError
	CodeOperationTimedOut
	CodeTooManyRedirects
	CodeRecvError
	CodeAbortedByCallback
)

var codeText = map[Code]string{
	CodeOK:                  "no error",
	CodeUnsupportedProtocol: "unsupported protocol",
	CodeFailedInit:          "failed initialization",
	CodeURLMalformat:        "url using bad/illegal format",
	CodeCouldntResolveHost:  "could not resolve host name",
	CodeCouldntConnect:      "could not connect to server",
	CodeGotNothing:          "server returned nothing",
	CodeWriteError:          "failed writing received data",
	CodeOperationTimedOut:   "timeout was reached",
	CodeTooManyRedirects:    "number of redirects hit maximum amount",
	CodeRecvError:           "failure when receiving data from the peer",
	CodeAbortedByCallback:   "operation was aborted by an application callback",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown result %d", int(c))
}

// ErrorSize bounds the error text kept per transfer, terminator included.
const ErrorSize = 256

var (
	ErrHandleNotAdded      = errors.New("engine: handle is not attached to this multi")
	ErrHandleBusy          = errors.New("engine: handle is already attached to a multi")
	ErrHandleClosed        = errors.New("engine: handle has been cleaned up")
	ErrMultiClosed         = errors.New("engine: multi handle is closed")
	ErrNotInitialized      = errors.New("engine: GlobalInit has not been called")
	ErrUnsupportedPlatform = errors.New("engine: non-blocking pipes are not supported on this platform")
)

// TransferError is a failed transfer. Use errors.As to extract it.
type TransferError struct {
	// Code classifies the failure.
	Code Code
	// Op is the phase that failed (e.g., "request", "receive", "write").
	Op string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
// Format: "op: code: cause"
func (e *TransferError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap returns the underlying cause.
func (e *TransferError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the Code carried by err: CodeOK for nil, the TransferError's
// code when present, and a classification of err otherwise.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var te *TransferError
	if errors.As(err, &te) {
		return te.Code
	}
	return classify(err)
}

// classify maps a net/http client error onto a Code.
func classify(err error) Code {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var urlErr *url.Error
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return CodeOperationTimedOut
	case errors.Is(err, ErrTooManyRedirects), errors.Is(err, ErrCrossProtocolRedirect):
		return CodeTooManyRedirects
	case errors.Is(err, context.Canceled), errors.Is(err, syscall.EPIPE):
		return CodeAbortedByCallback
	case errors.Is(err, io.EOF):
		return CodeGotNothing
	case errors.As(err, &dnsErr):
		return CodeCouldntResolveHost
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return CodeCouldntConnect
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return CodeOperationTimedOut
	}
	return CodeRecvError
}

// truncateError bounds s to ErrorSize-1 bytes.
func truncateError(s string) string {
	if len(s) >= ErrorSize {
		return s[:ErrorSize-1]
	}
	return s
}
