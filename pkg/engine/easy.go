package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// WriteFunc receives response body bytes. It returns the number of bytes it
// accepted; anything short of len(p) fails the transfer with CodeWriteError.
type WriteFunc func(p []byte) int

// DefaultUserAgent is sent when neither the Multi nor the Easy sets one.
const DefaultUserAgent = "murl/1.0"

const defaultChunkSize = 16 * 1024

// Easy is a single transfer handle. It is reusable: Reset clears its options
// so it can carry another transfer; Cleanup retires it.
type Easy struct {
	url       string
	cookie    string
	userAgent string
	timeout   time.Duration
	write     WriteFunc
	private   interface{}

	errText  string
	respCode int
	result   Code

	multi  *Multi
	xfer   *transfer
	closed bool
}

// NewEasy returns an empty transfer handle.
func NewEasy() *Easy {
	return &Easy{}
}

func (e *Easy) SetURL(u string)           { e.url = u }
func (e *Easy) SetCookie(c string)        { e.cookie = c }
func (e *Easy) SetUserAgent(ua string)    { e.userAgent = ua }
func (e *Easy) SetWriteFunc(fn WriteFunc) { e.write = fn }
func (e *Easy) SetPrivate(p interface{})  { e.private = p }
func (e *Easy) Private() interface{}      { return e.private }
func (e *Easy) URL() string               { return e.url }
func (e *Easy) Timeout() time.Duration    { return e.timeout }
func (e *Easy) ResponseCode() int         { return e.respCode }
func (e *Easy) Result() Code              { return e.result }

// ErrorText returns the last failure description, at most ErrorSize-1 bytes.
func (e *Easy) ErrorText() string { return e.errText }

// SetTimeout bounds the whole transfer. Zero means no limit. On a transfer
// that is already running the new limit is measured from its start.
func (e *Easy) SetTimeout(d time.Duration) {
	e.timeout = d
	if e.xfer != nil {
		e.xfer.setTimeout(d)
	}
}

func (e *Easy) setError(format string, args ...interface{}) {
	e.errText = truncateError(fmt.Sprintf(format, args...))
}

// Reset clears every option and result while keeping the handle alive.
// A handle still attached to a Multi keeps its attachment.
func (e *Easy) Reset() {
	e.url = ""
	e.cookie = ""
	e.userAgent = ""
	e.timeout = 0
	e.write = nil
	e.private = nil
	e.errText = ""
	e.respCode = 0
	e.result = CodeOK
}

// Cleanup detaches the handle from its Multi, if any, and retires it.
func (e *Easy) Cleanup() {
	if e.closed {
		return
	}
	if e.multi != nil {
		_ = e.multi.RemoveHandle(e)
	}
	e.Reset()
	e.closed = true
}

// newRequest validates the handle's URL and builds the GET request.
func (e *Easy) newRequest(ctx context.Context, defaultUA string) (*http.Request, error) {
	u, err := url.Parse(e.url)
	if err != nil || u.Host == "" {
		if err == nil {
			err = errors.New("no host part in the url")
		}
		return nil, &TransferError{Code: CodeURLMalformat, Op: "request", Cause: err}
	}
	if !isHTTPScheme(u.Scheme) {
		return nil, &TransferError{
			Code:  CodeUnsupportedProtocol,
			Op:    "request",
			Cause: fmt.Errorf("protocol %q not supported", u.Scheme),
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransferError{Code: CodeURLMalformat, Op: "request", Cause: err}
	}
	ua := e.userAgent
	if ua == "" {
		ua = defaultUA
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	if e.cookie != "" {
		req.Header.Set("Cookie", e.cookie)
	}
	return req, nil
}

// Perform runs the transfer synchronously on the calling goroutine, outside
// any Multi. The handle's timeout bounds the call in addition to ctx.
func (e *Easy) Perform(ctx context.Context) error {
	if e.closed {
		return ErrHandleClosed
	}
	if e.multi != nil {
		return ErrHandleBusy
	}
	e.errText = ""
	e.respCode = 0
	err := e.perform(ctx)
	e.result = CodeOf(err)
	if err != nil {
		e.setError("%s", err.Error())
	}
	return err
}

func (e *Easy) perform(ctx context.Context) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	req, err := e.newRequest(ctx, "")
	if err != nil {
		return err
	}
	transport, err := sharedTransport()
	if err != nil {
		transport = http.DefaultTransport.(*http.Transport)
	}
	client := &http.Client{Transport: transport, CheckRedirect: RedirectPolicy(0)}
	resp, err := client.Do(req)
	if err != nil {
		return &TransferError{Code: classify(err), Op: "request", Cause: err}
	}
	defer resp.Body.Close()
	e.respCode = resp.StatusCode

	buf := make([]byte, defaultChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 && e.write != nil && e.write(buf[:n]) != n {
			return &TransferError{Code: CodeWriteError, Op: "write", Cause: errShortWrite}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &TransferError{Code: classify(rerr), Op: "receive", Cause: rerr}
		}
	}
}

var errShortWrite = errors.New("failure writing output to destination")
