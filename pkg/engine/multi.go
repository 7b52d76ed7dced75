package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/eapache/queue"
	"github.com/warpdl/murl/pkg/logger"
)

// Poll is the readiness a transfer asks the caller to watch on a descriptor.
type Poll int

const (
	PollNone   Poll = 0
	PollIn     Poll = 1
	PollOut    Poll = 2
	PollInOut  Poll = 3
	PollRemove Poll = 4
)

// Action is the readiness the caller observed on a descriptor.
type Action int

const (
	ActionIn  Action = 1
	ActionOut Action = 2
	ActionErr Action = 4
)

// SocketTimeout is the descriptor passed to SocketAction to run timers only.
const SocketTimeout = -1

// NoTimer is passed to a TimerFunc when no transfer needs a wake-up.
const NoTimer time.Duration = -1

// maxReadsPerAction bounds how many chunks one SocketAction drains from a
// descriptor before yielding to the others.
const maxReadsPerAction = 16

var errWouldBlock = errors.New("engine: would block")

type (
	// SocketFunc is told which descriptors to watch. assoc is whatever the
	// caller attached with Assign, nil for a descriptor seen the first time.
	SocketFunc func(e *Easy, fd int, what Poll, assoc interface{})
	// TimerFunc receives the longest the caller may wait before calling
	// SocketAction(SocketTimeout, 0). Zero means now, NoTimer means no deadline.
	TimerFunc func(timeout time.Duration)
)

// Message reports a finished transfer.
type Message struct {
	Easy   *Easy
	Result Code
}

// MultiOpts configures a Multi. The zero value is usable.
type MultiOpts struct {
	// UserAgent is sent by handles that do not set their own.
	UserAgent string
	// MaxRedirects is the redirect hop limit. Zero delivers 3xx responses as-is.
	MaxRedirects int
	// Proxy routes all transfers through an http, https or socks5 proxy.
	Proxy string
	// ChunkSize is the read size used when draining a transfer. Defaults to 16 KiB.
	ChunkSize int
	// Logger receives worker panics and transfer tracing. Defaults to a NopLogger.
	Logger logger.Logger
}

// outcome is what a worker reports when it stops writing.
type outcome struct {
	code   Code
	err    error
	status int
}

// transfer is the running state of an attached Easy.
type transfer struct {
	easy     *Easy
	fd       int
	assoc    interface{}
	cancel   context.CancelFunc
	started  time.Time
	deadline time.Time
	received int64
	done     chan outcome
}

func (t *transfer) setTimeout(d time.Duration) {
	if d <= 0 {
		t.deadline = time.Time{}
		return
	}
	t.deadline = t.started.Add(d)
}

// Multi drives a set of transfers through caller-owned readiness polling.
type Multi struct {
	opts     MultiOpts
	client   *http.Client
	ownTrans *http.Transport
	log      logger.Logger

	socketFn SocketFunc
	timerFn  TimerFunc

	handles map[*Easy]struct{}
	pending []*Easy
	running map[int]*transfer
	msgs    *queue.Queue
	chunk   []byte
	closed  bool
}

// NewMulti creates a multiplex handle. GlobalInit must have been called.
func NewMulti(opts *MultiOpts) (*Multi, error) {
	if opts == nil {
		opts = &MultiOpts{}
	}
	transport, err := sharedTransport()
	if err != nil {
		return nil, err
	}
	m := &Multi{
		opts:    *opts,
		log:     opts.Logger,
		handles: make(map[*Easy]struct{}),
		running: make(map[int]*transfer),
		msgs:    queue.New(),
	}
	if m.log == nil {
		m.log = logger.NewNopLogger()
	}
	if m.opts.ChunkSize <= 0 {
		m.opts.ChunkSize = defaultChunkSize
	}
	m.chunk = make([]byte, m.opts.ChunkSize)
	if opts.Proxy != "" {
		m.ownTrans = newTransport()
		if err := applyProxy(m.ownTrans, opts.Proxy); err != nil {
			return nil, fmt.Errorf("proxy %q: %w", opts.Proxy, err)
		}
		transport = m.ownTrans
	}
	m.client = &http.Client{
		Transport:     transport,
		CheckRedirect: RedirectPolicy(opts.MaxRedirects),
	}
	return m, nil
}

// SetSocketFunc installs the descriptor-interest callback.
func (m *Multi) SetSocketFunc(fn SocketFunc) { m.socketFn = fn }

// SetTimerFunc installs the wake-up callback.
func (m *Multi) SetTimerFunc(fn TimerFunc) { m.timerFn = fn }

// Assign attaches assoc to a live descriptor; later SocketFunc calls for fd
// carry it.
func (m *Multi) Assign(fd int, assoc interface{}) error {
	t, ok := m.running[fd]
	if !ok {
		return fmt.Errorf("engine: assign: descriptor %d is not live", fd)
	}
	t.assoc = assoc
	return nil
}

// AddHandle attaches e. The transfer starts on the next SocketAction.
func (m *Multi) AddHandle(e *Easy) error {
	switch {
	case m.closed:
		return ErrMultiClosed
	case e.closed:
		return ErrHandleClosed
	case e.multi != nil:
		return ErrHandleBusy
	}
	e.multi = m
	e.result = CodeOK
	e.errText = ""
	e.respCode = 0
	m.handles[e] = struct{}{}
	m.pending = append(m.pending, e)
	m.setTimer(0)
	return nil
}

// RemoveHandle detaches e, aborting it if it is still running. Messages
// already queued for e are dropped.
func (m *Multi) RemoveHandle(e *Easy) error {
	if _, ok := m.handles[e]; !ok {
		return ErrHandleNotAdded
	}
	delete(m.handles, e)
	for i, p := range m.pending {
		if p == e {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	if e.xfer != nil {
		m.release(e.xfer)
	}
	m.dropMessages(e)
	e.multi = nil
	return nil
}

// SocketAction processes readiness on fd, or runs timers when fd is
// SocketTimeout, and returns the number of transfers still running.
func (m *Multi) SocketAction(fd int, action Action) (int, error) {
	if m.closed {
		return 0, ErrMultiClosed
	}
	if fd == SocketTimeout {
		m.startPending()
	} else if t, ok := m.running[fd]; ok {
		m.drain(t)
	}
	m.expire(time.Now())
	m.updateTimer()
	return m.Running(), nil
}

// Running is the number of attached transfers that have not finished.
func (m *Multi) Running() int {
	return len(m.pending) + len(m.running)
}

// InfoRead pops the next finished-transfer message and reports how many
// remain queued. It returns nil when the queue is empty.
func (m *Multi) InfoRead() (*Message, int) {
	if m.msgs.Length() == 0 {
		return nil, 0
	}
	msg := m.msgs.Remove().(*Message)
	return msg, m.msgs.Length()
}

// Close detaches every handle and releases the Multi's own transport.
func (m *Multi) Close() error {
	if m.closed {
		return nil
	}
	for e := range m.handles {
		_ = m.RemoveHandle(e)
	}
	if m.ownTrans != nil {
		m.ownTrans.CloseIdleConnections()
	}
	m.closed = true
	return nil
}

func (m *Multi) startPending() {
	pending := m.pending
	m.pending = nil
	for _, e := range pending {
		m.start(e)
	}
}

func (m *Multi) start(e *Easy) {
	now := time.Now()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if e.timeout > 0 {
		ctx, cancel = context.WithDeadline(context.Background(), now.Add(e.timeout))
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	req, err := e.newRequest(ctx, m.opts.UserAgent)
	if err != nil {
		cancel()
		m.complete(e, CodeOf(err), err.Error())
		return
	}
	fd, w, err := openPipe()
	if err != nil {
		cancel()
		m.complete(e, CodeFailedInit, err.Error())
		return
	}
	t := &transfer{
		easy:    e,
		fd:      fd,
		cancel:  cancel,
		started: now,
		done:    make(chan outcome, 1),
	}
	t.setTimeout(e.timeout)
	e.xfer = t
	m.running[fd] = t
	m.log.Debug("engine: start %s on fd %d", e.url, fd)

	done := t.done
	safeGo(m.log, "transfer "+e.url, func(r interface{}) {
		select {
		case done <- outcome{code: CodeAbortedByCallback, err: fmt.Errorf("worker panic: %v", r)}:
		default:
		}
	}, func() {
		work(m.client, req, w, done)
	})
	if m.socketFn != nil {
		m.socketFn(e, fd, PollIn, nil)
	}
}

// work performs req and streams the body into w. The outcome is sent before
// w is closed so the reader always finds it after EOF.
func work(client *http.Client, req *http.Request, w *os.File, done chan<- outcome) {
	defer w.Close()
	resp, err := client.Do(req)
	if err != nil {
		done <- outcome{code: classify(err), err: err}
		return
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	done <- outcome{code: classify(err), err: err, status: resp.StatusCode}
}

// drain moves what the worker produced into the handle's write function.
func (m *Multi) drain(t *transfer) {
	e := t.easy
	for i := 0; i < maxReadsPerAction; i++ {
		n, err := readPipe(t.fd, m.chunk)
		switch {
		case err == errWouldBlock:
			return
		case err == io.EOF:
			o := <-t.done
			e.respCode = o.status
			msg := ""
			if o.err != nil {
				msg = o.err.Error()
			}
			m.finish(t, o.code, msg)
			return
		case err != nil:
			m.finish(t, CodeRecvError, err.Error())
			return
		}
		t.received += int64(n)
		if e.write != nil && e.write(m.chunk[:n]) != n {
			m.finish(t, CodeWriteError, errShortWrite.Error())
			return
		}
	}
}

func (m *Multi) expire(now time.Time) {
	for _, t := range m.running {
		if t.deadline.IsZero() || now.Before(t.deadline) {
			continue
		}
		m.finish(t, CodeOperationTimedOut, fmt.Sprintf(
			"operation timed out after %d milliseconds with %d bytes received",
			now.Sub(t.started).Milliseconds(), t.received))
	}
}

// release stops a running transfer and retires its descriptor.
func (m *Multi) release(t *transfer) {
	delete(m.running, t.fd)
	t.cancel()
	if m.socketFn != nil {
		m.socketFn(t.easy, t.fd, PollRemove, t.assoc)
	}
	if err := closePipe(t.fd); err != nil {
		m.log.Warning("engine: close fd %d: %v", t.fd, err)
	}
	t.easy.xfer = nil
}

func (m *Multi) finish(t *transfer, code Code, msg string) {
	m.release(t)
	m.complete(t.easy, code, msg)
}

func (m *Multi) complete(e *Easy, code Code, msg string) {
	e.result = code
	if code != CodeOK {
		if msg == "" {
			msg = code.String()
		}
		e.setError("%s", msg)
	}
	m.log.Debug("engine: done %s: %s", e.url, code)
	m.msgs.Add(&Message{Easy: e, Result: code})
}

func (m *Multi) dropMessages(e *Easy) {
	for n := m.msgs.Length(); n > 0; n-- {
		msg := m.msgs.Remove().(*Message)
		if msg.Easy != e {
			m.msgs.Add(msg)
		}
	}
}

// updateTimer reports the nearest deadline among running transfers.
func (m *Multi) updateTimer() {
	if len(m.pending) > 0 {
		m.setTimer(0)
		return
	}
	next := NoTimer
	now := time.Now()
	for _, t := range m.running {
		if t.deadline.IsZero() {
			continue
		}
		d := t.deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if next == NoTimer || d < next {
			next = d
		}
	}
	if next > 0 {
		// Round up so a sub-millisecond remainder does not become a busy wait.
		next = (next + time.Millisecond - 1).Truncate(time.Millisecond)
	}
	m.setTimer(next)
}

func (m *Multi) setTimer(d time.Duration) {
	if m.timerFn != nil {
		m.timerFn(d)
	}
}
