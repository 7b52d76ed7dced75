package engine

import (
	"net/http"
	"sync"
)

// Process-wide engine state: the shared transport and its reference count.
var global struct {
	mu        sync.Mutex
	refs      int
	transport *http.Transport
}

// GlobalInit acquires the process-wide engine state, creating it on the first
// call. Every successful GlobalInit must be paired with one GlobalCleanup.
// Init and cleanup must not race with Multi construction on other goroutines.
func GlobalInit() error {
	if err := pipeSupported(); err != nil {
		return err
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.refs == 0 {
		global.transport = newTransport()
	}
	global.refs++
	return nil
}

// GlobalCleanup releases one reference. The last release drops pooled
// connections.
func GlobalCleanup() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.refs == 0 {
		return
	}
	global.refs--
	if global.refs == 0 {
		global.transport.CloseIdleConnections()
		global.transport = nil
	}
}

func sharedTransport() (*http.Transport, error) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.transport == nil {
		return nil, ErrNotInitialized
	}
	return global.transport, nil
}

func newTransport() *http.Transport {
	return http.DefaultTransport.(*http.Transport).Clone()
}
