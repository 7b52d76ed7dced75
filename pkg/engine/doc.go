// Package engine is the HTTP transfer engine driven by murl's scheduler.
//
// The engine exposes a non-blocking, event-driven surface: a Multi holds a
// set of Easy transfer handles, announces the descriptors it wants watched
// through a SocketFunc, suggests its next wake-up through a TimerFunc, and is
// driven by SocketAction calls made when a descriptor becomes ready or the
// timer fires. Finished transfers are collected with InfoRead.
//
// Each started transfer runs net/http in a worker goroutine which streams the
// response body into a non-blocking pipe. The pipe's read end is the
// descriptor handed to the SocketFunc, so readiness multiplexing, timeouts
// and output writes all happen on the caller's goroutine while DNS, TLS,
// redirects and connection reuse stay inside net/http.
//
// A Multi and its Easy handles are not safe for concurrent use.
package engine
