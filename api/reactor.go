// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for the readiness multiplexer used by the
// server loop (epoll on Linux, scripted fakes in tests).

package api

// Multiplexer waits for readiness across many handles at once.
// Semantics are level-triggered: a handle is reported again on every wait
// while data or buffer space remains.
type Multiplexer interface {
	// WaitReady blocks until at least one handle in interests is ready or
	// Wake is called, then appends the ready handles to out. Handles missing
	// from interests are no longer watched after the call. An interrupted
	// wait returns an empty result and a nil error.
	WaitReady(interests []Interest, out []Ready) ([]Ready, error)

	// Forget drops any registration kept for h. Call it before closing h so
	// a recycled descriptor number starts from a clean state.
	Forget(h Handle)

	// Wake makes a blocked or the next WaitReady return promptly. Safe to
	// call from any goroutine.
	Wake() error

	// Close must cleanup the internal poller backend.
	Close() error
}
