// File: api/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named state probes read when the relay shuts down or is inspected.

package api

// Debug collects named probes and evaluates them on demand. Probes may be
// evaluated from any goroutine, so they must only read concurrency-safe state.
type Debug interface {
	// DumpState evaluates every probe and returns the results by name.
	DumpState() map[string]any

	// RegisterProbe adds fn under name, replacing an earlier probe of the
	// same name.
	RegisterProbe(name string, fn func() any)
}
