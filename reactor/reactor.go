// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral construction options for the readiness multiplexer.

package reactor

// DefaultMaxEvents is the number of readiness events fetched per wait.
const DefaultMaxEvents = 128

func normalizeMaxEvents(n int) int {
	if n <= 0 {
		return DefaultMaxEvents
	}
	return n
}
