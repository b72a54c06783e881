// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

// Handle is an OS-level descriptor for a listening endpoint or a connection.
type Handle int

// InvalidHandle marks the absence of a descriptor.
const InvalidHandle Handle = -1

// ConnID identifies a registered connection. The handle is unique among live
// connections, so it doubles as the key.
type ConnID = Handle

// Interest describes what the multiplexer should wait for on one handle.
type Interest struct {
	Handle Handle
	Read   bool
	Write  bool
}

// Ready is one readiness notification returned by a Multiplexer.
type Ready struct {
	Handle   Handle
	Readable bool
	Writable bool
}

// WriteOutcome reports the result of draining an outbound queue.
type WriteOutcome int

const (
	// WriteDrained means the queue is empty and write-interest is off.
	WriteDrained WriteOutcome = iota
	// WritePending means the socket stopped accepting bytes; the remainder
	// stays queued and write-interest stays on.
	WritePending
	// WriteFailed means a hard write error; the connection must be torn down.
	WriteFailed
)

func (o WriteOutcome) String() string {
	switch o {
	case WriteDrained:
		return "drained"
	case WritePending:
		return "pending"
	case WriteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PoolStats provides a standard layout for connection pool reporting.
type PoolStats struct {
	Connections  int
	MaxHandle    Handle
	QueuedChunks int
	QueuedBytes  int
	WriteReady   int // connections currently write-interested
}
