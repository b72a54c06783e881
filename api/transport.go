// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Socket capability set consumed by the connection pool and the readiness
// loop. Every handle produced here is non-blocking.

package api

// Transport abstracts the raw socket syscalls.
type Transport interface {
	// Listen binds a TCP listening endpoint on port and returns its handle.
	Listen(port int) (Handle, error)

	// Accept takes one pending connection from l. It returns ErrWouldBlock
	// when nothing is pending. The string is the peer address, for logging.
	Accept(l Handle) (Handle, string, error)

	// Read reads at most len(buf) bytes. n == 0 with a nil error means the
	// peer closed. ErrWouldBlock means no data is available yet.
	Read(h Handle, buf []byte) (n int, err error)

	// Write writes as much of p as the socket accepts. A short count with a
	// nil error, or ErrWouldBlock, means the send buffer is full.
	Write(h Handle, p []byte) (n int, err error)

	// Close releases the handle.
	Close(h Handle) error
}
