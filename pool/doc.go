// Package pool
// Author: momentics <momentics@gmail.com>
//
// Connection pool for the broadcast relay: the registry of live connections,
// the read/write interest sets handed to the multiplexer, and the per-connection
// outbound chunk queues.
//
// A Pool is owned by a single event loop goroutine and performs no locking.
// See pool.go for the registry, queue.go for flow-controlled writes.
package pool
