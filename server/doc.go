// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-goroutine broadcast relay. One readiness loop owns the connection
// pool: it accepts clients, reads chunks from any of them and queues each
// chunk for every other client, draining queues as sockets become writable.
//
// The loop alternates between two states:
//   - Waiting: blocked in the multiplexer on the current interest sets
//   - Dispatching: servicing ready handles in ascending order
//
// Shutdown is requested from any goroutine and takes effect between cycles.
package server
