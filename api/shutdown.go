// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that can be asked to stop
// from another goroutine.
type GracefulShutdown interface {
	// Shutdown requests a stop and returns without waiting for it.
	Shutdown() error
}
