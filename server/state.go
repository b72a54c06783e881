// File: server/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

// LoopState is the phase of the readiness loop.
type LoopState int32

const (
	// Idle means Run has not started yet.
	Idle LoopState = iota
	// Waiting means the loop is blocked in the multiplexer.
	Waiting
	// Dispatching means the loop is servicing ready handles.
	Dispatching
	// Stopped means the loop has exited and resources are released.
	Stopped
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Dispatching:
		return "dispatching"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
