// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_other.go) guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-chat/api"
)

// MaxCPU is the highest CPU index a mask can hold.
const MaxCPU = 1023

// SetAffinity pins current OS thread to a given logical CPU/core on supported platforms.
// The caller must hold runtime.LockOSThread for the pin to stick to its goroutine.
func SetAffinity(cpuID int) error {
	if cpuID < 0 || cpuID > MaxCPU {
		return fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrInvalidArgument)
	}
	return setAffinityPlatform(cpuID)
}

// Pin locks the calling goroutine to its OS thread and binds that thread to
// cpuID. The returned release restores the previous mask and unlocks the
// thread; it must run on the same goroutine.
func Pin(cpuID int) (release func(), err error) {
	runtime.LockOSThread()
	restore, err := saveAffinityPlatform()
	if err == nil {
		err = SetAffinity(cpuID)
	}
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		restore()
		runtime.UnlockOSThread()
	}, nil
}
