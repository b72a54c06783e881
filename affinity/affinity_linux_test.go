//go:build linux
// +build linux

// File: affinity/affinity_linux_test.go
// Author: momentics <momentics@gmail.com>

package affinity_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-chat/affinity"
	"github.com/momentics/hioload-chat/api"
)

func firstAllowedCPU(t *testing.T) (int, int) {
	t.Helper()
	var set unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &set))
	for i := 0; i <= affinity.MaxCPU; i++ {
		if set.IsSet(i) {
			return i, set.Count()
		}
	}
	t.Fatal("empty affinity mask")
	return 0, 0
}

func TestPin_RestoresMask(t *testing.T) {
	// keep the test goroutine on one thread across release
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cpu, before := firstAllowedCPU(t)
	release, err := affinity.Pin(cpu)
	require.NoError(t, err)

	var set unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &set))
	assert.Equal(t, 1, set.Count())
	assert.True(t, set.IsSet(cpu))

	release()
	require.NoError(t, unix.SchedGetaffinity(0, &set))
	assert.Equal(t, before, set.Count())
}

func TestSetAffinity_OutOfRange(t *testing.T) {
	assert.ErrorIs(t, affinity.SetAffinity(-1), api.ErrInvalidArgument)
	assert.ErrorIs(t, affinity.SetAffinity(affinity.MaxCPU+1), api.ErrInvalidArgument)
}
