//go:build linux

package reactor_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/reactor"
)

func socketPair(t *testing.T) (api.Handle, api.Handle) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return api.Handle(fds[0]), api.Handle(fds[1])
}

func newMux(t *testing.T) api.Multiplexer {
	t.Helper()
	m, err := reactor.New(16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestEpoll_ReadReadinessIsLevelTriggered(t *testing.T) {
	m := newMux(t)
	a, b := socketPair(t)
	_, err := unix.Write(int(b), []byte("x"))
	require.NoError(t, err)

	interests := []api.Interest{{Handle: a, Read: true}}
	for i := 0; i < 2; i++ {
		ready, err := m.WaitReady(interests, nil)
		require.NoError(t, err)
		require.Len(t, ready, 1)
		assert.Equal(t, a, ready[0].Handle)
		assert.True(t, ready[0].Readable)
		assert.False(t, ready[0].Writable)
	}
}

func TestEpoll_WriteInterestToggles(t *testing.T) {
	m := newMux(t)
	a, b := socketPair(t)

	ready, err := m.WaitReady([]api.Interest{{Handle: a, Read: true, Write: true}}, nil)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.True(t, ready[0].Writable)

	// write-interest off and nothing to read: only a wake ends the wait
	done := make(chan []api.Ready, 1)
	go func() {
		r, _ := m.WaitReady([]api.Interest{{Handle: a, Read: true}}, nil)
		done <- r
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Wake())
	select {
	case r := <-done:
		assert.Empty(t, r)
	case <-time.After(2 * time.Second):
		t.Fatal("wake did not interrupt the wait")
	}
	_ = b
}

func TestEpoll_ResultsSortedAndPeerShutdownReadable(t *testing.T) {
	m := newMux(t)
	a1, b1 := socketPair(t)
	a2, b2 := socketPair(t)
	_, err := unix.Write(int(b1), []byte("x"))
	require.NoError(t, err)
	require.NoError(t, unix.Shutdown(int(b2), unix.SHUT_WR))

	interests := []api.Interest{{Handle: a2, Read: true}, {Handle: a1, Read: true}}
	var ready []api.Ready
	require.Eventually(t, func() bool {
		ready, err = m.WaitReady(interests, ready[:0])
		return err == nil && len(ready) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Less(t, ready[0].Handle, ready[1].Handle)
	for _, r := range ready {
		assert.True(t, r.Readable)
	}
}

func TestEpoll_DroppedInterestIsUnregistered(t *testing.T) {
	m := newMux(t)
	a, b := socketPair(t)
	_, err := unix.Write(int(b), []byte("x"))
	require.NoError(t, err)

	ready, err := m.WaitReady([]api.Interest{{Handle: a, Read: true}}, nil)
	require.NoError(t, err)
	require.Len(t, ready, 1)

	require.NoError(t, m.Wake())
	ready, err = m.WaitReady(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ready)

	m.Forget(a)
}

func TestEpoll_Closed(t *testing.T) {
	m, err := reactor.New(0)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.WaitReady(nil, nil)
	assert.ErrorIs(t, err, api.ErrClosed)
	assert.ErrorIs(t, m.Wake(), api.ErrClosed)
}

func TestEpoll_WakeAfterCloseLeavesRecycledFdAlone(t *testing.T) {
	m, err := reactor.New(16)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	// descriptors just freed by Close are handed out again
	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	assert.ErrorIs(t, m.Wake(), api.ErrClosed)
	_, err = unix.Read(p[0], make([]byte, 8))
	assert.ErrorIs(t, err, unix.EAGAIN)
}

func TestEpoll_WakeRacesClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		m, err := reactor.New(16)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 4*100)
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					errs <- m.Wake()
				}
			}()
		}
		require.NoError(t, m.Close())
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil && !errors.Is(err, api.ErrClosed) {
				t.Fatalf("wake: %v", err)
			}
		}
	}
}
