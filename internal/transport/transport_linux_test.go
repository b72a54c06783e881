//go:build linux

package transport_test

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/internal/transport"
)

// acceptWithin polls the non-blocking Accept until a connection shows up.
func acceptWithin(t *testing.T, tr *transport.TCP, l api.Handle) (api.Handle, string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h, peer, err := tr.Accept(l)
		if err == nil {
			return h, peer
		}
		require.ErrorIs(t, err, api.ErrWouldBlock)
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return api.InvalidHandle, ""
}

func TestTCP_ListenAcceptReadWrite(t *testing.T) {
	tr := transport.New(transport.WithBacklog(8))
	l, err := tr.Listen(0)
	require.NoError(t, err)
	defer tr.Close(l)

	_, _, err = tr.Accept(l)
	require.ErrorIs(t, err, api.ErrWouldBlock)

	port, err := tr.LocalPort(l)
	require.NoError(t, err)
	require.NotZero(t, port)

	client, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer client.Close()

	h, peer := acceptWithin(t, tr, l)
	defer tr.Close(h)
	assert.Contains(t, peer, "127.0.0.1:")

	buf := make([]byte, 16)
	_, err = tr.Read(h, buf)
	require.ErrorIs(t, err, api.ErrWouldBlock)

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)
	var n int
	require.Eventually(t, func() bool {
		n, err = tr.Read(h, buf)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "ping", string(buf[:n]))

	n, err = tr.Write(h, []byte("pong"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	got := make([]byte, 4)
	_, err = client.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(got))

	require.NoError(t, client.Close())
	require.Eventually(t, func() bool {
		n, err = tr.Read(h, buf)
		return err == nil && n == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestTCP_ListenInvalidPort(t *testing.T) {
	tr := transport.New()
	_, err := tr.Listen(70000)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestTCP_BindConflict(t *testing.T) {
	tr := transport.New(transport.WithReuseAddr(false))
	l, err := tr.Listen(0)
	require.NoError(t, err)
	defer tr.Close(l)
	port, err := tr.LocalPort(l)
	require.NoError(t, err)

	_, err = tr.Listen(port)
	require.Error(t, err)
	assert.False(t, errors.Is(err, api.ErrWouldBlock))
}
