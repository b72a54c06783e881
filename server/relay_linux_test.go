//go:build linux
// +build linux

// File: server/relay_linux_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// End-to-end relay over loopback TCP with the epoll backend.

package server_test

import (
	"io"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/internal/transport"
	"github.com/momentics/hioload-chat/reactor"
	"github.com/momentics/hioload-chat/server"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func dialClient(t *testing.T, port int) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readN(t *testing.T, c net.Conn, n int) []byte {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, n)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	return buf
}

func TestRelay_Loopback(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Port = freePort(t)

	mux, err := reactor.New(cfg.MaxEvents)
	require.NoError(t, err)
	logger, err := control.NewLogger(os.Stderr, "warning")
	require.NoError(t, err)
	srv, err := server.New(cfg, transport.New(transport.WithBacklog(cfg.Backlog)), mux, server.WithLogger(logger))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	a := dialClient(t, cfg.Port)
	b := dialClient(t, cfg.Port)
	c := dialClient(t, cfg.Port)
	require.Eventually(t, func() bool {
		return srv.Metrics().Get(control.MetricActive) == 3
	}, 2*time.Second, 5*time.Millisecond)

	_, err = a.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), readN(t, b, 5))
	assert.Equal(t, []byte("hello"), readN(t, c, 5))

	// the sender never hears its own bytes
	require.NoError(t, a.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err = a.Read(make([]byte, 1))
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool {
		return srv.Metrics().Get(control.MetricActive) == 2
	}, 2*time.Second, 5*time.Millisecond)

	_, err = c.Write([]byte("bye"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bye"), readN(t, a, 3))

	require.NoError(t, srv.Shutdown())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, server.Stopped, srv.State())

	// teardown closed the remaining clients
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = a.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}
