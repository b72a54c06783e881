// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux transport over raw non-blocking sockets.

package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-chat/api"
)

// TCP implements api.Transport with IPv4 stream sockets.
type TCP struct {
	opts options
}

// New creates a TCP transport.
func New(opts ...Option) *TCP {
	return &TCP{opts: buildOptions(opts)}
}

// Listen creates a non-blocking socket bound to INADDR_ANY:port. Port 0 binds
// an ephemeral port, see LocalPort.
func (t *TCP) Listen(port int) (api.Handle, error) {
	if port < 0 || port > 65535 {
		return api.InvalidHandle, fmt.Errorf("listen port %d: %w", port, api.ErrInvalidArgument)
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return api.InvalidHandle, fmt.Errorf("socket create: %w", err)
	}
	if t.opts.reuseAddr {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			_ = unix.Close(fd)
			return api.InvalidHandle, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
		}
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		_ = unix.Close(fd)
		return api.InvalidHandle, fmt.Errorf("bind :%d: %w", port, err)
	}
	if err := unix.Listen(fd, t.opts.backlog); err != nil {
		_ = unix.Close(fd)
		return api.InvalidHandle, fmt.Errorf("listen :%d: %w", port, err)
	}
	return api.Handle(fd), nil
}

// Accept takes one pending connection. The new socket is non-blocking.
func (t *TCP) Accept(l api.Handle) (api.Handle, string, error) {
	fd, sa, err := unix.Accept4(int(l), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if wouldBlock(err) {
			return api.InvalidHandle, "", api.ErrWouldBlock
		}
		return api.InvalidHandle, "", fmt.Errorf("accept: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return api.Handle(fd), sockaddrString(sa), nil
}

// Read implements api.Transport.Read.
func (t *TCP) Read(h api.Handle, buf []byte) (int, error) {
	n, err := unix.Read(int(h), buf)
	if err != nil {
		if wouldBlock(err) {
			return 0, api.ErrWouldBlock
		}
		return 0, fmt.Errorf("read fd %d: %w", h, err)
	}
	return n, nil
}

// Write implements api.Transport.Write. MSG_NOSIGNAL keeps a reset peer
// from raising SIGPIPE.
func (t *TCP) Write(h api.Handle, p []byte) (int, error) {
	n, err := unix.SendmsgN(int(h), p, nil, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
	if err != nil {
		if wouldBlock(err) {
			return 0, api.ErrWouldBlock
		}
		return 0, fmt.Errorf("write fd %d: %w", h, err)
	}
	return n, nil
}

// Close implements api.Transport.Close.
func (t *TCP) Close(h api.Handle) error {
	return unix.Close(int(h))
}

// LocalPort returns the port a listening handle is bound to.
func (t *TCP) LocalPort(h api.Handle) (int, error) {
	sa, err := unix.Getsockname(int(h))
	if err != nil {
		return 0, fmt.Errorf("getsockname fd %d: %w", h, err)
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port, nil
	case *unix.SockaddrInet6:
		return a.Port, nil
	}
	return 0, fmt.Errorf("getsockname fd %d: %w", h, api.ErrNotSupported)
}

func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	}
	return "unknown"
}

var _ api.Transport = (*TCP)(nil)
