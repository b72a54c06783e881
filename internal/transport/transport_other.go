//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"fmt"

	"github.com/momentics/hioload-chat/api"
)

// TCP is unavailable on this platform; every call fails.
type TCP struct {
	opts options
}

// New creates a TCP transport that reports api.ErrNotSupported.
func New(opts ...Option) *TCP {
	return &TCP{opts: buildOptions(opts)}
}

func unsupported(op string) error {
	return fmt.Errorf("transport %s: %w", op, api.ErrNotSupported)
}

func (t *TCP) Listen(int) (api.Handle, error) { return api.InvalidHandle, unsupported("listen") }
func (t *TCP) Accept(api.Handle) (api.Handle, string, error) {
	return api.InvalidHandle, "", unsupported("accept")
}
func (t *TCP) Read(api.Handle, []byte) (int, error)  { return 0, unsupported("read") }
func (t *TCP) Write(api.Handle, []byte) (int, error) { return 0, unsupported("write") }
func (t *TCP) Close(api.Handle) error                { return unsupported("close") }
func (t *TCP) LocalPort(api.Handle) (int, error)     { return 0, unsupported("getsockname") }

var _ api.Transport = (*TCP)(nil)
