// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent options for the TCP transport.

package transport

// DefaultBacklog is the listen backlog used when none is configured.
const DefaultBacklog = 32

type options struct {
	backlog   int
	reuseAddr bool
}

// Option customizes the TCP transport.
type Option func(*options)

// WithBacklog sets the listen backlog.
func WithBacklog(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backlog = n
		}
	}
}

// WithReuseAddr toggles SO_REUSEADDR on listening sockets.
func WithReuseAddr(on bool) Option {
	return func(o *options) {
		o.reuseAddr = on
	}
}

func buildOptions(opts []Option) options {
	o := options{backlog: DefaultBacklog, reuseAddr: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
