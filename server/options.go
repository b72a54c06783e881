// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "github.com/momentics/hioload-chat/control"

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the structured logger. A nil logger discards everything.
func WithLogger(l *control.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(m *control.MetricsRegistry) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithDebugProbes shares a probe registry with the caller.
func WithDebugProbes(d *control.DebugProbes) ServerOption {
	return func(s *Server) {
		if d != nil {
			s.debug = d
		}
	}
}
