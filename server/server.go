// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server construction, lifecycle and teardown.

package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-chat/affinity"
	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/pool"
)

// ErrAlreadyRunning is returned by Run when the loop was started before.
var ErrAlreadyRunning = errors.New("server already running")

// Server relays every chunk read from one client to all other clients.
type Server struct {
	cfg *control.Config
	tr  api.Transport
	mux api.Multiplexer

	pool    *pool.Pool
	log     *control.Logger
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes

	// loop-owned scratch space
	buf       []byte
	interests []api.Interest
	ready     []api.Ready

	state     atomic.Int32
	stop      atomic.Bool
	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ api.GracefulShutdown = (*Server)(nil)

// New opens the listening endpoint on cfg.Port through tr and builds the
// connection pool. The server takes ownership of mux.
func New(cfg *control.Config, tr api.Transport, mux api.Multiplexer, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if tr == nil || mux == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "server requires a transport and a multiplexer")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "listen port out of range").
			WithContext("port", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrInvalidArgument, err)
	}

	s := &Server{
		cfg:     cfg,
		tr:      tr,
		mux:     mux,
		metrics: control.NewMetricsRegistry(),
		buf:     make([]byte, cfg.ReadBufferSize),
	}
	for _, o := range opts {
		o(s)
	}
	if s.debug == nil {
		s.debug = control.NewDebugProbes()
	}

	l, err := tr.Listen(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	s.pool = pool.New(tr, l, pool.WithMaxConnections(cfg.MaxConnections))

	s.debug.RegisterProbe("server.state", func() any { return s.State().String() })
	s.debug.RegisterProbe("server.metrics", func() any { return s.metrics.GetSnapshot() })

	s.log.Info().
		Int("port", cfg.Port).
		Int("fd", int(l)).
		Int("max_connections", cfg.MaxConnections).
		Log("listening")
	return s, nil
}

// Pool returns the connection pool. It is owned by the loop goroutine.
func (s *Server) Pool() *pool.Pool { return s.pool }

// Metrics returns the server counters.
func (s *Server) Metrics() *control.MetricsRegistry { return s.metrics }

// Debug returns the probe registry.
func (s *Server) Debug() *control.DebugProbes { return s.debug }

// State returns the current loop state. Safe from any goroutine.
func (s *Server) State() LoopState { return LoopState(s.state.Load()) }

func (s *Server) setState(st LoopState) { s.state.Store(int32(st)) }

// Run drives the readiness loop until Shutdown is called or the multiplexer
// fails, then closes every connection, the listener and the multiplexer.
// Queued outbound data is discarded.
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if cpu, ok := s.cfg.PinnedCPU(); ok {
		release, err := affinity.Pin(cpu)
		if err != nil {
			s.log.Warning().Int("cpu", cpu).Err(err).Log("cpu pinning skipped")
		} else {
			defer release()
			s.log.Info().Int("cpu", cpu).Log("loop pinned")
		}
	}

	var err error
	for !s.stop.Load() {
		if err = s.Step(); err != nil {
			s.log.Err().Err(err).Log("readiness wait failed")
			break
		}
	}
	if cerr := s.Close(); cerr != nil {
		s.log.Warning().Err(cerr).Log("teardown")
	}
	return err
}

// Shutdown requests the loop to stop after the current cycle. Safe from any
// goroutine, including signal handlers.
func (s *Server) Shutdown() error {
	s.stop.Store(true)
	return s.mux.Wake()
}

// Close releases every connection, the listener and the multiplexer. It is
// idempotent and must not run concurrently with Step.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		stats := s.pool.Stats()
		s.log.Info().
			Int("connections", stats.Connections).
			Int("queued_chunks", stats.QueuedChunks).
			Int("queued_bytes", stats.QueuedBytes).
			Log("shutting down")

		s.closeErr = errors.Join(s.pool.Close(), s.mux.Close())
		s.metrics.Set(control.MetricActive, 0)
		s.setState(Stopped)

		if b := s.log.Debug(); b != nil {
			b.Any("probes", s.debug.DumpState()).Log("final state")
		}
		s.log.Info().Log("server stopped")
	})
	return s.closeErr
}
