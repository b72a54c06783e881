// File: server/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One cycle of the readiness loop: wait, then dispatch in handle order.

package server

import (
	"errors"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/pool"
)

// Step runs one wait-and-dispatch cycle. The only error it returns is a
// failed readiness wait, which wraps api.ErrMultiplexFailed.
func (s *Server) Step() error {
	s.setState(Waiting)
	s.interests = s.pool.AppendInterests(s.interests[:0])
	s.log.Debug().Int("handles", len(s.interests)).Log("waiting")

	ready, err := s.mux.WaitReady(s.interests, s.ready[:0])
	if err != nil {
		if !errors.Is(err, api.ErrMultiplexFailed) {
			err = api.NewError(api.ErrCodeMultiplexFailed, "wait").WithCause(err)
		}
		return err
	}
	s.ready = ready

	s.setState(Dispatching)
	s.metrics.Add(control.MetricCycles, 1)
	s.dispatch(ready)
	return nil
}

// dispatch services ready handles in ascending order. Anything that is not
// the listener or a live connection, such as a handle removed earlier in the
// pass, is skipped.
func (s *Server) dispatch(ready []api.Ready) {
	listener := s.pool.Listener()
	for _, r := range ready {
		if r.Handle == listener {
			if r.Readable {
				s.accept()
			}
			continue
		}
		c, err := s.pool.Lookup(r.Handle)
		if err != nil {
			continue
		}
		if r.Readable && !s.read(c) {
			continue
		}
		if r.Writable {
			s.flush(c)
		}
	}
}

// accept admits one pending connection. Failures never stop the loop.
func (s *Server) accept() {
	h, peer, err := s.tr.Accept(s.pool.Listener())
	switch {
	case errors.Is(err, api.ErrWouldBlock):
		return
	case err != nil:
		s.metrics.Add(control.MetricAcceptFailures, 1)
		s.log.Warning().Err(err).Log("accept failed")
		return
	}

	id, err := s.pool.Admit(h, peer)
	if err != nil {
		s.metrics.Add(control.MetricRejected, 1)
		s.log.Warning().Int("fd", int(h)).Str("peer", peer).Err(err).Log("connection refused")
		// an already registered handle belongs to a live connection
		if !errors.Is(err, api.ErrAlreadyExists) {
			if cerr := s.tr.Close(h); cerr != nil {
				s.log.Warning().Int("fd", int(h)).Err(cerr).Log("close refused connection")
			}
		}
		return
	}

	c, _ := s.pool.Lookup(id)
	s.metrics.Add(control.MetricAccepted, 1)
	s.metrics.Set(control.MetricActive, int64(s.pool.Len()))
	s.log.Info().
		Int("fd", int(id)).
		Str("session", c.Session.String()).
		Str("peer", peer).
		Int("connections", s.pool.Len()).
		Log("new incoming connection")
}

// read consumes one chunk from c and relays it. It reports whether c is
// still registered.
func (s *Server) read(c *pool.Connection) bool {
	n, err := s.tr.Read(c.Handle, s.buf)
	switch {
	case errors.Is(err, api.ErrWouldBlock):
		return true
	case err != nil:
		s.drop(c, err)
		return false
	case n == 0:
		s.drop(c, api.ErrPeerClosed)
		return false
	}

	c.BytesIn += uint64(n)
	s.metrics.Add(control.MetricBytesIn, int64(n))
	s.metrics.Add(control.MetricChunksIn, 1)
	peers := s.Broadcast(c.Handle, s.buf[:n])
	s.log.Debug().
		Int("fd", int(c.Handle)).
		Int("bytes", n).
		Int("peers", peers).
		Log("bytes read")
	return true
}

// flush drains c's outbound queue, dropping c on a hard write error.
func (s *Server) flush(c *pool.Connection) {
	before := c.BytesOut
	outcome, err := s.pool.DrainWritable(c.Handle)
	if sent := c.BytesOut - before; sent > 0 {
		s.metrics.Add(control.MetricBytesOut, int64(sent))
	}
	if outcome == api.WriteFailed {
		s.metrics.Add(control.MetricWriteFailures, 1)
		s.drop(c, err)
		return
	}
	s.log.Debug().
		Int("fd", int(c.Handle)).
		Uint64("bytes", c.BytesOut-before).
		Str("outcome", outcome.String()).
		Log("drained")
}

// drop unregisters c from the multiplexer before its handle is closed, so a
// recycled descriptor starts with a clean registration.
func (s *Server) drop(c *pool.Connection, reason error) {
	h, session := c.Handle, c.Session.String()
	s.mux.Forget(h)
	err := s.pool.Remove(h)
	s.metrics.Add(control.MetricClosed, 1)
	s.metrics.Set(control.MetricActive, int64(s.pool.Len()))

	if errors.Is(reason, api.ErrPeerClosed) {
		s.log.Info().Int("fd", int(h)).Str("session", session).Log("connection closed by peer")
	} else {
		s.log.Warning().Int("fd", int(h)).Str("session", session).Err(reason).Log("connection dropped")
	}
	if err != nil {
		s.log.Warning().Int("fd", int(h)).Err(err).Log("close")
	}
}
