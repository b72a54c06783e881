// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
//
// Connection registry: admission, removal, lookup and peer enumeration.

package pool

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/momentics/hioload-chat/api"
)

// Connection is one admitted client. It is owned by the Pool and must not be
// retained after Remove.
type Connection struct {
	Handle   api.Handle
	Session  uuid.UUID // handles get reused, sessions do not
	Peer     string
	Admitted time.Time
	BytesIn  uint64
	BytesOut uint64

	queue         *OutboundQueue
	writeInterest bool
}

// Queue returns the connection's outbound queue.
func (c *Connection) Queue() *OutboundQueue { return c.queue }

// WriteInterested reports whether the multiplexer should wait for
// writability on this connection.
func (c *Connection) WriteInterested() bool { return c.writeInterest }

// Pool tracks the listening endpoint and all live connections.
type Pool struct {
	tr        api.Transport
	listener  api.Handle
	conns     map[api.Handle]*Connection
	order     []api.Handle // registration order
	maxHandle api.Handle
	maxConns  int
	writers   int // connections with write-interest on
	closed    bool
}

// Option customizes a Pool.
type Option func(*Pool)

// WithMaxConnections caps the number of live connections. Zero means no cap.
func WithMaxConnections(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxConns = n
		}
	}
}

// New creates an empty pool around an already listening handle. Handles are
// closed through tr.
func New(tr api.Transport, listener api.Handle, opts ...Option) *Pool {
	p := &Pool{
		tr:        tr,
		listener:  listener,
		conns:     make(map[api.Handle]*Connection),
		maxHandle: listener,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Listener returns the listening handle.
func (p *Pool) Listener() api.Handle { return p.listener }

// MaxHandle returns the largest registered connection handle, or the
// listener when no connection is registered. Connection handles may be
// smaller than the listener when the kernel recycles a low descriptor.
func (p *Pool) MaxHandle() api.Handle { return p.maxHandle }

// Len returns the number of live connections.
func (p *Pool) Len() int { return len(p.conns) }

// Admit registers h as a new connection with an empty queue. The connection
// starts read-interested only.
func (p *Pool) Admit(h api.Handle, peer string) (api.ConnID, error) {
	switch {
	case p.closed:
		return api.InvalidHandle, api.ErrClosed
	case h < 0 || h == p.listener:
		return api.InvalidHandle, api.NewError(api.ErrCodeInvalidArgument, "admit").
			WithContext("fd", int(h))
	case p.maxConns > 0 && len(p.conns) >= p.maxConns:
		return api.InvalidHandle, api.NewError(api.ErrCodeResourceExhausted, "admit").
			WithContext("limit", p.maxConns)
	}
	if _, ok := p.conns[h]; ok {
		return api.InvalidHandle, api.NewError(api.ErrCodeAlreadyExists, "admit").
			WithContext("fd", int(h))
	}
	p.conns[h] = &Connection{
		Handle:   h,
		Session:  uuid.New(),
		Peer:     peer,
		Admitted: time.Now(),
		queue:    newOutboundQueue(),
	}
	p.order = append(p.order, h)
	if len(p.conns) == 1 || h > p.maxHandle {
		p.maxHandle = h
	}
	return h, nil
}

// Lookup returns the live connection for id.
func (p *Pool) Lookup(id api.ConnID) (*Connection, error) {
	c, ok := p.conns[id]
	if !ok {
		return nil, notFound(id)
	}
	return c, nil
}

// Remove deregisters id, discards its queued chunks, drops it from both
// interest sets and closes the handle. The connection is gone even when the
// close itself fails; that error is returned for logging.
func (p *Pool) Remove(id api.ConnID) error {
	c, ok := p.conns[id]
	if !ok {
		return notFound(id)
	}
	delete(p.conns, id)
	if i := slices.Index(p.order, id); i >= 0 {
		p.order = slices.Delete(p.order, i, i+1)
	}
	c.queue.release()
	p.setWriteInterest(c, false)
	if id == p.maxHandle {
		p.recomputeMax()
	}
	if err := p.tr.Close(c.Handle); err != nil {
		return fmt.Errorf("close fd %d: %w", c.Handle, err)
	}
	return nil
}

// ForEachOther yields every live connection except id, in registration order.
// Each range over the result walks a snapshot taken when the range starts and
// skips connections removed meanwhile, so it may be restarted and tolerates
// removal by the loop body.
func (p *Pool) ForEachOther(id api.ConnID) iter.Seq[api.ConnID] {
	return func(yield func(api.ConnID) bool) {
		for _, h := range slices.Clone(p.order) {
			if h == id {
				continue
			}
			if _, ok := p.conns[h]; !ok {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}
}

// Enqueue appends chunk to the tail of id's outbound queue and turns its
// write-interest on. The pool keeps chunk as is; callers must not modify it
// afterwards. Empty chunks are ignored.
func (p *Pool) Enqueue(id api.ConnID, chunk []byte) error {
	c, ok := p.conns[id]
	if !ok {
		return notFound(id)
	}
	if len(chunk) == 0 {
		return nil
	}
	c.queue.push(chunk)
	p.setWriteInterest(c, true)
	return nil
}

// DrainWritable writes id's queued chunks in FIFO order. On WriteDrained the
// queue is empty and write-interest is cleared. On WritePending the unsent
// remainder stays at the head. On WriteFailed the returned error wraps
// api.ErrWriteFailed and the connection should be removed.
func (p *Pool) DrainWritable(id api.ConnID) (api.WriteOutcome, error) {
	c, ok := p.conns[id]
	if !ok {
		return api.WriteFailed, notFound(id)
	}
	outcome, n, err := c.queue.drain(func(b []byte) (int, error) {
		return p.tr.Write(c.Handle, b)
	})
	c.BytesOut += uint64(n)
	switch outcome {
	case api.WriteDrained:
		p.setWriteInterest(c, false)
	case api.WriteFailed:
		return outcome, api.NewError(api.ErrCodeWriteFailed, "drain").
			WithContext("fd", int(c.Handle)).
			WithCause(err)
	}
	return outcome, nil
}

// QueuedChunks returns the number of chunks queued across all connections.
func (p *Pool) QueuedChunks() int {
	n := 0
	for _, c := range p.conns {
		n += c.queue.Len()
	}
	return n
}

// Stats returns a point-in-time summary.
func (p *Pool) Stats() api.PoolStats {
	s := api.PoolStats{
		Connections: len(p.conns),
		MaxHandle:   p.maxHandle,
		WriteReady:  p.writers,
	}
	for _, c := range p.conns {
		s.QueuedChunks += c.queue.Len()
		s.QueuedBytes += c.queue.Bytes()
	}
	return s
}

// Close removes every connection in registration order, then closes the
// listening handle. Queued data is discarded, not flushed.
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	var errs []error
	for _, h := range slices.Clone(p.order) {
		if err := p.Remove(h); err != nil {
			errs = append(errs, err)
		}
	}
	p.closed = true
	if err := p.tr.Close(p.listener); err != nil {
		errs = append(errs, fmt.Errorf("close listener fd %d: %w", p.listener, err))
	}
	return errors.Join(errs...)
}

func (p *Pool) setWriteInterest(c *Connection, on bool) {
	if c.writeInterest == on {
		return
	}
	c.writeInterest = on
	if on {
		p.writers++
	} else {
		p.writers--
	}
}

func (p *Pool) recomputeMax() {
	if len(p.conns) == 0 {
		p.maxHandle = p.listener
		return
	}
	p.maxHandle = api.InvalidHandle
	for h := range p.conns {
		if h > p.maxHandle {
			p.maxHandle = h
		}
	}
}

func notFound(id api.ConnID) error {
	return api.NewError(api.ErrCodeNotFound, "connection").WithContext("fd", int(id))
}
