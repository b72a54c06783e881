// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"slices"
	"sync"

	"github.com/momentics/hioload-chat/api"
)

// Multiplexer derives level-triggered readiness from a fake Transport. It
// never blocks: with nothing ready it calls OnIdle, if set, and returns an
// empty result.
type Multiplexer struct {
	T *Transport

	// OnIdle runs when a wait finds nothing ready.
	OnIdle func()

	mu       sync.Mutex
	waitErr  error
	woken    int
	forgot   []api.Handle
	waits    int
	lastSeen []api.Interest
	closed   bool
}

// NewMultiplexer creates a Multiplexer observing t.
func NewMultiplexer(t *Transport) *Multiplexer {
	return &Multiplexer{T: t}
}

// WaitReady implements api.Multiplexer.WaitReady.
func (m *Multiplexer) WaitReady(interests []api.Interest, out []api.Ready) ([]api.Ready, error) {
	m.mu.Lock()
	m.waits++
	m.lastSeen = slices.Clone(interests)
	err := m.waitErr
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return out, api.ErrClosed
	}
	if err != nil {
		return out, err
	}
	start := len(out)
	for _, in := range interests {
		r := api.Ready{Handle: in.Handle}
		r.Readable = in.Read && m.T.readable(in.Handle)
		r.Writable = in.Write && m.T.writable(in.Handle)
		if r.Readable || r.Writable {
			out = append(out, r)
		}
	}
	slices.SortFunc(out[start:], func(a, b api.Ready) int { return int(a.Handle - b.Handle) })
	if len(out) == start && m.OnIdle != nil {
		m.OnIdle()
	}
	return out, nil
}

// Forget implements api.Multiplexer.Forget.
func (m *Multiplexer) Forget(h api.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgot = append(m.forgot, h)
}

// Forgotten returns the handles passed to Forget, in call order.
func (m *Multiplexer) Forgotten() []api.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.forgot)
}

// Wake implements api.Multiplexer.Wake.
func (m *Multiplexer) Wake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.woken++
	return nil
}

// Close implements api.Multiplexer.Close.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetWaitError makes every following WaitReady fail with err.
func (m *Multiplexer) SetWaitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitErr = err
}

// LastInterests returns the interest sets passed to the latest WaitReady.
func (m *Multiplexer) LastInterests() []api.Interest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lastSeen)
}

// Waits returns how many times WaitReady was called.
func (m *Multiplexer) Waits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waits
}

// Wakes returns how many times Wake was called.
func (m *Multiplexer) Wakes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.woken
}

// Closed reports whether Close was called.
func (m *Multiplexer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ api.Multiplexer = (*Multiplexer)(nil)
