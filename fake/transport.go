// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the socket and readiness
// capability interfaces.

package fake

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-chat/api"
)

// firstHandle mirrors a process with stdin/stdout/stderr already open.
const firstHandle api.Handle = 3

type pendingConn struct {
	h    api.Handle
	peer string
}

// Endpoint is the fake kernel state of one connected socket.
type Endpoint struct {
	inbound    [][]byte
	peerClosed bool
	readErr    error
	written    []byte
	writes     [][]byte
	writeLimit int // bytes accepted per Write call, <0 means unlimited
	blocked    bool
	writeErr   error
	closes     int
}

// Transport is a fake implementation of api.Transport for testing. Handles
// are allocated in increasing order and never reused unless Reuse is called.
type Transport struct {
	mu        sync.Mutex
	next      api.Handle
	free      []api.Handle
	listeners map[api.Handle]int // close count
	pending   []pendingConn
	eps       map[api.Handle]*Endpoint

	listenErr error
	acceptErr error
	closeErr  error
}

// NewTransport creates a new fake transport with default settings.
func NewTransport() *Transport {
	return &Transport{
		next:      firstHandle,
		listeners: make(map[api.Handle]int),
		eps:       make(map[api.Handle]*Endpoint),
	}
}

func (t *Transport) alloc() api.Handle {
	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		return h
	}
	h := t.next
	t.next++
	return h
}

// Listen implements api.Transport.Listen.
func (t *Transport) Listen(port int) (api.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listenErr != nil {
		return api.InvalidHandle, t.listenErr
	}
	h := t.alloc()
	t.listeners[h] = 0
	return h, nil
}

// Accept implements api.Transport.Accept.
func (t *Transport) Accept(l api.Handle) (api.Handle, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.listeners[l]; !ok {
		return api.InvalidHandle, "", fmt.Errorf("accept fd %d: %w", l, api.ErrNotFound)
	}
	if t.acceptErr != nil {
		err := t.acceptErr
		t.acceptErr = nil
		return api.InvalidHandle, "", err
	}
	if len(t.pending) == 0 {
		return api.InvalidHandle, "", api.ErrWouldBlock
	}
	pc := t.pending[0]
	t.pending = t.pending[1:]
	return pc.h, pc.peer, nil
}

// Read implements api.Transport.Read. A pending chunk larger than buf is
// split across reads.
func (t *Transport) Read(h api.Handle, buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ep, err := t.endpoint(h)
	if err != nil {
		return 0, err
	}
	if ep.readErr != nil {
		return 0, ep.readErr
	}
	if len(ep.inbound) == 0 {
		if ep.peerClosed {
			return 0, nil
		}
		return 0, api.ErrWouldBlock
	}
	n := copy(buf, ep.inbound[0])
	if n == len(ep.inbound[0]) {
		ep.inbound = ep.inbound[1:]
	} else {
		ep.inbound[0] = ep.inbound[0][n:]
	}
	return n, nil
}

// Write implements api.Transport.Write.
func (t *Transport) Write(h api.Handle, p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ep, err := t.endpoint(h)
	if err != nil {
		return 0, err
	}
	if ep.writeErr != nil {
		return 0, ep.writeErr
	}
	if ep.blocked {
		return 0, api.ErrWouldBlock
	}
	n := len(p)
	if ep.writeLimit >= 0 && n > ep.writeLimit {
		n = ep.writeLimit
	}
	if n == 0 && len(p) > 0 {
		return 0, api.ErrWouldBlock
	}
	ep.written = append(ep.written, p[:n]...)
	ep.writes = append(ep.writes, append([]byte(nil), p[:n]...))
	return n, nil
}

// Close implements api.Transport.Close.
func (t *Transport) Close(h api.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeErr != nil {
		return t.closeErr
	}
	if n, ok := t.listeners[h]; ok {
		t.listeners[h] = n + 1
		return nil
	}
	ep, err := t.endpoint(h)
	if err != nil {
		return err
	}
	ep.closes++
	return nil
}

func (t *Transport) endpoint(h api.Handle) (*Endpoint, error) {
	ep, ok := t.eps[h]
	if !ok {
		return nil, fmt.Errorf("fd %d: %w", h, api.ErrNotFound)
	}
	return ep, nil
}

// Dial queues an incoming connection on every listener and returns the
// handle the server will get from Accept.
func (t *Transport) Dial(peer string) api.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.alloc()
	t.eps[h] = &Endpoint{writeLimit: -1}
	t.pending = append(t.pending, pendingConn{h: h, peer: peer})
	return h
}

// Reuse makes the next Dial return h again, like a kernel recycling a closed
// descriptor number.
func (t *Transport) Reuse(h api.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.eps, h)
	t.free = append(t.free, h)
}

// Send makes data readable on h, as if the peer had written it.
func (t *Transport) Send(h api.Handle, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		ep.inbound = append(ep.inbound, append([]byte(nil), data...))
	}
}

// Hangup marks h as closed by the peer: reads return 0 once inbound data is
// consumed.
func (t *Transport) Hangup(h api.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		ep.peerClosed = true
	}
}

// SetListenError configures the transport to return an error on Listen.
func (t *Transport) SetListenError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listenErr = err
}

// SetAcceptError makes the next Accept fail with err.
func (t *Transport) SetAcceptError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acceptErr = err
}

// SetCloseError configures the transport to return an error on Close.
func (t *Transport) SetCloseError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeErr = err
}

// SetReadError makes reads on h fail with err.
func (t *Transport) SetReadError(h api.Handle, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		ep.readErr = err
	}
}

// SetWriteError makes writes on h fail with err.
func (t *Transport) SetWriteError(h api.Handle, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		ep.writeErr = err
	}
}

// SetWriteLimit caps the bytes accepted by each Write on h. A negative limit
// removes the cap.
func (t *Transport) SetWriteLimit(h api.Handle, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		ep.writeLimit = n
	}
}

// SetBlocked makes writes on h report ErrWouldBlock while blocked is true.
func (t *Transport) SetBlocked(h api.Handle, blocked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		ep.blocked = blocked
	}
}

// Written returns every byte written to h so far.
func (t *Transport) Written(h api.Handle) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		return append([]byte(nil), ep.written...)
	}
	return nil
}

// Writes returns the payload of each successful Write call on h.
func (t *Transport) Writes(h api.Handle) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep, ok := t.eps[h]; ok {
		return append([][]byte(nil), ep.writes...)
	}
	return nil
}

// CloseCount returns how many times h was closed.
func (t *Transport) CloseCount(h api.Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.listeners[h]; ok {
		return n
	}
	if ep, ok := t.eps[h]; ok {
		return ep.closes
	}
	return 0
}

// readable reports level-triggered read readiness for h.
func (t *Transport) readable(h api.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.listeners[h]; ok {
		return len(t.pending) > 0
	}
	ep, ok := t.eps[h]
	if !ok || ep.closes > 0 {
		return false
	}
	return len(ep.inbound) > 0 || ep.peerClosed || ep.readErr != nil
}

// writable reports level-triggered write readiness for h.
func (t *Transport) writable(h api.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ep, ok := t.eps[h]
	if !ok || ep.closes > 0 {
		return false
	}
	return !ep.blocked && ep.writeLimit != 0
}

var _ api.Transport = (*Transport)(nil)
