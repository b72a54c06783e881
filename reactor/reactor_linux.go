//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based multiplexer. Registrations are synchronized with the
// interest sets on every wait, so callers only describe what they want.

package reactor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-chat/api"
)

// epollMultiplexer is a level-triggered epoll multiplexer.
type epollMultiplexer struct {
	epfd       int
	wakefd     int
	events     []unix.EpollEvent
	registered map[api.Handle]uint32 // current epoll mask per handle
	wanted     map[api.Handle]struct{}

	// mu keeps Wake from writing to a wakefd that Close released
	mu     sync.Mutex
	closed atomic.Bool
}

// New constructs an epoll multiplexer fetching up to maxEvents events per
// wait (DefaultMaxEvents when maxEvents <= 0).
func New(maxEvents int) (api.Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return &epollMultiplexer{
		epfd:       epfd,
		wakefd:     wakefd,
		events:     make([]unix.EpollEvent, normalizeMaxEvents(maxEvents)),
		registered: make(map[api.Handle]uint32),
		wanted:     make(map[api.Handle]struct{}),
	}, nil
}

func interestMask(in api.Interest) uint32 {
	var mask uint32
	if in.Read {
		mask |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if in.Write {
		mask |= unix.EPOLLOUT
	}
	return mask
}

// sync brings the epoll registrations in line with interests.
func (m *epollMultiplexer) sync(interests []api.Interest) error {
	clear(m.wanted)
	for _, in := range interests {
		m.wanted[in.Handle] = struct{}{}
		mask := interestMask(in)
		cur, ok := m.registered[in.Handle]
		if ok && cur == mask {
			continue
		}
		if err := m.ctl(in.Handle, mask, ok); err != nil {
			return err
		}
		m.registered[in.Handle] = mask
	}
	for h := range m.registered {
		if _, ok := m.wanted[h]; ok {
			continue
		}
		// Closing a descriptor drops it from epoll already.
		err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, int(h), nil)
		if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
			return fmt.Errorf("epoll ctl del fd %d: %w", h, err)
		}
		delete(m.registered, h)
	}
	return nil
}

// ctl adds or modifies a registration. A recycled descriptor number may look
// registered while the kernel already forgot it, and the reverse; both cases
// fall back to the other operation.
func (m *epollMultiplexer) ctl(h api.Handle, mask uint32, known bool) error {
	ev := unix.EpollEvent{Events: mask, Fd: int32(h)}
	op, alt := unix.EPOLL_CTL_ADD, unix.EPOLL_CTL_MOD
	if known {
		op, alt = alt, op
	}
	err := unix.EpollCtl(m.epfd, op, int(h), &ev)
	if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EEXIST) {
		err = unix.EpollCtl(m.epfd, alt, int(h), &ev)
	}
	if err != nil {
		return fmt.Errorf("epoll ctl fd %d: %w", h, err)
	}
	return nil
}

// WaitReady implements api.Multiplexer.WaitReady. Results are sorted by
// ascending handle.
func (m *epollMultiplexer) WaitReady(interests []api.Interest, out []api.Ready) ([]api.Ready, error) {
	if m.closed.Load() {
		return out, api.ErrClosed
	}
	if err := m.sync(interests); err != nil {
		return out, fmt.Errorf("%w: %w", api.ErrMultiplexFailed, err)
	}
	n, err := unix.EpollWait(m.epfd, m.events, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return out, nil // interrupted by signal, normal
		}
		return out, fmt.Errorf("%w: epoll wait: %w", api.ErrMultiplexFailed, err)
	}
	start := len(out)
	for i := 0; i < n; i++ {
		ev := m.events[i]
		if int(ev.Fd) == m.wakefd {
			m.drainWake()
			continue
		}
		r := api.Ready{Handle: api.Handle(ev.Fd)}
		if ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
			r.Readable = true
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			r.Writable = true
		}
		// hangup and error surface through the next read
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			r.Readable = true
		}
		out = append(out, r)
	}
	slices.SortFunc(out[start:], func(a, b api.Ready) int { return int(a.Handle - b.Handle) })
	return out, nil
}

// Forget implements api.Multiplexer.Forget.
func (m *epollMultiplexer) Forget(h api.Handle) {
	if _, ok := m.registered[h]; !ok {
		return
	}
	_ = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, int(h), nil)
	delete(m.registered, h)
}

func (m *epollMultiplexer) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(m.wakefd, buf[:])
}

// Wake implements api.Multiplexer.Wake.
func (m *epollMultiplexer) Wake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return api.ErrClosed
	}
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(m.wakefd, buf[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

// Close releases the epoll and eventfd descriptors.
func (m *epollMultiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Swap(true) {
		return nil
	}
	return errors.Join(unix.Close(m.wakefd), unix.Close(m.epfd))
}
