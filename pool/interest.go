// File: pool/interest.go
// Author: momentics <momentics@gmail.com>

package pool

import "github.com/momentics/hioload-chat/api"

// AppendInterests appends the current interest sets to dst: the listener
// first, read-only, then every connection in registration order, always
// read-interested and write-interested iff its queue is non-empty.
func (p *Pool) AppendInterests(dst []api.Interest) []api.Interest {
	if p.closed {
		return dst
	}
	dst = append(dst, api.Interest{Handle: p.listener, Read: true})
	for _, h := range p.order {
		c := p.conns[h]
		dst = append(dst, api.Interest{Handle: h, Read: true, Write: c.writeInterest})
	}
	return dst
}

// Interests returns a fresh snapshot of the interest sets.
func (p *Pool) Interests() []api.Interest {
	return p.AppendInterests(make([]api.Interest, 0, len(p.order)+1))
}

// WriteInterested returns the handles currently waiting for writability.
func (p *Pool) WriteInterested() []api.Handle {
	out := make([]api.Handle, 0, p.writers)
	for _, h := range p.order {
		if p.conns[h].writeInterest {
			out = append(out, h)
		}
	}
	return out
}
