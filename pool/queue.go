// File: pool/queue.go
// Author: momentics <momentics@gmail.com>
//
// Per-connection FIFO of outbound chunks with short-write accounting.

package pool

import (
	"errors"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-chat/api"
)

// OutboundQueue holds the chunks waiting to be written to one connection.
// The head chunk may be partially sent; offset tracks how much of it is gone.
type OutboundQueue struct {
	q      *queue.Queue
	offset int
	bytes  int
}

func newOutboundQueue() *OutboundQueue {
	return &OutboundQueue{q: queue.New()}
}

// Len returns the number of chunks still queued, including a partially
// written head.
func (oq *OutboundQueue) Len() int {
	return oq.q.Length()
}

// Bytes returns the number of unsent bytes.
func (oq *OutboundQueue) Bytes() int {
	return oq.bytes
}

// Empty reports whether nothing is waiting to be written.
func (oq *OutboundQueue) Empty() bool {
	return oq.q.Length() == 0
}

// Chunks returns the pending data in FIFO order. The head chunk is trimmed by
// what was already written. The slices alias queued memory.
func (oq *OutboundQueue) Chunks() [][]byte {
	n := oq.q.Length()
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		chunk := oq.q.Get(i).([]byte)
		if i == 0 {
			chunk = chunk[oq.offset:]
		}
		out = append(out, chunk)
	}
	return out
}

func (oq *OutboundQueue) push(chunk []byte) {
	oq.q.Add(chunk)
	oq.bytes += len(chunk)
}

// drain writes queued chunks in order until the queue is empty, the socket
// stops accepting bytes, or write fails hard. It returns the number of bytes
// written in this call.
func (oq *OutboundQueue) drain(write func([]byte) (int, error)) (api.WriteOutcome, int, error) {
	written := 0
	for oq.q.Length() > 0 {
		head := oq.q.Peek().([]byte)[oq.offset:]
		n, err := write(head)
		n = max(0, min(n, len(head)))
		written += n
		oq.bytes -= n
		if n == len(head) {
			oq.q.Remove()
			oq.offset = 0
		} else {
			oq.offset += n
		}
		if err != nil {
			if errors.Is(err, api.ErrWouldBlock) {
				break
			}
			return api.WriteFailed, written, err
		}
		if n < len(head) {
			// send buffer full
			break
		}
	}
	if oq.q.Length() == 0 {
		return api.WriteDrained, written, nil
	}
	return api.WritePending, written, nil
}

// release drops every queued chunk.
func (oq *OutboundQueue) release() {
	for oq.q.Length() > 0 {
		oq.q.Remove()
	}
	oq.offset = 0
	oq.bytes = 0
}
