// File: server/broadcast.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"bytes"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
)

// Broadcast queues chunk, unmodified, for every live connection except src
// and returns how many connections it was queued for. The chunk is copied
// once and the copy is shared by all recipients, so the caller may reuse its
// buffer.
func (s *Server) Broadcast(src api.ConnID, chunk []byte) int {
	data := bytes.Clone(chunk)
	n := 0
	for id := range s.pool.ForEachOther(src) {
		if err := s.pool.Enqueue(id, data); err != nil {
			s.log.Warning().Int("fd", int(id)).Err(err).Log("enqueue")
			continue
		}
		n++
	}
	s.metrics.Add(control.MetricChunksQueued, int64(n))
	return n
}
