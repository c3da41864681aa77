// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package state keeps track of how many records of each checkpoint were read
// and how many were durably written, and acknowledges checkpoints once all of
// their records are committed.
package state

import (
	"fmt"
	"sync"

	"github.com/airbytehq/airbyte-sub034/message"
)

// Histogram counts records per checkpoint.
type Histogram map[message.CheckpointID]int64

func (h Histogram) Inc(id message.CheckpointID) {
	h[id]++
}

// Merge adds all counts of other to h.
func (h Histogram) Merge(other Histogram) {
	for id, n := range other {
		h[id] += n
	}
}

func (h Histogram) Total() int64 {
	var total int64
	for _, n := range h {
		total += n
	}
	return total
}

// Ack is a checkpoint whose records are all committed.
type Ack struct {
	// Stream is the stream of a STREAM checkpoint, zero for a GLOBAL one.
	Stream     message.StreamDescriptor
	ID         message.CheckpointID
	Checkpoint *message.Checkpoint
	// Committed is the number of records committed in the checkpoint window.
	Committed int64
}

func (a Ack) global() bool {
	return a.Checkpoint.Type == message.CheckpointTypeGlobal
}

// Store is the watermark store. Records are counted per stream and
// checkpoint. A STREAM checkpoint only waits for the records of its own
// stream, a GLOBAL checkpoint waits for the records of all streams read in its
// window. Counts only ever grow, so histograms may be reported in any order
// and from any number of aggregates.
type Store struct {
	m        sync.Mutex
	expected map[message.StreamDescriptor]Histogram
	flushed  map[message.StreamDescriptor]Histogram

	// pending holds the STREAM checkpoints of each stream in the order they
	// were read, global holds the GLOBAL checkpoints.
	pending map[message.StreamDescriptor][]Ack
	streams []message.StreamDescriptor
	global  []Ack

	lastID     map[message.StreamDescriptor]message.CheckpointID
	lastGlobal message.CheckpointID
}

func NewStore() *Store {
	return &Store{
		expected:   make(map[message.StreamDescriptor]Histogram),
		flushed:    make(map[message.StreamDescriptor]Histogram),
		pending:    make(map[message.StreamDescriptor][]Ack),
		lastID:     make(map[message.StreamDescriptor]message.CheckpointID),
		lastGlobal: -1,
	}
}

// AcceptExpectedCounts records that the records of stream in h were read.
func (s *Store) AcceptExpectedCounts(stream message.StreamDescriptor, h Histogram) {
	s.m.Lock()
	defer s.m.Unlock()
	histogram(s.expected, stream).Merge(h)
}

// AcceptFlushedCounts records that the records of stream in h were committed.
func (s *Store) AcceptFlushedCounts(stream message.StreamDescriptor, h Histogram) {
	s.m.Lock()
	defer s.m.Unlock()
	histogram(s.flushed, stream).Merge(h)
}

func histogram(m map[message.StreamDescriptor]Histogram, stream message.StreamDescriptor) Histogram {
	h, ok := m[stream]
	if !ok {
		h = make(Histogram)
		m[stream] = h
	}
	return h
}

// AcceptState registers checkpoint c closing window id. The window belongs to
// the stream of a STREAM checkpoint or to all streams for a GLOBAL one.
// Checkpoints of the same scope must be registered in increasing id order.
func (s *Store) AcceptState(id message.CheckpointID, c *message.Checkpoint) error {
	s.m.Lock()
	defer s.m.Unlock()

	switch c.Type {
	case message.CheckpointTypeGlobal:
		if id <= s.lastGlobal {
			return fmt.Errorf("global checkpoint %d registered after checkpoint %d", id, s.lastGlobal)
		}
		s.lastGlobal = id
		s.global = append(s.global, Ack{ID: id, Checkpoint: c})
	case message.CheckpointTypeStream:
		if len(c.Streams) != 1 {
			return fmt.Errorf("stream checkpoint needs exactly one stream, got %d", len(c.Streams))
		}
		stream := c.Streams[0]
		last, ok := s.lastID[stream]
		if ok && id <= last {
			return fmt.Errorf("checkpoint %d of stream %s registered after checkpoint %d", id, stream, last)
		}
		s.lastID[stream] = id
		if _, ok := s.pending[stream]; !ok {
			s.streams = append(s.streams, stream)
		}
		s.pending[stream] = append(s.pending[stream], Ack{Stream: stream, ID: id, Checkpoint: c})
	default:
		return fmt.Errorf("unsupported checkpoint type %q", c.Type)
	}
	return nil
}

// IsComplete reports whether all records read in the window of a are
// committed.
func (s *Store) IsComplete(a Ack) bool {
	s.m.Lock()
	defer s.m.Unlock()
	_, ok := s.committedLocked(a)
	return ok
}

// committedLocked returns the number of records committed in the window of a
// and whether that are all records read in it.
func (s *Store) committedLocked(a Ack) (int64, bool) {
	if !a.global() {
		flushed := s.flushed[a.Stream][a.ID]
		return flushed, flushed >= s.expected[a.Stream][a.ID]
	}
	var committed int64
	for stream, expected := range s.expected {
		flushed := s.flushed[stream][a.ID]
		if flushed < expected[a.ID] {
			return 0, false
		}
		committed += flushed
	}
	return committed, true
}

func (s *Store) forgetLocked(a Ack) {
	if !a.global() {
		delete(s.flushed[a.Stream], a.ID)
		delete(s.expected[a.Stream], a.ID)
		return
	}
	for stream := range s.expected {
		delete(s.flushed[stream], a.ID)
		delete(s.expected[stream], a.ID)
	}
}

// PopCompleteStates removes and returns the complete checkpoints at the head
// of their queues. A complete checkpoint behind an incomplete one of the same
// stream (or behind an incomplete global checkpoint) is held back, so the
// checkpoints of a stream are acknowledged in the order they were read.
func (s *Store) PopCompleteStates() []Ack {
	s.m.Lock()
	defer s.m.Unlock()

	var out []Ack
	out, s.global = s.popLocked(out, s.global)
	for _, stream := range s.streams {
		out, s.pending[stream] = s.popLocked(out, s.pending[stream])
	}
	return out
}

func (s *Store) popLocked(out []Ack, queue []Ack) ([]Ack, []Ack) {
	for len(queue) > 0 {
		head := queue[0]
		committed, ok := s.committedLocked(head)
		if !ok {
			break
		}
		head.Committed = committed
		s.forgetLocked(head)
		queue[0] = Ack{}
		queue = queue[1:]
		out = append(out, head)
	}
	return out, queue
}

// Pending returns the number of checkpoints not acknowledged yet.
func (s *Store) Pending() int {
	s.m.Lock()
	defer s.m.Unlock()
	n := len(s.global)
	for _, q := range s.pending {
		n += len(q)
	}
	return n
}
