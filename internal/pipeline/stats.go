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

package pipeline

import (
	"sync"

	"github.com/airbytehq/airbyte-sub034/message"
)

// StreamStats are the counters of a single stream.
type StreamStats struct {
	// EmittedRecords is the number of records read from the input.
	EmittedRecords int64
	// CommittedRecords is the number of records durably written.
	CommittedRecords int64
	// CommittedBytes is the serialized size of the committed records.
	CommittedBytes int64
}

// Result is returned by Pipeline.Run.
type Result struct {
	Streams map[message.StreamDescriptor]StreamStats
}

// Stream returns the stats of stream d, zero if it didn't see any records.
func (r Result) Stream(d message.StreamDescriptor) StreamStats {
	return r.Streams[d]
}

type stats struct {
	m       sync.Mutex
	streams map[message.StreamDescriptor]*StreamStats
}

func newStats() *stats {
	return &stats{streams: make(map[message.StreamDescriptor]*StreamStats)}
}

func (s *stats) get(d message.StreamDescriptor) *StreamStats {
	st, ok := s.streams[d]
	if !ok {
		st = &StreamStats{}
		s.streams[d] = st
	}
	return st
}

func (s *stats) emitted(d message.StreamDescriptor) {
	s.m.Lock()
	defer s.m.Unlock()
	s.get(d).EmittedRecords++
}

func (s *stats) committed(d message.StreamDescriptor, records, bytes int64) {
	s.m.Lock()
	defer s.m.Unlock()
	st := s.get(d)
	st.CommittedRecords += records
	st.CommittedBytes += bytes
}

func (s *stats) result() Result {
	s.m.Lock()
	defer s.m.Unlock()
	out := Result{Streams: make(map[message.StreamDescriptor]StreamStats, len(s.streams))}
	for d, st := range s.streams {
		out.Streams[d] = *st
	}
	return out
}
