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

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/metrics"
)

// ErrAtCapacity is returned by Store.GetOrCreate if the key is new and the
// store already holds the maximum number of aggregates.
var ErrAtCapacity = errors.New("aggregate store at capacity")

// Store holds the open aggregates, at most one per key and at most maxSize
// in total. Whoever removes an entry from the store owns it and has to flush
// or discard it.
type Store struct {
	factory Factory
	trigger Trigger
	maxSize int
	metrics *metrics.Metrics

	m       sync.Mutex
	entries map[Key]*Entry
	// last holds the done channel of the newest entry per key, new entries
	// wait on it before flushing.
	last map[Key]<-chan struct{}
	seq  uint64
}

func NewStore(factory Factory, trigger Trigger, maxSize int, m *metrics.Metrics) *Store {
	if maxSize < 1 {
		maxSize = 1
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Store{
		factory: factory,
		trigger: trigger,
		maxSize: maxSize,
		metrics: m,
		entries: make(map[Key]*Entry),
		last:    make(map[Key]<-chan struct{}),
	}
}

func (s *Store) Trigger() Trigger { return s.trigger }
func (s *Store) MaxSize() int     { return s.maxSize }

// GetOrCreate returns the open entry for key, creating it if needed. New keys
// are only admitted while the store is below its capacity, otherwise
// ErrAtCapacity is returned and the caller should evict an entry first.
func (s *Store) GetOrCreate(ctx context.Context, key Key) (*Entry, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if e, ok := s.entries[key]; ok {
		return e, nil
	}
	if len(s.entries) >= s.maxSize {
		return nil, ErrAtCapacity
	}

	agg, err := s.factory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregate %s: %w", key, err)
	}

	var prev <-chan struct{}
	if done, ok := s.last[key]; ok {
		select {
		case <-done:
			// previous entry already finished, nothing to wait for
		default:
			prev = done
		}
	}

	s.seq++
	e := newEntry(key, agg, s.trigger, s.seq, prev)
	s.entries[key] = e
	s.last[key] = e.done
	s.metrics.Aggregates.Set(float64(len(s.entries)))
	return e, nil
}

// CanAggregate reports whether a record for key can be accepted without
// evicting another aggregate.
func (s *Store) CanAggregate(key Key) bool {
	s.m.Lock()
	defer s.m.Unlock()
	_, ok := s.entries[key]
	return ok || len(s.entries) < s.maxSize
}

// Remove removes e from the store. It returns false if e was already removed
// by someone else, in which case the caller must not flush it.
func (s *Store) Remove(e *Entry) bool {
	s.m.Lock()
	cur, ok := s.entries[e.Key]
	removed := ok && cur == e
	if removed {
		delete(s.entries, e.Key)
		s.metrics.Aggregates.Set(float64(len(s.entries)))
	}
	s.m.Unlock()

	if removed {
		e.close()
	}
	return removed
}

// GetAndRemoveBiggestAggregate removes and returns the entry holding the most
// bytes. Ties are broken by record count and then by age, the oldest entry
// wins. It returns nil if the store is empty.
func (s *Store) GetAndRemoveBiggestAggregate() *Entry {
	s.m.Lock()
	var biggest *Entry
	for _, e := range s.entries {
		if biggest == nil || bigger(e, biggest) {
			biggest = e
		}
	}
	if biggest != nil {
		delete(s.entries, biggest.Key)
		s.metrics.Aggregates.Set(float64(len(s.entries)))
	}
	s.m.Unlock()

	if biggest != nil {
		biggest.close()
	}
	return biggest
}

func bigger(a, b *Entry) bool {
	if ab, bb := a.Bytes(), b.Bytes(); ab != bb {
		return ab > bb
	}
	if ar, br := a.Records(), b.Records(); ar != br {
		return ar > br
	}
	return a.seq < b.seq
}

// RemoveStale removes and returns all entries that are older than the
// trigger's MaxAge at now, oldest first.
func (s *Store) RemoveStale(now time.Time) []*Entry {
	return s.removeWhere(func(e *Entry) bool {
		return s.trigger.Stale(e.createdAt, now)
	})
}

// RemoveAll removes and returns all entries, oldest first.
func (s *Store) RemoveAll() []*Entry {
	return s.removeWhere(func(*Entry) bool { return true })
}

func (s *Store) removeWhere(match func(*Entry) bool) []*Entry {
	s.m.Lock()
	var out []*Entry
	for k, e := range s.entries {
		if match(e) {
			out = append(out, e)
			delete(s.entries, k)
		}
	}
	if len(out) > 0 {
		s.metrics.Aggregates.Set(float64(len(s.entries)))
	}
	s.m.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	for _, e := range out {
		e.close()
	}
	return out
}

func (s *Store) Len() int {
	s.m.Lock()
	defer s.m.Unlock()
	return len(s.entries)
}
