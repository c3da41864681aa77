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
	"sync"
	"sync/atomic"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal"
	"github.com/airbytehq/airbyte-sub034/internal/memory"
	"github.com/airbytehq/airbyte-sub034/internal/state"
	"github.com/airbytehq/airbyte-sub034/message"
	"go.uber.org/multierr"
)

var (
	// ErrEntryClosed is returned by Entry.Accept if the entry was removed from
	// the store in the meantime. The caller should fetch a new entry.
	ErrEntryClosed    = errors.New("aggregate entry closed")
	errAlreadyFlushed = errors.New("aggregate entry already flushed or discarded")
)

// Entry is an aggregate held by the store, together with the bookkeeping
// needed to flush it: its size, the records it contains per checkpoint and
// the memory those records hold.
type Entry struct {
	Key       Key
	agg       Aggregate
	trigger   Trigger
	createdAt time.Time
	seq       uint64

	records atomic.Int64
	bytes   atomic.Int64

	// m guards Accept against the entry being closed concurrently.
	m            sync.Mutex
	closed       bool
	histogram    state.Histogram
	reservations []*memory.Reservation

	// prev is closed when the previous entry of the same key is flushed or
	// discarded, done is closed when this one is.
	prev     <-chan struct{}
	done     chan struct{}
	finished atomic.Bool
}

func newEntry(key Key, agg Aggregate, trigger Trigger, seq uint64, prev <-chan struct{}) *Entry {
	return &Entry{
		Key:       key,
		agg:       agg,
		trigger:   trigger,
		createdAt: time.Now(),
		seq:       seq,
		histogram: make(state.Histogram),
		prev:      prev,
		done:      make(chan struct{}),
	}
}

func (e *Entry) Aggregate() Aggregate { return e.agg }
func (e *Entry) Records() int64       { return e.records.Load() }
func (e *Entry) Bytes() int64         { return e.bytes.Load() }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// Done is closed once the entry was flushed or discarded.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Accept adds the record to the aggregate and takes ownership of the
// reservation holding the record's memory, even if the aggregate fails to
// accept the record. It reports whether the entry should be flushed now.
func (e *Entry) Accept(ctx context.Context, r *message.Record, res *memory.Reservation) (bool, error) {
	e.m.Lock()
	defer e.m.Unlock()
	if e.closed {
		return false, ErrEntryClosed
	}
	if res != nil {
		e.reservations = append(e.reservations, res)
	}

	status, err := e.agg.Accept(ctx, r)
	if err != nil {
		return false, fmt.Errorf("aggregate %s failed to accept record: %w", e.Key, err)
	}
	e.histogram.Inc(r.CheckpointID)
	records := e.records.Add(1)
	bytes := e.bytes.Add(r.SerializedSize)

	return status == Complete || e.trigger.Reached(records, bytes), nil
}

// close prevents any further records from being accepted.
func (e *Entry) close() {
	e.m.Lock()
	defer e.m.Unlock()
	e.closed = true
}

// Flush waits for the previous entry with the same key to finish and then
// flushes the aggregate. The memory held by the entry is released regardless
// of the outcome. The histogram of records is only returned if the flush
// succeeded, a failed flush must never count towards a checkpoint. An
// aggregate that fails to flush is not closed, it cleans up after itself.
func (e *Entry) Flush(ctx context.Context) (state.Histogram, error) {
	if !e.finished.CompareAndSwap(false, true) {
		return nil, errAlreadyFlushed
	}
	defer close(e.done)
	e.close()
	defer e.releaseMemory()

	if e.prev != nil {
		select {
		case <-e.prev:
		case <-ctx.Done():
			// the aggregate never got to flush, it still needs to be cleaned up
			return nil, multierr.Append(ctx.Err(), e.closeAggregate(internal.DetachContext(ctx)))
		}
	}

	if err := e.agg.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush aggregate %s: %w", e.Key, err)
	}

	e.m.Lock()
	defer e.m.Unlock()
	h := e.histogram
	e.histogram = nil
	return h, nil
}

// Discard drops the entry without flushing it. Its memory is released and the
// aggregate is closed if it implements Closer.
func (e *Entry) Discard(ctx context.Context) error {
	if !e.finished.CompareAndSwap(false, true) {
		return nil
	}
	defer close(e.done)
	e.close()
	defer e.releaseMemory()
	return e.closeAggregate(ctx)
}

func (e *Entry) closeAggregate(ctx context.Context) error {
	c, ok := e.agg.(Closer)
	if !ok {
		return nil
	}
	if err := c.Close(ctx); err != nil {
		return fmt.Errorf("failed to close aggregate %s: %w", e.Key, err)
	}
	return nil
}

func (e *Entry) releaseMemory() {
	e.m.Lock()
	defer e.m.Unlock()
	for _, r := range e.reservations {
		r.Release()
	}
	e.reservations = nil
}
