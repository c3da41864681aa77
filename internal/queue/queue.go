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

// Package queue contains a FIFO queue bounded by the number of bytes its
// items occupy instead of the number of items.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/memory"
)

var ErrClosed = errors.New("queue closed")

type item[T any] struct {
	val         T
	reservation *memory.Reservation
}

// Queue is a FIFO queue with a byte budget. Producers block (Put) or get
// rejected (Offer) when the budget is exhausted. The bytes of an item are
// released in the same critical section that removes it from the queue.
type Queue[T any] struct {
	mem *memory.Manager

	m      sync.Mutex
	items  []item[T]
	closed bool
	// changed is closed and replaced whenever an item is added or the queue
	// is closed.
	changed chan struct{}
}

func New[T any](maxBytes int64) *Queue[T] {
	return &Queue[T]{
		mem:     memory.NewManager(maxBytes),
		changed: make(chan struct{}),
	}
}

// Offer adds the item if size bytes are available right now and reports
// whether it was added.
func (q *Queue[T]) Offer(val T, size int64) bool {
	r, ok := q.mem.TryReserve(q.clamp(size))
	if !ok {
		return false
	}
	if err := q.push(val, r); err != nil {
		return false
	}
	return true
}

// Put adds the item, blocking until size bytes are available. Items bigger
// than the whole budget are charged the whole budget, so they are admitted
// once the queue is empty.
func (q *Queue[T]) Put(ctx context.Context, val T, size int64) error {
	r, err := q.mem.Reserve(ctx, q.clamp(size))
	if err != nil {
		return fmt.Errorf("could not reserve queue memory: %w", err)
	}
	return q.push(val, r)
}

func (q *Queue[T]) clamp(size int64) int64 {
	if max := q.mem.Max(); size > max {
		return max
	}
	return size
}

func (q *Queue[T]) push(val T, r *memory.Reservation) error {
	q.m.Lock()
	defer q.m.Unlock()
	if q.closed {
		r.Release()
		return ErrClosed
	}
	q.items = append(q.items, item[T]{val: val, reservation: r})
	q.broadcastLocked()
	return nil
}

// Take removes and returns the head of the queue, blocking until an item is
// available. It returns ErrClosed once the queue is closed and drained.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	for {
		val, ok, changed, err := q.tryTake()
		if ok || err != nil {
			return val, err
		}
		select {
		case <-changed:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Poll is like Take, but it stops waiting after timeout and returns false.
func (q *Queue[T]) Poll(ctx context.Context, timeout time.Duration) (T, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		val, ok, changed, err := q.tryTake()
		if ok || err != nil {
			return val, ok, err
		}
		select {
		case <-changed:
		case <-timer.C:
			var zero T
			return zero, false, nil
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}
}

func (q *Queue[T]) tryTake() (T, bool, chan struct{}, error) {
	q.m.Lock()
	defer q.m.Unlock()

	var zero T
	if len(q.items) == 0 {
		if q.closed {
			return zero, false, nil, ErrClosed
		}
		return zero, false, q.changed, nil
	}

	head := q.items[0]
	q.items[0] = item[T]{} // drop reference
	q.items = q.items[1:]
	head.reservation.Release()
	return head.val, true, nil, nil
}

// Close stops the queue from accepting new items. Items already in the queue
// can still be taken.
func (q *Queue[T]) Close() {
	q.m.Lock()
	defer q.m.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.broadcastLocked()
}

func (q *Queue[T]) broadcastLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *Queue[T]) Len() int {
	q.m.Lock()
	defer q.m.Unlock()
	return len(q.items)
}

func (q *Queue[T]) UsedBytes() int64 {
	return q.mem.Used()
}
