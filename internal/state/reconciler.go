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

package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/metrics"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

// Emitter writes an encoded protocol message to the platform.
type Emitter interface {
	WriteRaw(msg []byte) error
}

// Reconciler periodically acknowledges complete checkpoints. It also runs as
// soon as it is woken up after new flushed counts were reported.
type Reconciler struct {
	store    *Store
	out      Emitter
	interval time.Duration
	metrics  *metrics.Metrics

	wake chan struct{}
	t    *tomb.Tomb

	// emitLock makes sure acks from the loop and from FlushCompleteStates are
	// written in the order they were popped.
	emitLock sync.Mutex
}

func NewReconciler(store *Store, out Emitter, interval time.Duration, m *metrics.Metrics) *Reconciler {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Reconciler{
		store:    store,
		out:      out,
		interval: interval,
		metrics:  m,
		wake:     make(chan struct{}, 1),
	}
}

// Run starts the reconciliation loop in the background. The loop stops when
// ctx is canceled, when Disable is called or when emitting an ack fails.
func (r *Reconciler) Run(ctx context.Context) {
	t, ctx := tomb.WithContext(ctx)
	r.t = t
	t.Go(func() error {
		return r.loop(ctx)
	})
}

// Dying is closed when the loop stops.
func (r *Reconciler) Dying() <-chan struct{} {
	if r.t == nil {
		return nil
	}
	return r.t.Dying()
}

// Err returns the error that stopped the loop, if any.
func (r *Reconciler) Err() error {
	if r.t == nil {
		return nil
	}
	err := r.t.Err()
	if err == tomb.ErrStillAlive {
		return nil
	}
	return err
}

func (r *Reconciler) loop(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.wake:
		}
		if err := r.FlushCompleteStates(ctx); err != nil {
			return err
		}
	}
}

// Wake triggers a reconciliation without waiting for the next tick. It never
// blocks.
func (r *Reconciler) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Disable stops the loop and waits for it to return.
func (r *Reconciler) Disable() error {
	if r.t == nil {
		return nil
	}
	r.t.Kill(nil)
	return r.t.Wait()
}

// FlushCompleteStates acknowledges all checkpoints that are complete and not
// held back by an incomplete predecessor.
func (r *Reconciler) FlushCompleteStates(ctx context.Context) error {
	r.emitLock.Lock()
	defer r.emitLock.Unlock()

	acks := r.store.PopCompleteStates()
	defer r.metrics.StatesPending.Set(float64(r.store.Pending()))

	logger := zerolog.Ctx(ctx)
	for _, ack := range acks {
		msg, err := ack.Checkpoint.MarshalAck(ack.Committed)
		if err != nil {
			return fmt.Errorf("could not encode ack for checkpoint %d: %w", ack.ID, err)
		}
		if err := r.out.WriteRaw(msg); err != nil {
			return fmt.Errorf("could not emit ack for checkpoint %d: %w", ack.ID, err)
		}
		r.metrics.StatesAcked.Inc()
		logger.Trace().
			Stringer("stream", ack.Stream).
			Int64("checkpointID", int64(ack.ID)).
			Int64("committed", ack.Committed).
			Msg("acknowledged checkpoint")
	}
	return nil
}
