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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/internal/memory"
	"github.com/airbytehq/airbyte-sub034/internal/state"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/rs/zerolog"
)

// StageContext is the unit of work passed through the stages. Every stage
// reads what the previous stages left behind and adds its own result.
type StageContext struct {
	// Skip stops the remaining stages from running.
	Skip bool
	// Reservation holds the memory of the raw record until an aggregate takes
	// it over.
	Reservation *memory.Reservation
	Raw         *message.DestinationRecordRaw
	Key         aggregate.Key
	Record      *message.Record
	// Entry is set by the aggregate stage if the entry has to be flushed.
	Entry *aggregate.Entry
	// Histogram is set by the flush stage if the flush succeeded.
	Histogram state.Histogram
}

// Stage is one step of the chain applied to every record.
type Stage interface {
	Name() string
	Apply(ctx context.Context, sc *StageContext) error
}

type stageFunc struct {
	name string
	fn   func(context.Context, *StageContext) error
}

func (s stageFunc) Name() string { return s.name }
func (s stageFunc) Apply(ctx context.Context, sc *StageContext) error {
	return s.fn(ctx, sc)
}

func (p *Pipeline) stages() []Stage {
	return []Stage{
		stageFunc{"parse", p.parse},
		stageFunc{"aggregate", p.aggregate},
		stageFunc{"flush", p.flush},
		stageFunc{"state", p.state},
	}
}

// process runs the stages in order. Memory still held by the stage context
// after the last stage (e.g. because the record was skipped) is released.
func (p *Pipeline) process(ctx context.Context, sc *StageContext) error {
	defer func() {
		if sc.Reservation != nil {
			sc.Reservation.Release()
			sc.Reservation = nil
		}
	}()
	for _, s := range p.chain {
		if sc.Skip {
			return nil
		}
		if err := s.Apply(ctx, sc); err != nil {
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}
	}
	return nil
}

func (p *Pipeline) parse(_ context.Context, sc *StageContext) error {
	stream, ok := p.cfg.Catalog.Stream(sc.Raw.Stream)
	if !ok {
		// checked by the ingress reader already
		return fmt.Errorf("stream %s not found in catalog", sc.Raw.Stream)
	}
	if p.cfg.SkipStream != nil && p.cfg.SkipStream(sc.Raw.Stream) {
		sc.Skip = true
		return nil
	}
	rec, err := sc.Raw.Munge(stream)
	if err != nil {
		return err
	}
	sc.Record = rec
	sc.Raw = nil // not needed anymore
	return nil
}

func (p *Pipeline) aggregate(ctx context.Context, sc *StageContext) error {
	for {
		e, err := p.store.GetOrCreate(ctx, sc.Key)
		if errors.Is(err, aggregate.ErrAtCapacity) {
			if err := p.evictBiggest(ctx); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		complete, err := e.Accept(ctx, sc.Record, sc.Reservation)
		if errors.Is(err, aggregate.ErrEntryClosed) {
			// evicted in the meantime, the record goes into a new entry
			continue
		}
		sc.Reservation = nil // owned by the entry now
		if err != nil {
			return err
		}
		if complete && p.store.Remove(e) {
			sc.Entry = e
		}
		break
	}

	if p.mem.Utilization() >= p.cfg.MemoryPressureThreshold {
		p.signalPressure()
	}
	return nil
}

func (p *Pipeline) flush(ctx context.Context, sc *StageContext) error {
	if sc.Entry == nil {
		return nil
	}
	start := time.Now()
	h, err := sc.Entry.Flush(ctx)
	p.metrics.ObserveFlush(start, err)
	if err != nil {
		return err
	}
	sc.Histogram = h

	zerolog.Ctx(ctx).Trace().
		Stringer("key", sc.Entry.Key).
		Int64("records", sc.Entry.Records()).
		Int64("bytes", sc.Entry.Bytes()).
		Dur("duration", time.Since(start)).
		Msg("flushed aggregate")
	return nil
}

func (p *Pipeline) state(_ context.Context, sc *StageContext) error {
	if sc.Histogram == nil {
		return nil
	}
	p.states.AcceptFlushedCounts(sc.Entry.Key.Stream, sc.Histogram)
	p.stats.committed(sc.Entry.Key.Stream, sc.Histogram.Total(), sc.Entry.Bytes())
	p.metrics.RecordsCommitted.WithLabelValues(sc.Entry.Key.Stream.String()).Add(float64(sc.Histogram.Total()))
	p.metrics.BytesCommitted.WithLabelValues(sc.Entry.Key.Stream.String()).Add(float64(sc.Entry.Bytes()))
	p.reconciler.Wake()
	return nil
}

// flushAndReport runs the flush and state stages for an entry that was removed
// from the store outside of the regular record flow.
func (p *Pipeline) flushAndReport(ctx context.Context, e *aggregate.Entry) error {
	sc := &StageContext{Entry: e}
	if err := p.flush(ctx, sc); err != nil {
		return fmt.Errorf("stage flush: %w", err)
	}
	if err := p.state(ctx, sc); err != nil {
		return fmt.Errorf("stage state: %w", err)
	}
	return nil
}

// evictBiggest flushes the biggest aggregate to make room for another one.
func (p *Pipeline) evictBiggest(ctx context.Context) error {
	e := p.store.GetAndRemoveBiggestAggregate()
	if e == nil {
		return nil
	}
	p.metrics.Evictions.Inc()
	zerolog.Ctx(ctx).Debug().
		Stringer("key", e.Key).
		Int64("records", e.Records()).
		Int64("bytes", e.Bytes()).
		Msg("evicting aggregate")
	return p.flushAndReport(ctx, e)
}
