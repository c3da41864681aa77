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

// Package pipeline moves records from the input into aggregates, flushes them
// and acknowledges checkpoints once their records are committed.
//
// Records are read by a single ingress goroutine and distributed to lanes
// based on their aggregate key. Each lane applies the stages parse, aggregate,
// flush and state to its records in order. Lanes run concurrently and share
// the memory budget and the aggregate store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/internal/memory"
	"github.com/airbytehq/airbyte-sub034/internal/metrics"
	"github.com/airbytehq/airbyte-sub034/internal/queue"
	"github.com/airbytehq/airbyte-sub034/internal/state"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/tomb.v2"
)

type Config struct {
	Catalog *message.Catalog
	// Input contains newline delimited protocol messages.
	Input io.Reader
	// Output receives the checkpoint acknowledgements.
	Output state.Emitter

	// Factory creates the aggregate for a key.
	Factory aggregate.Factory
	// Partition returns the partition of a record within its stream. Records
	// of the same stream and partition end up in the same aggregate and lane.
	// Nil puts all records of a stream in one partition.
	Partition func(*message.DestinationRecordRaw) string
	// SkipStream reports whether records of a stream should be dropped,
	// e.g. because the stream failed to start.
	SkipStream func(message.StreamDescriptor) bool
	// OnStreamComplete is called when the platform signals the end of a
	// stream.
	OnStreamComplete func(message.StreamDescriptor)

	Lanes          int
	LaneQueueBytes int64
	Trigger        aggregate.Trigger
	MaxAggregates  int

	// Memory is the global memory budget.
	Memory *memory.Manager
	// MemoryReserveTimeout fails the run if a record can't get memory for
	// this long. Zero waits forever.
	MemoryReserveTimeout time.Duration
	// MemoryPressureThreshold is the utilization of the memory budget at
	// which the biggest aggregates are flushed early.
	MemoryPressureThreshold float64

	StaleCheckInterval    time.Duration
	ReconcileInterval     time.Duration
	MemoryLogInterval     time.Duration
	PressureRetryInterval time.Duration

	Metrics *metrics.Metrics
}

func (c *Config) setDefaults() {
	if c.Lanes < 1 {
		c.Lanes = 1
	}
	if c.LaneQueueBytes <= 0 {
		c.LaneQueueBytes = 16 << 20
	}
	if c.MaxAggregates < 1 {
		c.MaxAggregates = c.Lanes
	}
	if c.Memory == nil {
		c.Memory = memory.NewManager(512 << 20)
	}
	if c.MemoryPressureThreshold <= 0 {
		c.MemoryPressureThreshold = 0.8
	}
	if c.StaleCheckInterval <= 0 {
		c.StaleCheckInterval = time.Second
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = time.Second
	}
	if c.MemoryLogInterval <= 0 {
		c.MemoryLogInterval = time.Minute
	}
	if c.PressureRetryInterval <= 0 {
		c.PressureRetryInterval = time.Millisecond * 50
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New(nil)
	}
}

// Pipeline is a single run of the data flow. It is created with New, run once
// with Run and discarded afterwards.
type Pipeline struct {
	cfg Config

	mem        *memory.Manager
	store      *aggregate.Store
	states     *state.Store
	reconciler *state.Reconciler
	metrics    *metrics.Metrics
	stats      *stats

	lanes    []*queue.Queue[*StageContext]
	chain    []Stage
	pressure chan struct{}

	start      *StartHandler
	completion *CompletionHandler
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("pipeline needs a catalog")
	}
	if cfg.Input == nil || cfg.Output == nil {
		return nil, errors.New("pipeline needs an input and an output")
	}
	if cfg.Factory == nil {
		return nil, errors.New("pipeline needs an aggregate factory")
	}
	cfg.setDefaults()

	states := state.NewStore()
	p := &Pipeline{
		cfg:        cfg,
		mem:        cfg.Memory,
		store:      aggregate.NewStore(cfg.Factory, cfg.Trigger, cfg.MaxAggregates, cfg.Metrics),
		states:     states,
		reconciler: state.NewReconciler(states, cfg.Output, cfg.ReconcileInterval, cfg.Metrics),
		metrics:    cfg.Metrics,
		stats:      newStats(),
		pressure:   make(chan struct{}, 1),
	}
	for i := 0; i < cfg.Lanes; i++ {
		p.lanes = append(p.lanes, queue.New[*StageContext](cfg.LaneQueueBytes))
	}
	p.chain = p.stages()
	p.start = &StartHandler{reconciler: p.reconciler}
	p.completion = &CompletionHandler{
		store:      p.store,
		reconciler: p.reconciler,
		report:     p.flushAndReport,
	}
	return p, nil
}

// Run reads the input until it is exhausted, then flushes all remaining
// aggregates and acknowledges the remaining complete checkpoints. The first
// error stops the run, in that case the remaining aggregates are discarded.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "pipeline").Logger()
	ctx = logger.WithContext(ctx)

	p.start.Run(ctx)

	t, tctx := tomb.WithContext(ctx)
	t.Go(func() error {
		g, gctx := errgroup.WithContext(tctx)
		g.Go(func() error {
			return p.ingress(gctx)
		})
		for i := range p.lanes {
			lane := i
			g.Go(func() error {
				return p.runLane(gctx, lane)
			})
		}
		err := g.Wait()
		if err == nil {
			// input is exhausted and all lanes are drained, stop the
			// background goroutines
			t.Kill(nil)
		}
		return err
	})
	t.Go(func() error {
		// flushes started before the input was exhausted have to finish, so
		// the flusher doesn't use the tomb context
		return p.runBackgroundFlusher(ctx, t.Dying())
	})
	t.Go(func() error {
		// a failing reconciler fails the run
		select {
		case <-p.reconciler.Dying():
			return p.reconciler.Err()
		case <-t.Dying():
			return nil
		}
	})
	t.Go(func() error {
		p.mem.LogUtilization(tctx, p.cfg.MemoryLogInterval)
		return nil
	})

	err := t.Wait()
	for _, q := range p.lanes {
		// release memory of records still queued after a failure
		q.Close()
		for {
			sc, ok, _ := q.Poll(ctx, 0)
			if !ok {
				break
			}
			if sc.Reservation != nil {
				sc.Reservation.Release()
			}
		}
	}

	err = p.completion.Apply(ctx, err)
	res := p.stats.result()
	if err != nil {
		return res, err
	}
	logger.Info().Int("streams", len(res.Streams)).Msg("pipeline finished")
	return res, nil
}

func (p *Pipeline) runLane(ctx context.Context, lane int) error {
	q := p.lanes[lane]
	for {
		sc, err := q.Take(ctx)
		if errors.Is(err, queue.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.process(ctx, sc); err != nil {
			return fmt.Errorf("lane %d: %w", lane, err)
		}
	}
}

// runBackgroundFlusher flushes aggregates that exceeded their maximum age and
// evicts aggregates when memory runs low.
func (p *Pipeline) runBackgroundFlusher(ctx context.Context, dying <-chan struct{}) error {
	ticker := time.NewTicker(p.cfg.StaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-dying:
			return nil
		case <-ticker.C:
			if p.cfg.Trigger.MaxAge > 0 {
				for _, e := range p.store.RemoveStale(time.Now()) {
					if err := p.flushAndReport(ctx, e); err != nil {
						return err
					}
				}
			}
		case <-p.pressure:
			// someone is waiting for memory, make room even if the threshold
			// is not reached
			if err := p.evictBiggest(ctx); err != nil {
				return err
			}
		}
		for p.mem.Utilization() >= p.cfg.MemoryPressureThreshold && p.store.Len() > 0 {
			if err := p.evictBiggest(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) signalPressure() {
	select {
	case p.pressure <- struct{}{}:
	default:
	}
}

func (p *Pipeline) laneFor(key aggregate.Key) int {
	if len(p.lanes) == 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.Stream.Namespace))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key.Stream.Name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key.Partition))
	return int(h.Sum32() % uint32(len(p.lanes)))
}
