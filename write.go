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

package cdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/airbytehq/airbyte-sub034/internal"
	"github.com/airbytehq/airbyte-sub034/internal/csync"
	"github.com/airbytehq/airbyte-sub034/internal/memory"
	"github.com/airbytehq/airbyte-sub034/internal/metrics"
	"github.com/airbytehq/airbyte-sub034/internal/pipeline"
	"github.com/airbytehq/airbyte-sub034/internal/state"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Write runs a single sync of dest without going through Serve, records are
// read from in and checkpoint acknowledgements are written to out. The config
// is validated against the destination parameters first. It is meant for
// tests and for embedding a destination into another program.
func Write(
	ctx context.Context,
	dest Destination,
	config map[string]any,
	catalog *message.Catalog,
	in io.Reader,
	out io.Writer,
	cfg PipelineConfig,
) error {
	validated := make(map[string]any, len(config))
	for k, v := range config {
		validated[k] = v
	}
	if err := applyConfigValidations(dest.Parameters(), validated); err != nil {
		return err
	}
	_, err := write(ctx, dest, validated, catalog, in, message.NewWriter(out), cfg, nil)
	return err
}

func write(
	ctx context.Context,
	dest Destination,
	config map[string]any,
	catalog *message.Catalog,
	in io.Reader,
	out state.Emitter,
	cfg PipelineConfig,
	reg prometheus.Registerer,
) (pipeline.Result, error) {
	w, err := dest.Open(ctx, config, catalog)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("failed to open destination: %w", err)
	}
	return newWriteRun(w, catalog, cfg, reg).Run(ctx, in, out)
}

// streamHandle tracks a single stream through the sync.
type streamHandle struct {
	stream *message.DestinationStream
	loader StreamLoader
	state  internal.StreamLifecycle
	// ended is set when the platform signals the end of the stream.
	ended atomic.Bool
}

// writeRun drives a DestinationWriter through a single sync.
type writeRun struct {
	writer  DestinationWriter
	catalog *message.Catalog
	cfg     PipelineConfig

	streams map[message.StreamDescriptor]*streamHandle
	// registry receives the pipeline metrics, nil skips registration.
	registry prometheus.Registerer
}

func newWriteRun(w DestinationWriter, catalog *message.Catalog, cfg PipelineConfig, reg prometheus.Registerer) *writeRun {
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultPipelineConfig().CloseTimeout
	}
	r := &writeRun{
		writer:   w,
		catalog:  catalog,
		cfg:      cfg,
		streams:  make(map[message.StreamDescriptor]*streamHandle, len(catalog.Streams)),
		registry: reg,
	}
	for _, s := range catalog.Streams {
		r.streams[s.Descriptor] = &streamHandle{stream: s}
	}
	return r
}

// Run executes the sync. Records are read from in, checkpoint
// acknowledgements are written to out. Teardown is called even if an earlier
// step failed, all errors are combined in the returned error.
func (r *writeRun) Run(ctx context.Context, in io.Reader, out state.Emitter) (pipeline.Result, error) {
	logger := Logger(ctx).With().Str("component", "writer").Logger()
	ctx = logger.WithContext(ctx)

	var (
		res    pipeline.Result
		runErr error
	)
	if err := r.writer.Setup(ctx); err != nil {
		runErr = fmt.Errorf("setup failed: %w", err)
	} else {
		startErr := r.startStreams(ctx)
		var moveErr error
		res, moveErr = r.move(ctx, in, out)
		closeErr := r.closeStreams(ctx, moveErr == nil)
		runErr = multierr.Combine(moveErr, startErr, closeErr)
	}

	tctx, cancel := internal.DetachWithTimeout(ctx, r.cfg.CloseTimeout)
	defer cancel()
	if err := csync.Run(tctx, func() error { return r.writer.Teardown(tctx) }); err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("teardown failed: %w", err))
	}

	if runErr != nil {
		logger.Error().Err(runErr).Msg("sync failed")
		return res, runErr
	}
	if incomplete := r.incompleteStreams(); len(incomplete) > 0 {
		return res, &StreamsIncompleteError{Streams: incomplete}
	}
	logger.Info().Int("streams", len(r.streams)).Msg("sync finished")
	return res, nil
}

// startStreams creates and starts the loader of every stream concurrently. A
// stream that fails to start is skipped, its error is returned after all
// streams were attempted.
func (r *writeRun) startStreams(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		m    sync.Mutex
		errs error
	)
	for _, s := range r.catalog.Streams {
		h := r.streams[s.Descriptor]
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := h.state.Start(func() error {
				loader, err := r.writer.CreateStreamLoader(ctx, h.stream)
				if err != nil {
					return err
				}
				h.loader = loader
				return loader.Start(ctx)
			})
			if err != nil {
				Logger(ctx).Err(err).Stringer("stream", h.stream.Descriptor).Msg("stream failed to start")
				m.Lock()
				errs = multierr.Append(errs, &StreamStartError{Stream: h.stream.Descriptor, Err: err})
				m.Unlock()
				return
			}
			Logger(ctx).Debug().Stringer("stream", h.stream.Descriptor).Msg("stream started")
		}()
	}
	wg.Wait()
	return errs
}

// move runs the pipeline that moves the records from in to the loaders.
func (r *writeRun) move(ctx context.Context, in io.Reader, out state.Emitter) (pipeline.Result, error) {
	strategy := r.writer.LoadStrategy()
	if strategy == nil {
		return pipeline.Result{}, errors.New("destination writer returned no load strategy")
	}
	b, err := strategy.bind(r.catalog, r.cfg)
	if err != nil {
		return pipeline.Result{}, err
	}

	m := metrics.New(r.registry)
	p, err := pipeline.New(pipeline.Config{
		Catalog:   r.catalog,
		Input:     in,
		Output:    out,
		Factory:   b.factory,
		Partition: b.partition,
		SkipStream: func(d message.StreamDescriptor) bool {
			h, ok := r.streams[d]
			return !ok || h.state.Get() != internal.StateStarted
		},
		OnStreamComplete: func(d message.StreamDescriptor) {
			if h, ok := r.streams[d]; ok {
				h.ended.Store(true)
			}
		},
		Lanes:                   b.lanes,
		LaneQueueBytes:          r.cfg.LaneQueueBytes,
		Trigger:                 r.cfg.trigger(),
		MaxAggregates:           b.maxAggregates,
		Memory:                  memory.NewManager(r.cfg.MemoryBytes, memory.WithUsageGauge(m.MemoryUsed)),
		MemoryReserveTimeout:    r.cfg.MemoryReserveTimeout,
		MemoryPressureThreshold: r.cfg.MemoryPressureThreshold,
		StaleCheckInterval:      r.cfg.StaleCheckInterval,
		ReconcileInterval:       r.cfg.ReconcileInterval,
		MemoryLogInterval:       r.cfg.MemoryLogInterval,
		Metrics:                 m,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return p.Run(ctx)
}

// closeStreams closes the loader of every stream that was created,
// concurrently and with a fresh timeout so that loaders get to clean up after
// a failed run.
func (r *writeRun) closeStreams(ctx context.Context, runSucceeded bool) error {
	cctx, cancel := internal.DetachWithTimeout(ctx, r.cfg.CloseTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		m    sync.Mutex
		errs error
	)
	for _, h := range r.streams {
		h := h
		if h.loader == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok := runSucceeded && h.state.Get() == internal.StateStarted && h.ended.Load()
			err := h.state.Close(func() error {
				return csync.Run(cctx, func() error { return h.loader.Close(cctx, ok) })
			})
			if err != nil {
				m.Lock()
				errs = multierr.Append(errs, fmt.Errorf("failed to close stream %s: %w", h.stream.Descriptor, err))
				m.Unlock()
				return
			}
			Logger(ctx).Debug().
				Stringer("stream", h.stream.Descriptor).
				Bool("completed_successfully", ok).
				Msg("stream closed")
		}()
	}
	wg.Wait()
	return errs
}

func (r *writeRun) incompleteStreams() []message.StreamDescriptor {
	var out []message.StreamDescriptor
	for d, h := range r.streams {
		if !h.ended.Load() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
