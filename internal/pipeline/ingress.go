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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/internal/memory"
	"github.com/airbytehq/airbyte-sub034/internal/state"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/rs/zerolog"
)

// ingress reads protocol messages from the input and hands records to their
// lane. Checkpoints are registered with the state store together with the
// number of records read in their window. The lanes are closed once the input
// is exhausted.
func (p *Pipeline) ingress(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	lines, errs, stop := p.readLines()
	defer stop()

	w := newWindows()
	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return fmt.Errorf("could not read input: %w", err)
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return fmt.Errorf("could not read input: %w", err)
				default:
				}
				for _, q := range p.lanes {
					q.Close()
				}
				logger.Debug().Int("checkpoints", w.closed).Msg("input exhausted")
				return nil
			}
			line = l
		}

		msg, err := message.Decode(line)
		if err != nil {
			return err
		}

		switch msg := msg.(type) {
		case *message.DestinationRecordRaw:
			if _, ok := p.cfg.Catalog.Stream(msg.Stream); !ok {
				return message.NewConfigError("received a record for stream %s which is not present in the catalog", msg.Stream)
			}
			msg.CheckpointID = w.add(msg.Stream)
			p.stats.emitted(msg.Stream)
			p.metrics.RecordsRead.WithLabelValues(msg.Stream.String()).Inc()

			if err := p.enqueue(ctx, msg); err != nil {
				return err
			}
		case *message.Checkpoint:
			id, counts, err := w.close(msg)
			if err != nil {
				return err
			}
			var received int64
			for stream, n := range counts {
				received += n
				// expected counts go first, the checkpoint must not look
				// complete before they are known
				p.states.AcceptExpectedCounts(stream, state.Histogram{id: n})
			}
			if msg.SourceRecordCount != nil && *msg.SourceRecordCount != received {
				logger.Warn().
					Int64("checkpoint", int64(id)).
					Int64("source_records", *msg.SourceRecordCount).
					Int64("received_records", received).
					Msg("record count of checkpoint does not match the number of records received")
			}
			if err := p.states.AcceptState(id, msg); err != nil {
				return err
			}
			p.metrics.StatesPending.Set(float64(p.states.Pending()))
			p.reconciler.Wake()
		case *message.StreamComplete:
			logger.Info().Stringer("stream", msg.Stream).Msg("stream complete")
			if p.cfg.OnStreamComplete != nil {
				p.cfg.OnStreamComplete(msg.Stream)
			}
		case *message.Trace:
			logger.Debug().Str("trace_type", string(msg.Type)).Msg("received trace message")
		case *message.Control:
			logger.Debug().RawJSON("control", msg.Raw).Msg("received control message")
		case *message.Ignored:
			logger.Trace().Str("type", string(msg.Type)).Msg("ignoring message")
		}
	}
}

// windows assigns records to checkpoint windows. With STREAM checkpoints every
// stream has its own sequence of windows, with GLOBAL checkpoints all streams
// share one. The kind is fixed by the first checkpoint, records read before
// it are in window 0 either way.
type windows struct {
	kind   message.CheckpointType
	cur    map[message.StreamDescriptor]message.CheckpointID
	global message.CheckpointID
	counts map[message.StreamDescriptor]int64
	closed int
}

func newWindows() *windows {
	return &windows{
		cur:    make(map[message.StreamDescriptor]message.CheckpointID),
		counts: make(map[message.StreamDescriptor]int64),
	}
}

// add counts a record of stream and returns the id of its window.
func (w *windows) add(stream message.StreamDescriptor) message.CheckpointID {
	w.counts[stream]++
	if w.kind == message.CheckpointTypeGlobal {
		return w.global
	}
	return w.cur[stream]
}

// close closes the window(s) ended by checkpoint c and returns the id of the
// window together with the number of records read in it per stream.
func (w *windows) close(c *message.Checkpoint) (message.CheckpointID, map[message.StreamDescriptor]int64, error) {
	if w.kind == "" {
		w.kind = c.Type
	}
	if c.Type != w.kind {
		return 0, nil, message.NewConfigError("received a %s state after %s states, state types can't be mixed", c.Type, w.kind)
	}
	w.closed++

	if c.Type == message.CheckpointTypeGlobal {
		id, counts := w.global, w.counts
		w.global++
		w.counts = make(map[message.StreamDescriptor]int64)
		return id, counts, nil
	}

	stream := c.Streams[0]
	id := w.cur[stream]
	counts := map[message.StreamDescriptor]int64{stream: w.counts[stream]}
	w.cur[stream]++
	delete(w.counts, stream)
	return id, counts, nil
}

func (p *Pipeline) enqueue(ctx context.Context, raw *message.DestinationRecordRaw) error {
	key := aggregate.Key{Stream: raw.Stream}
	if p.cfg.Partition != nil {
		key.Partition = p.cfg.Partition(raw)
	}

	res, err := p.reserve(ctx, raw.SerializedSize)
	if err != nil {
		return err
	}
	sc := &StageContext{
		Reservation: res,
		Raw:         raw,
		Key:         key,
	}
	if err := p.lanes[p.laneFor(key)].Put(ctx, sc, raw.SerializedSize); err != nil {
		res.Release()
		return err
	}
	return nil
}

// reserve takes n bytes from the global memory budget. While memory is not
// available the background flusher is asked to evict aggregates. A record
// bigger than the whole budget gets the whole budget.
func (p *Pipeline) reserve(ctx context.Context, n int64) (*memory.Reservation, error) {
	if budget := p.mem.Max(); n > budget {
		n = budget
	}
	if res, ok := p.mem.TryReserve(n); ok {
		return res, nil
	}

	start := time.Now()
	for {
		p.signalPressure()

		rctx, cancel := context.WithTimeout(ctx, p.cfg.PressureRetryInterval)
		res, err := p.mem.Reserve(rctx, n)
		cancel()
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if p.cfg.MemoryReserveTimeout > 0 && time.Since(start) >= p.cfg.MemoryReserveTimeout {
			return nil, fmt.Errorf("%w: requested %d bytes after %v", memory.ErrReserveTimeout, n, p.cfg.MemoryReserveTimeout)
		}
	}
}

// readLines reads the input in a separate goroutine so that a blocked read
// doesn't keep ingress from noticing a canceled context. Calling stop lets the
// goroutine return as soon as its current read finishes.
func (p *Pipeline) readLines() (<-chan []byte, <-chan error, func()) {
	lines := make(chan []byte)
	errs := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(lines)
		r := bufio.NewReaderSize(p.cfg.Input, 1<<20)
		for {
			line, err := r.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- bytes.TrimRight(line, "\r\n"):
				case <-done:
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()
	return lines, errs, func() { close(done) }
}
