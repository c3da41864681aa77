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

// Package devnull implements a destination that drops all records. It is used
// to test the platform and to measure the throughput of the pipeline.
package devnull

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	cdk "github.com/airbytehq/airbyte-sub034"
	"github.com/airbytehq/airbyte-sub034/message"
)

// ErrFailing is returned in failing mode once the configured number of
// records was accepted.
var ErrFailing = errors.New("dev-null destination failed on purpose")

// Connector combines all constructors of the dev-null destination.
var Connector = cdk.Connector{
	NewSpecification: Specification,
	NewDestination:   NewDestination,
}

func Specification() cdk.Specification {
	return cdk.Specification{
		Name:             "destination-dev-null",
		Summary:          "Drops all records, optionally logging, throttling or failing on purpose.",
		Version:          "v0.1.0",
		Author:           "Airbyte",
		DocumentationURL: "https://docs.airbyte.com/integrations/destinations/dev-null",
		SupportedSyncModes: []message.DestinationSyncMode{
			message.SyncModeAppend,
			message.SyncModeOverwrite,
			message.SyncModeAppendDedup,
		},
	}
}

type Destination struct {
	cdk.UnimplementedDestination
}

func NewDestination() cdk.Destination {
	return cdk.DestinationWithMiddleware(&Destination{}, cdk.DefaultDestinationMiddleware()...)
}

func (d *Destination) Parameters() map[string]cdk.Parameter {
	return parameters()
}

func (d *Destination) Check(_ context.Context, cfg map[string]any) error {
	var config Config
	return cdk.Util.ParseConfig(cfg, &config)
}

func (d *Destination) Open(ctx context.Context, cfg map[string]any, _ *message.Catalog) (cdk.DestinationWriter, error) {
	var config Config
	if err := cdk.Util.ParseConfig(cfg, &config); err != nil {
		return nil, err
	}
	cdk.Logger(ctx).Info().Str("mode", string(config.Mode)).Msg("opening dev-null destination")
	return &Writer{config: config}, nil
}

// Writer counts the records of a sync.
type Writer struct {
	config Config

	accepted  atomic.Int64
	committed atomic.Int64
}

func (w *Writer) Setup(context.Context) error { return nil }

func (w *Writer) CreateStreamLoader(_ context.Context, stream *message.DestinationStream) (cdk.StreamLoader, error) {
	return &streamLoader{stream: stream}, nil
}

func (w *Writer) LoadStrategy() cdk.LoadStrategy {
	return cdk.DirectLoadStrategy{Factory: w}
}

func (w *Writer) Teardown(ctx context.Context) error {
	cdk.Logger(ctx).Info().
		Int64("accepted", w.accepted.Load()).
		Int64("committed", w.committed.Load()).
		Msg("dev-null destination done")
	return nil
}

// Committed returns the number of records committed so far.
func (w *Writer) Committed() int64 {
	return w.committed.Load()
}

// Create implements cdk.DirectLoaderFactory.
func (w *Writer) Create(_ context.Context, stream *message.DestinationStream, partition int) (cdk.DirectLoader, error) {
	return &loader{w: w, stream: stream.Descriptor, partition: partition}, nil
}

type loader struct {
	w         *Writer
	stream    message.StreamDescriptor
	partition int
	records   int64
}

func (l *loader) Accept(ctx context.Context, rec *message.Record) (cdk.DirectLoadResult, error) {
	n := l.w.accepted.Add(1)
	l.records++

	switch l.w.config.Mode {
	case ModeLogging:
		if l.w.config.LogEvery > 0 && n%l.w.config.LogEvery == 0 {
			cdk.Logger(ctx).Info().
				Stringer("stream", l.stream).
				Interface("data", rec.Data).
				Msg("record")
		}
	case ModeThrottled:
		select {
		case <-ctx.Done():
			return cdk.DirectLoadIncomplete, ctx.Err()
		case <-time.After(l.w.config.Throttle):
		}
	case ModeFailing:
		if n > l.w.config.FailAfter {
			return cdk.DirectLoadIncomplete, fmt.Errorf("record %d of stream %s: %w", n, l.stream, ErrFailing)
		}
	}

	if l.w.config.RecordsPerLoader > 0 && l.records >= l.w.config.RecordsPerLoader {
		l.commit()
		return cdk.DirectLoadComplete, nil
	}
	return cdk.DirectLoadIncomplete, nil
}

func (l *loader) Finish(context.Context) error {
	l.commit()
	return nil
}

func (l *loader) commit() {
	l.w.committed.Add(l.records)
}

func (l *loader) Close(context.Context) error { return nil }

type streamLoader struct {
	stream *message.DestinationStream
}

func (s *streamLoader) Start(ctx context.Context) error {
	cdk.Logger(ctx).Debug().Stringer("stream", s.stream.Descriptor).Msg("stream started")
	return nil
}

func (s *streamLoader) Close(ctx context.Context, completedSuccessfully bool) error {
	cdk.Logger(ctx).Debug().
		Stringer("stream", s.stream.Descriptor).
		Bool("completed_successfully", completedSuccessfully).
		Msg("stream closed")
	return nil
}
