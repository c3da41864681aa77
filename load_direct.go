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

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/message"
	"go.uber.org/multierr"
)

// DirectLoadResult is returned by DirectLoader.Accept.
type DirectLoadResult int

const (
	// DirectLoadIncomplete means the loader wants more records.
	DirectLoadIncomplete DirectLoadResult = iota
	// DirectLoadComplete means the loader committed its batch, it won't
	// receive any more records.
	DirectLoadComplete
)

func (r DirectLoadResult) String() string {
	if r == DirectLoadComplete {
		return "complete"
	}
	return "incomplete"
}

// DirectLoader writes records of one stream partition straight to the
// destination. A loader handles a single batch and is never reused.
type DirectLoader interface {
	// Accept is called for each record until it returns DirectLoadComplete.
	Accept(ctx context.Context, rec *message.Record) (DirectLoadResult, error)
	// Finish commits the records accepted so far. It is called at the end of
	// the stream or when memory runs low, never after Accept returned
	// DirectLoadComplete.
	Finish(ctx context.Context) error
	// Close is always called once when the batch ends, whether it succeeded
	// or not. It cleans up, it must not commit any data.
	Close(ctx context.Context) error
}

type DirectLoaderFactory interface {
	// Create is called when the first record of a batch arrives for the
	// stream partition.
	Create(ctx context.Context, stream *message.DestinationStream, partition int) (DirectLoader, error)
}

// DirectLoadStrategy feeds records one by one into DirectLoaders.
type DirectLoadStrategy struct {
	Factory DirectLoaderFactory

	// NumInputPartitions is the number of partitions a stream is spread
	// across, each partition is processed by its own lane. Records are only
	// spread if a Partitioner is set.
	NumInputPartitions int
	// MaxConcurrentLoadersPerPartition caps the number of loaders per
	// partition alive at the same time.
	MaxConcurrentLoadersPerPartition int
	Partitioner                      Partitioner
}

func (s DirectLoadStrategy) bind(catalog *message.Catalog, cfg PipelineConfig) (strategyBinding, error) {
	if s.Factory == nil {
		return strategyBinding{}, errors.New("direct load strategy needs a loader factory")
	}
	partitions := max(s.NumInputPartitions, 1)
	perPartition := max(s.MaxConcurrentLoadersPerPartition, 1)
	return strategyBinding{
		factory: func(ctx context.Context, key aggregate.Key) (aggregate.Aggregate, error) {
			stream, err := streamOf(catalog, key)
			if err != nil {
				return nil, err
			}
			loader, err := s.Factory.Create(ctx, stream, partitionOf(key))
			if err != nil {
				return nil, err
			}
			return &directAggregate{loader: loader}, nil
		},
		partition:     partitionFunc(s.Partitioner, partitions),
		lanes:         partitions,
		maxAggregates: clamp(partitions*perPartition, 1, cfg.MaxConcurrentAggregates),
	}, nil
}

type directAggregate struct {
	loader   DirectLoader
	complete bool
}

func (a *directAggregate) Accept(ctx context.Context, rec *message.Record) (aggregate.Status, error) {
	res, err := a.loader.Accept(ctx, rec)
	if err != nil {
		return aggregate.Incomplete, err
	}
	if res == DirectLoadComplete {
		a.complete = true
		return aggregate.Complete, nil
	}
	return aggregate.Incomplete, nil
}

func (a *directAggregate) Flush(ctx context.Context) error {
	var err error
	if !a.complete {
		err = a.loader.Finish(ctx)
	}
	return multierr.Append(err, a.loader.Close(ctx))
}

func (a *directAggregate) Close(ctx context.Context) error {
	return a.loader.Close(ctx)
}
