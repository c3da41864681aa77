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
	"fmt"
	"sync"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/message"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// RemoteObject is a staged object ready to be loaded.
type RemoteObject struct {
	Key       string
	Stream    message.StreamDescriptor
	Partition int
	Records   int64
	Bytes     int64
}

// ObjectWriter writes records into a single staged object.
type ObjectWriter interface {
	Write(ctx context.Context, rec *message.Record) error
	// Finish uploads the object and returns a reference to it.
	Finish(ctx context.Context) (RemoteObject, error)
	// Abort drops the object, it is called instead of Finish if the sync
	// fails before the object is complete.
	Abort(ctx context.Context) error
}

// ObjectStager creates objects in an intermediate object store.
type ObjectStager interface {
	NewObject(ctx context.Context, stream *message.DestinationStream, partition int) (ObjectWriter, error)
}

// BulkLoader loads staged objects into the destination.
type BulkLoader interface {
	// Load is called once per object. Objects of the same stream partition
	// are never loaded concurrently.
	Load(ctx context.Context, obj RemoteObject) error
	Close(ctx context.Context) error
}

type BulkLoaderFactory interface {
	Create(ctx context.Context, stream *message.DestinationStream, partition int) (BulkLoader, error)
}

// BulkLoadStrategy stages records into objects and loads each object once it
// is complete.
type BulkLoadStrategy struct {
	Stager  ObjectStager
	Factory BulkLoaderFactory

	// ObjectSizeBytes completes an object once it contains this many bytes.
	// Zero leaves it to the aggregate triggers of the pipeline.
	ObjectSizeBytes int64
	// MaxNumConcurrentLoads caps the number of Load calls running at the same
	// time, across all streams.
	MaxNumConcurrentLoads int
	NumPartitions         int
	Partitioner           Partitioner
}

func (s BulkLoadStrategy) bind(catalog *message.Catalog, cfg PipelineConfig) (strategyBinding, error) {
	if s.Stager == nil || s.Factory == nil {
		return strategyBinding{}, fmt.Errorf("bulk load strategy needs an object stager and a loader factory")
	}
	partitions := max(s.NumPartitions, 1)
	loads := semaphore.NewWeighted(int64(max(s.MaxNumConcurrentLoads, 1)))
	keys := &keyLocks{locks: make(map[aggregate.Key]*semaphore.Weighted)}
	return strategyBinding{
		factory: func(ctx context.Context, key aggregate.Key) (aggregate.Aggregate, error) {
			stream, err := streamOf(catalog, key)
			if err != nil {
				return nil, err
			}
			w, err := s.Stager.NewObject(ctx, stream, partitionOf(key))
			if err != nil {
				return nil, err
			}
			return &bulkAggregate{
				strategy:  s,
				loads:     loads,
				keys:      keys,
				key:       key,
				stream:    stream,
				partition: partitionOf(key),
				writer:    w,
			}, nil
		},
		partition:     partitionFunc(s.Partitioner, partitions),
		lanes:         partitions,
		maxAggregates: max(cfg.MaxConcurrentAggregates, 1),
	}, nil
}

// keyLocks serializes the loads of a stream partition. Objects of the same
// key can complete concurrently when an evicted aggregate is flushed in the
// background while its lane fills a new one.
type keyLocks struct {
	m     sync.Mutex
	locks map[aggregate.Key]*semaphore.Weighted
}

func (k *keyLocks) acquire(ctx context.Context, key aggregate.Key) (release func(), err error) {
	k.m.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		k.locks[key] = l
	}
	k.m.Unlock()

	if err := l.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.Release(1) }, nil
}

type bulkAggregate struct {
	strategy  BulkLoadStrategy
	loads     *semaphore.Weighted
	keys      *keyLocks
	key       aggregate.Key
	stream    *message.DestinationStream
	partition int

	writer ObjectWriter
	bytes  int64
}

func (a *bulkAggregate) Accept(ctx context.Context, rec *message.Record) (aggregate.Status, error) {
	if err := a.writer.Write(ctx, rec); err != nil {
		return aggregate.Incomplete, err
	}
	a.bytes += rec.SerializedSize
	if a.strategy.ObjectSizeBytes > 0 && a.bytes >= a.strategy.ObjectSizeBytes {
		return aggregate.Complete, nil
	}
	return aggregate.Incomplete, nil
}

func (a *bulkAggregate) Flush(ctx context.Context) error {
	obj, err := a.writer.Finish(ctx)
	if err != nil {
		// the partially uploaded object is dropped
		return multierr.Append(
			fmt.Errorf("failed to stage object: %w", err),
			a.writer.Abort(ctx),
		)
	}

	release, err := a.keys.acquire(ctx, a.key)
	if err != nil {
		return err
	}
	defer release()
	if err := a.loads.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.loads.Release(1)

	loader, err := a.strategy.Factory.Create(ctx, a.stream, a.partition)
	if err != nil {
		return err
	}
	err = loader.Load(ctx, obj)
	if err != nil {
		err = fmt.Errorf("failed to load object %s: %w", obj.Key, err)
	}
	return multierr.Append(err, loader.Close(ctx))
}

func (a *bulkAggregate) Close(ctx context.Context) error {
	return a.writer.Abort(ctx)
}
