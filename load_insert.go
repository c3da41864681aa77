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
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/goccy/go-json"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// InsertAcceptResult is returned by InsertLoaderRequestBuilder.Accept. It is
// either InsertNoOutput or InsertRequest.
type InsertAcceptResult interface {
	isInsertAcceptResult()
}

// InsertNoOutput means the builder wants more records.
type InsertNoOutput struct{}

// InsertRequest means the builder produced a request, it won't receive any
// more records.
type InsertRequest struct {
	Request InsertLoaderRequest
}

func (InsertNoOutput) isInsertAcceptResult() {}
func (InsertRequest) isInsertAcceptResult()  {}

// InsertLoaderRequest is an IO bound request built from a batch of records.
type InsertLoaderRequest interface {
	Submit(ctx context.Context) error
}

// InsertLoaderRequestBuilder builds a request from records of one stream
// partition. A builder produces a single request and is never reused.
type InsertLoaderRequestBuilder interface {
	Accept(ctx context.Context, rec *message.Record) (InsertAcceptResult, error)
	// Finish returns the request for the records accepted so far, nil if
	// there is nothing to submit. It is never called after Accept returned a
	// request.
	Finish(ctx context.Context) (InsertLoaderRequest, error)
	// Close is always called once when the builder is done.
	Close(ctx context.Context) error
}

type InsertLoader interface {
	CreateRequestBuilder(ctx context.Context, stream *message.DestinationStream, partition int) (InsertLoaderRequestBuilder, error)
}

// InsertPartitioning decides which builder a record goes to.
type InsertPartitioning int

const (
	// InsertByStream keeps the records of a stream in order.
	InsertByStream InsertPartitioning = iota
	// InsertByPrimaryKey keeps records with the same primary key in order.
	// Records without a primary key are spread randomly.
	InsertByPrimaryKey
	// InsertRandom spreads records randomly.
	InsertRandom
)

// InsertLoadStrategy separates building requests from submitting them, so
// that builders and executors can be scaled independently.
type InsertLoadStrategy struct {
	Loader InsertLoader

	NumRequestBuilders  int
	NumRequestExecutors int
	Partitioning        InsertPartitioning
}

func (s InsertLoadStrategy) bind(catalog *message.Catalog, cfg PipelineConfig) (strategyBinding, error) {
	if s.Loader == nil {
		return strategyBinding{}, fmt.Errorf("insert load strategy needs a loader")
	}
	builders := max(s.NumRequestBuilders, 1)
	executors := semaphore.NewWeighted(int64(max(s.NumRequestExecutors, 1)))

	var partition func(*message.DestinationRecordRaw) string
	switch s.Partitioning {
	case InsertByStream:
	case InsertByPrimaryKey:
		partition = partitionFunc(primaryKeyPartitioner(catalog), builders)
	case InsertRandom:
		partition = partitionFunc(randomPartitioner, builders)
	default:
		return strategyBinding{}, fmt.Errorf("unknown insert partitioning %d", s.Partitioning)
	}

	return strategyBinding{
		factory: func(ctx context.Context, key aggregate.Key) (aggregate.Aggregate, error) {
			stream, err := streamOf(catalog, key)
			if err != nil {
				return nil, err
			}
			b, err := s.Loader.CreateRequestBuilder(ctx, stream, partitionOf(key))
			if err != nil {
				return nil, err
			}
			return &insertAggregate{builder: b, executors: executors}, nil
		},
		partition:     partition,
		lanes:         builders,
		maxAggregates: max(cfg.MaxConcurrentAggregates, builders),
	}, nil
}

func randomPartitioner(_ *message.DestinationRecordRaw, n int) int {
	return rand.Intn(n)
}

// primaryKeyPartitioner hashes the primary key of the record. The data is
// decoded here, before the parse stage, to route the record to its lane.
func primaryKeyPartitioner(catalog *message.Catalog) Partitioner {
	return func(raw *message.DestinationRecordRaw, n int) int {
		stream, ok := catalog.Stream(raw.Stream)
		if !ok {
			return randomPartitioner(raw, n)
		}
		pk := stream.PrimaryKey
		if d, ok := stream.ImportType.(message.Dedupe); ok && len(d.PrimaryKey) > 0 {
			pk = d.PrimaryKey
		}
		if len(pk) == 0 {
			return randomPartitioner(raw, n)
		}

		var data map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw.Data))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return randomPartitioner(raw, n)
		}
		values, ok := (&message.Record{Data: data}).PrimaryKey(pk)
		if !ok {
			return randomPartitioner(raw, n)
		}

		h := fnv.New32a()
		for _, v := range values {
			_, _ = fmt.Fprint(h, v)
			_, _ = h.Write([]byte{0})
		}
		return int(h.Sum32() % uint32(n))
	}
}

type insertAggregate struct {
	builder   InsertLoaderRequestBuilder
	executors *semaphore.Weighted
	request   InsertLoaderRequest
}

func (a *insertAggregate) Accept(ctx context.Context, rec *message.Record) (aggregate.Status, error) {
	res, err := a.builder.Accept(ctx, rec)
	if err != nil {
		return aggregate.Incomplete, err
	}
	switch res := res.(type) {
	case InsertRequest:
		a.request = res.Request
		return aggregate.Complete, nil
	case InsertNoOutput, nil:
		return aggregate.Incomplete, nil
	default:
		return aggregate.Incomplete, fmt.Errorf("unexpected accept result %T", res)
	}
}

func (a *insertAggregate) Flush(ctx context.Context) error {
	err := a.submit(ctx)
	return multierr.Append(err, a.builder.Close(ctx))
}

func (a *insertAggregate) submit(ctx context.Context) error {
	req := a.request
	if req == nil {
		var err error
		req, err = a.builder.Finish(ctx)
		if err != nil {
			return err
		}
		if req == nil {
			return nil
		}
	}

	if err := a.executors.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.executors.Release(1)
	if err := req.Submit(ctx); err != nil {
		return fmt.Errorf("failed to submit request: %w", err)
	}
	return nil
}

func (a *insertAggregate) Close(ctx context.Context) error {
	return a.builder.Close(ctx)
}
