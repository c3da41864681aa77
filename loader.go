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


//go:generate mockgen -destination=mock_loader_test.go -self_package=github.com/airbytehq/airbyte-sub034 -package=cdk -write_package_comment=false . DirectLoader,DirectLoaderFactory,InsertLoader,InsertLoaderRequestBuilder,InsertLoaderRequest

package cdk

import (
	"fmt"
	"strconv"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/message"
)

// LoadStrategy describes how a destination turns records into committed
// writes. It is one of DirectLoadStrategy, BulkLoadStrategy or
// InsertLoadStrategy and is chosen once per sync.
type LoadStrategy interface {
	bind(catalog *message.Catalog, cfg PipelineConfig) (strategyBinding, error)
}

// strategyBinding is what the pipeline needs from a load strategy.
type strategyBinding struct {
	factory       aggregate.Factory
	partition     func(*message.DestinationRecordRaw) string
	lanes         int
	maxAggregates int
}

// Partitioner returns the partition of a record, a number in
// [0, numPartitions).
type Partitioner func(rec *message.DestinationRecordRaw, numPartitions int) int

func partitionFunc(p Partitioner, numPartitions int) func(*message.DestinationRecordRaw) string {
	if p == nil || numPartitions <= 1 {
		// all records of a stream share one partition
		return nil
	}
	return func(rec *message.DestinationRecordRaw) string {
		n := p(rec, numPartitions) % numPartitions
		if n < 0 {
			n += numPartitions
		}
		return strconv.Itoa(n)
	}
}

// partitionOf returns the partition number encoded in key.
func partitionOf(key aggregate.Key) int {
	if key.Partition == "" {
		return 0
	}
	n, err := strconv.Atoi(key.Partition)
	if err != nil {
		return 0
	}
	return n
}

func streamOf(catalog *message.Catalog, key aggregate.Key) (*message.DestinationStream, error) {
	stream, ok := catalog.Stream(key.Stream)
	if !ok {
		return nil, fmt.Errorf("stream %s not found in catalog", key.Stream)
	}
	return stream, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
