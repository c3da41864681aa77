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
	"strings"
	"time"

	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
)

const envPipelinePrefix = "CDK_"

// PipelineConfig tunes the data flow between the input and the loaders. The
// connector provides defaults, each field can be overwritten with an
// environment variable named after the json tag in upper case with the prefix
// CDK_, e.g. CDK_MEMORY_BYTES.
type PipelineConfig struct {
	// MemoryBytes is the budget for records held in memory.
	MemoryBytes int64 `json:"memory_bytes"`
	// MemoryReserveTimeout fails the sync if a record waits this long for
	// memory. Zero waits forever.
	MemoryReserveTimeout time.Duration `json:"memory_reserve_timeout"`
	// MemoryPressureThreshold is the utilization of the memory budget at
	// which the biggest aggregates are flushed early.
	MemoryPressureThreshold float64 `json:"memory_pressure_threshold"`
	// LaneQueueBytes is the budget of each lane queue.
	LaneQueueBytes int64 `json:"lane_queue_bytes"`

	// MaxConcurrentAggregates caps the number of aggregates (loaders) alive
	// at the same time.
	MaxConcurrentAggregates int `json:"max_concurrent_aggregates"`
	// MaxRecordsPerAggregate flushes an aggregate after this many records,
	// zero disables the trigger.
	MaxRecordsPerAggregate int64 `json:"max_records_per_aggregate"`
	// MaxBytesPerAggregate flushes an aggregate after this many bytes, zero
	// disables the trigger.
	MaxBytesPerAggregate int64 `json:"max_bytes_per_aggregate"`
	// MaxAggregateAge flushes aggregates older than this, zero disables the
	// trigger.
	MaxAggregateAge time.Duration `json:"max_aggregate_age"`

	StaleCheckInterval time.Duration `json:"stale_check_interval"`
	ReconcileInterval  time.Duration `json:"reconcile_interval"`
	MemoryLogInterval  time.Duration `json:"memory_log_interval"`

	// CloseTimeout bounds StreamLoader.Close and DestinationWriter.Teardown.
	CloseTimeout time.Duration `json:"close_timeout"`

	// MetricsAddr is the address of the prometheus endpoint. Empty disables
	// the endpoint.
	MetricsAddr string `json:"metrics_addr"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MemoryBytes:             256 << 20,
		MemoryPressureThreshold: 0.8,
		LaneQueueBytes:          16 << 20,
		MaxConcurrentAggregates: 5,
		MaxBytesPerAggregate:    64 << 20,
		MaxAggregateAge:         time.Minute * 15,
		StaleCheckInterval:      time.Second * 5,
		ReconcileInterval:       time.Second,
		MemoryLogInterval:       time.Minute,
		CloseTimeout:            time.Minute * 5,
	}
}

// PipelineConfigFromEnv overwrites fields in defaults with the CDK_ variables
// found in environ (formatted as returned by os.Environ).
func PipelineConfigFromEnv(environ []string, defaults PipelineConfig) (PipelineConfig, error) {
	raw := make(map[string]any)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, envPipelinePrefix) {
			continue
		}
		raw[strings.ToLower(strings.TrimPrefix(k, envPipelinePrefix))] = v
	}

	cfg := defaults
	if err := parseConfig(raw, &cfg); err != nil {
		return PipelineConfig{}, err
	}
	return cfg, nil
}

func (c PipelineConfig) trigger() aggregate.Trigger {
	return aggregate.Trigger{
		MaxRecords: c.MaxRecordsPerAggregate,
		MaxBytes:   c.MaxBytesPerAggregate,
		MaxAge:     c.MaxAggregateAge,
	}
}
