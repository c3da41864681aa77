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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airbyte_destination"

// Metrics holds the collectors of a pipeline run.
type Metrics struct {
	RecordsRead      *prometheus.CounterVec
	RecordsCommitted *prometheus.CounterVec
	BytesCommitted   *prometheus.CounterVec
	Flushes          *prometheus.CounterVec
	FlushDuration    prometheus.Histogram
	Evictions        prometheus.Counter
	StatesAcked      prometheus.Counter
	StatesPending    prometheus.Gauge
	Aggregates       prometheus.Gauge
	MemoryUsed       prometheus.Gauge
}

// New creates the pipeline collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Number of records read from the input.",
		}, []string{"stream"}),
		RecordsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_committed_total",
			Help:      "Number of records durably written to the destination.",
		}, []string{"stream"}),
		BytesCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_committed_total",
			Help:      "Serialized size of the records durably written to the destination.",
		}, []string{"stream"}),
		Flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Number of aggregate flushes by result.",
		}, []string{"result"}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time it took to flush an aggregate.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_evictions_total",
			Help:      "Number of aggregates flushed early to make room for another one.",
		}),
		StatesAcked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_acked_total",
			Help:      "Number of checkpoints acknowledged to the platform.",
		}),
		StatesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "states_pending",
			Help:      "Number of checkpoints waiting for their records to be committed.",
		}),
		Aggregates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregates",
			Help:      "Number of open aggregates.",
		}),
		MemoryUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_bytes",
			Help:      "Bytes reserved against the memory budget.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RecordsRead,
			m.RecordsCommitted,
			m.BytesCommitted,
			m.Flushes,
			m.FlushDuration,
			m.Evictions,
			m.StatesAcked,
			m.StatesPending,
			m.Aggregates,
			m.MemoryUsed,
		)
	}
	return m
}

// ObserveFlush records the outcome of a flush that started at start.
func (m *Metrics) ObserveFlush(start time.Time, err error) {
	m.FlushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.Flushes.WithLabelValues("error").Inc()
		return
	}
	m.Flushes.WithLabelValues("success").Inc()
}
