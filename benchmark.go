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
	"io"
	"sync"
	"testing"
	"time"

	"github.com/airbytehq/airbyte-sub034/message"
	"golang.org/x/sync/errgroup"
)

// BenchmarkDestination is a benchmark that any destination implementation can
// run to figure out its performance. It writes b.N records of a single stream
// through the whole pipeline, the destination resource should be prepared
// before the benchmark is executed.
// The function should be manually called from a benchmark function:
//
//	func BenchmarkConnector(b *testing.B) {
//	    // set up test dependencies ...
//	    cdk.BenchmarkDestination(
//	        b,
//	        NewDestination(),
//	        map[string]any{...}, // valid destination config
//	    )
//	}
//
// The benchmark can be run with a specific number of records by supplying the
// option -benchtime=Nx, where N is the number of records to be benchmarked
// (e.g. -benchtime=100x benchmarks writing 100 records).
func BenchmarkDestination(
	b *testing.B,
	d Destination,
	cfg map[string]any,
) {
	bm := benchmarkDestination{
		dest:   d,
		config: cfg,
	}
	bm.Run(b)
}

const benchmarkStateEvery = 1000

type benchmarkDestination struct {
	dest   Destination
	config map[string]any

	// measures
	check    time.Duration
	write    time.Duration
	firstAck time.Duration
	acks     int
	records  int64
}

func (bm *benchmarkDestination) Run(b *testing.B) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := make(map[string]any, len(bm.config))
	for k, v := range bm.config {
		config[k] = v
	}
	if err := applyConfigValidations(bm.dest.Parameters(), config); err != nil {
		b.Fatal(err)
	}

	bm.check = bm.measure(func() {
		if err := bm.dest.Check(ctx, config); err != nil {
			b.Fatal("Check:", err)
		}
	})

	stream := message.StreamDescriptor{Name: "benchmark"}
	catalog := message.NewCatalog(&message.DestinationStream{
		Descriptor: stream,
		ImportType: message.Append{},
	})

	pr, pw := io.Pipe()
	var g errgroup.Group
	g.Go(func() error {
		err := bm.produce(pw, stream.Name, b.N)
		return pw.CloseWithError(err)
	})

	out := &benchmarkEmitter{start: time.Now()}
	var err error
	bm.write = bm.measure(func() {
		r, werr := write(ctx, bm.dest, config, catalog, pr, out, DefaultPipelineConfig(), nil)
		bm.records = r.Stream(stream).CommittedRecords
		err = werr
	})
	_ = pr.Close()
	if err != nil {
		b.Fatal("Write:", err)
	}
	if err := g.Wait(); err != nil {
		b.Fatal("input:", err)
	}
	bm.firstAck, bm.acks = out.result()

	// report gathered metrics
	bm.reportMetrics(b)
}

func (*benchmarkDestination) produce(w io.Writer, stream string, n int) error {
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, `{"type":"RECORD","record":{"stream":%q,"data":{"id":%d,"name":"record %d"},"emitted_at":%d}}`+"\n",
			stream, i, i, time.Now().UnixMilli()); err != nil {
			return err
		}
		if (i+1)%benchmarkStateEvery == 0 || i == n-1 {
			if _, err := fmt.Fprintf(w, `{"type":"STATE","state":{"type":"STREAM","stream":{"stream_descriptor":{"name":%q},"stream_state":{"cursor":%d}}}}`+"\n",
				stream, i); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, `{"type":"TRACE","trace":{"type":"STREAM_STATUS","emitted_at":%d,"stream_status":{"stream_descriptor":{"name":%q},"status":"COMPLETE"}}}`+"\n",
		time.Now().UnixMilli(), stream)
	return err
}

func (*benchmarkDestination) measure(f func()) time.Duration {
	start := time.Now()
	f()
	return time.Since(start)
}

func (bm *benchmarkDestination) reportMetrics(b *testing.B) {
	b.ReportMetric(0, "ns/op") // suppress ns/op metric, it is misleading in this benchmark

	b.ReportMetric(bm.check.Seconds(), "check")
	b.ReportMetric(bm.write.Seconds(), "write")
	b.ReportMetric(bm.firstAck.Seconds(), "firstAck")
	b.ReportMetric(float64(bm.acks), "acks")
	b.ReportMetric(float64(bm.records)/bm.write.Seconds(), "records/s")
}

// benchmarkEmitter counts the acknowledged checkpoints.
type benchmarkEmitter struct {
	m        sync.Mutex
	start    time.Time
	firstAck time.Duration
	acks     int
}

func (e *benchmarkEmitter) WriteRaw([]byte) error {
	e.m.Lock()
	defer e.m.Unlock()
	if e.acks == 0 {
		e.firstAck = time.Since(e.start)
	}
	e.acks++
	return nil
}

func (e *benchmarkEmitter) result() (time.Duration, int) {
	e.m.Lock()
	defer e.m.Unlock()
	return e.firstAck, e.acks
}
