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

package devnull

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	cdk "github.com/airbytehq/airbyte-sub034"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/matryer/is"
)

func TestAcceptance(t *testing.T) {
	cdk.AcceptanceTest(t, cdk.AcceptanceTestConfig{
		SpecFactory:        Specification,
		DestinationFactory: NewDestination,
		DestinationConfig: map[string]any{
			ConfigMode:     "logging",
			ConfigLogEvery: float64(3),
		},
	})
}

func TestDestination_Failing(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	catalog := message.NewCatalog(&message.DestinationStream{
		Descriptor: message.StreamDescriptor{Name: "users"},
	})
	var in strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&in, `{"type":"RECORD","record":{"stream":"users","data":{"id":%d},"emitted_at":1700000000000}}`+"\n", i)
	}

	var out bytes.Buffer
	err := cdk.Write(ctx, NewDestination(), map[string]any{
		ConfigMode:      "failing",
		ConfigFailAfter: float64(3),
	}, catalog, strings.NewReader(in.String()), &out, cdk.DefaultPipelineConfig())
	is.True(errors.Is(err, ErrFailing))
	is.Equal(out.Len(), 0) // nothing was committed, nothing acknowledged
}

func TestDestination_InvalidMode(t *testing.T) {
	is := is.New(t)
	err := cdk.Write(context.Background(), NewDestination(), map[string]any{
		ConfigMode: "loud",
	}, message.NewCatalog(), strings.NewReader(""), &bytes.Buffer{}, cdk.DefaultPipelineConfig())
	is.True(errors.Is(err, cdk.ErrInclusionValidationFail))
}

func TestLoader_RecordsPerLoader(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	w := &Writer{config: Config{Mode: ModeSilent, RecordsPerLoader: 2}}
	stream := &message.DestinationStream{Descriptor: message.StreamDescriptor{Name: "users"}}

	l, err := w.Create(ctx, stream, 0)
	is.NoErr(err)

	res, err := l.Accept(ctx, &message.Record{})
	is.NoErr(err)
	is.Equal(res, cdk.DirectLoadIncomplete)
	is.Equal(w.Committed(), int64(0))

	res, err = l.Accept(ctx, &message.Record{})
	is.NoErr(err)
	is.Equal(res, cdk.DirectLoadComplete)
	is.Equal(w.Committed(), int64(2))
	is.NoErr(l.Close(ctx))

	l, err = w.Create(ctx, stream, 0)
	is.NoErr(err)
	_, err = l.Accept(ctx, &message.Record{})
	is.NoErr(err)
	is.NoErr(l.Finish(ctx))
	is.Equal(w.Committed(), int64(3))
}

func TestLoader_ThrottledCanceled(t *testing.T) {
	is := is.New(t)
	w := &Writer{config: Config{Mode: ModeThrottled, Throttle: time.Hour}}
	l, err := w.Create(context.Background(), &message.DestinationStream{}, 0)
	is.NoErr(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Accept(ctx, &message.Record{})
	is.True(errors.Is(err, context.Canceled))
}

func BenchmarkDestination(b *testing.B) {
	cdk.BenchmarkDestination(b, NewDestination(), map[string]any{
		ConfigMode: "silent",
	})
}
