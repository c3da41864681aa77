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
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/matryer/is"
)

// AcceptanceTest is the acceptance test that all destination implementations
// should pass. It should manually be called from a test case in each
// implementation:
//
//	func TestAcceptance(t *testing.T) {
//	    // set up test dependencies ...
//	    cdk.AcceptanceTest(t, cdk.AcceptanceTestConfig{...})
//	}
func AcceptanceTest(t *testing.T, cfg AcceptanceTestConfig) {
	acceptanceTest{config: cfg}.Test(t)
}

type AcceptanceTestConfig struct {
	SpecFactory        func() Specification
	DestinationFactory func() Destination

	// DestinationConfig should be a valid config for the destination.
	DestinationConfig map[string]any
	// PipelineConfig is used for the write tests, DefaultPipelineConfig if
	// nil.
	PipelineConfig func() PipelineConfig
	// Records is the number of records written per stream by the write
	// test. Defaults to 10.
	Records int
}

type acceptanceTest struct {
	config AcceptanceTestConfig
}

func (a acceptanceTest) Test(t *testing.T) {
	a.run(t, a.testSpecifier_Specify_Success)
	a.run(t, a.testDestination_Check_Success)
	a.run(t, a.testDestination_Check_RequiredParams)
	a.run(t, a.testDestination_Write_Success)
	a.run(t, a.testDestination_Write_IncompleteStream)
}

func (acceptanceTest) run(t *testing.T, test func(*testing.T)) {
	name := runtime.FuncForPC(reflect.ValueOf(test).Pointer()).Name()
	name = name[strings.LastIndex(name, ".")+1:]
	name = strings.TrimSuffix(name, "-fm")
	t.Run(name, func(t *testing.T) { test(t) })
}

func (a acceptanceTest) testSpecifier_Specify_Success(t *testing.T) {
	a.hasSpecFactory(t)
	a.hasDestinationFactory(t)
	is := is.NewRelaxed(t) // allow multiple failures for this test

	spec := a.config.SpecFactory()

	is.True(spec.Name != "")                           // Specification.Name is missing
	is.True(strings.TrimSpace(spec.Name) == spec.Name) // Specification.Name starts or ends with whitespace

	is.True(spec.Summary != "")                              // Specification.Summary is missing
	is.True(strings.TrimSpace(spec.Summary) == spec.Summary) // Specification.Summary starts or ends with whitespace

	is.True(spec.Version != "")                              // Specification.Version is missing
	is.True(strings.TrimSpace(spec.Version) == spec.Version) // Specification.Version starts or ends with whitespace

	is.True(spec.Author != "")                             // Specification.Author is missing
	is.True(strings.TrimSpace(spec.Author) == spec.Author) // Specification.Author starts or ends with whitespace

	semverRegex := regexp.MustCompile(`v([0-9]+)(\.[0-9]+)?(\.[0-9]+)?` +
		`(-([0-9A-Za-z\-]+(\.[0-9A-Za-z\-]+)*))?` +
		`(\+([0-9A-Za-z\-]+(\.[0-9A-Za-z\-]+)*))?`)
	is.True(semverRegex.MatchString(spec.Version)) // Specification.Version is not a valid semantic version (vX.Y.Z)

	msg := spec.toMessage(a.config.DestinationFactory().Parameters())
	is.True(len(msg.ConnectionSpecification["properties"].(map[string]any)) > 0) // destination has no parameters
}

func (a acceptanceTest) testDestination_Check_Success(t *testing.T) {
	a.hasDestinationFactory(t)
	is := is.New(t)
	ctx := context.Background()

	dest := a.config.DestinationFactory()
	cfg := a.cloneConfig(a.config.DestinationConfig)
	is.NoErr(applyConfigValidations(dest.Parameters(), cfg))
	is.NoErr(dest.Check(ctx, cfg))
}

func (a acceptanceTest) testDestination_Check_RequiredParams(t *testing.T) {
	a.hasDestinationFactory(t)
	is := is.New(t)

	params := a.config.DestinationFactory().Parameters()
	for name, p := range params {
		if !p.required() || p.Default != "" {
			continue
		}
		// removing the required parameter from the config should provoke an error
		t.Run(name, func(t *testing.T) {
			cfg := a.cloneConfig(a.config.DestinationConfig)
			delete(cfg, name)

			is.Equal(len(cfg)+1, len(a.config.DestinationConfig)) // destination config does not contain required parameter, please check the test setup

			err := applyConfigValidations(params, cfg)
			is.True(IsConfigError(err))
		})
	}
}

func (a acceptanceTest) testDestination_Write_Success(t *testing.T) {
	a.hasDestinationFactory(t)
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	streams := []string{"acceptance_a", "acceptance_b"}
	var out bytes.Buffer
	err := Write(
		ctx,
		a.config.DestinationFactory(),
		a.config.DestinationConfig,
		a.catalog(streams...),
		strings.NewReader(a.input(true, streams...)),
		&out,
		a.pipelineConfig(),
	)
	is.NoErr(err)
	// every stream ends with a state that has to be acknowledged
	is.Equal(strings.Count(out.String(), `"type":"STATE"`), len(streams))
}

func (a acceptanceTest) testDestination_Write_IncompleteStream(t *testing.T) {
	a.hasDestinationFactory(t)
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var out bytes.Buffer
	err := Write(
		ctx,
		a.config.DestinationFactory(),
		a.config.DestinationConfig,
		a.catalog("acceptance_incomplete"),
		strings.NewReader(a.input(false, "acceptance_incomplete")),
		&out,
		a.pipelineConfig(),
	)
	var incomplete *StreamsIncompleteError
	is.True(errors.As(err, &incomplete)) // expected the sync to fail because the stream did not complete
}

func (a acceptanceTest) catalog(streams ...string) *message.Catalog {
	ds := make([]*message.DestinationStream, len(streams))
	for i, s := range streams {
		ds[i] = &message.DestinationStream{
			Descriptor:   message.StreamDescriptor{Name: s},
			ImportType:   message.Append{},
			GenerationID: 1,
			SyncID:       1,
		}
	}
	return message.NewCatalog(ds...)
}

func (a acceptanceTest) input(complete bool, streams ...string) string {
	n := a.config.Records
	if n <= 0 {
		n = 10
	}
	var sb strings.Builder
	for _, s := range streams {
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, `{"type":"RECORD","record":{"stream":%q,"data":{"id":%d,"name":"record %d"},"emitted_at":%d}}`+"\n",
				s, i, i, time.Now().UnixMilli())
		}
		fmt.Fprintf(&sb, `{"type":"STATE","state":{"type":"STREAM","stream":{"stream_descriptor":{"name":%q},"stream_state":{"cursor":%d}}}}`+"\n", s, n)
		if complete {
			fmt.Fprintf(&sb, `{"type":"TRACE","trace":{"type":"STREAM_STATUS","emitted_at":%d,"stream_status":{"stream_descriptor":{"name":%q},"status":"COMPLETE"}}}`+"\n",
				time.Now().UnixMilli(), s)
		}
	}
	return sb.String()
}

func (a acceptanceTest) pipelineConfig() PipelineConfig {
	if a.config.PipelineConfig != nil {
		return a.config.PipelineConfig()
	}
	return DefaultPipelineConfig()
}

func (a acceptanceTest) hasSpecFactory(t *testing.T) {
	if a.config.SpecFactory == nil {
		t.Fatalf("acceptance test config is missing the field SpecFactory")
	}
}

func (a acceptanceTest) hasDestinationFactory(t *testing.T) {
	if a.config.DestinationFactory == nil {
		t.Fatalf("acceptance test config is missing the field DestinationFactory")
	}
}

func (a acceptanceTest) cloneConfig(orig map[string]any) map[string]any {
	cloned := make(map[string]any, len(orig))
	for k, v := range orig {
		cloned[k] = v
	}
	return cloned
}
