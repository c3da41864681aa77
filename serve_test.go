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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/goccy/go-json"
	"github.com/matryer/is"
	"go.uber.org/mock/gomock"
)

// testDestination writes all records into countingLoaders.
type testDestination struct {
	UnimplementedDestination
	loaders []*countingLoader
	config  map[string]any
}

func (d *testDestination) Parameters() map[string]Parameter {
	return map[string]Parameter{
		"host": {Type: ParameterTypeString, Validations: []Validation{ValidationRequired{}}},
		"port": {Type: ParameterTypeInt, Default: "6379"},
	}
}

func (d *testDestination) Check(context.Context, map[string]any) error { return nil }

func (d *testDestination) Open(_ context.Context, cfg map[string]any, _ *message.Catalog) (DestinationWriter, error) {
	d.config = cfg
	return &testWriter{d: d}, nil
}

type testWriter struct {
	d *testDestination
}

func (w *testWriter) Setup(context.Context) error { return nil }
func (w *testWriter) CreateStreamLoader(context.Context, *message.DestinationStream) (StreamLoader, error) {
	return noopStreamLoader{}, nil
}
func (w *testWriter) Teardown(context.Context) error { return nil }
func (w *testWriter) LoadStrategy() LoadStrategy {
	return DirectLoadStrategy{Factory: directFunc(func() DirectLoader {
		l := &countingLoader{}
		w.d.loaders = append(w.d.loaders, l)
		return l
	})}
}

type noopStreamLoader struct{}

func (noopStreamLoader) Start(context.Context) error       { return nil }
func (noopStreamLoader) Close(context.Context, bool) error { return nil }

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type protocolLine struct {
	Type             string         `json:"type"`
	Spec             *message.Spec  `json:"spec"`
	Trace            *message.Trace `json:"trace"`
	ConnectionStatus *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"connectionStatus"`
}

func parseOutput(t *testing.T, out string) []protocolLine {
	var lines []protocolLine
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if l == "" {
			continue
		}
		var pl protocolLine
		if err := json.Unmarshal([]byte(l), &pl); err != nil {
			t.Fatalf("invalid output line %q: %v", l, err)
		}
		lines = append(lines, pl)
	}
	return lines
}

func testConnector(d Destination) Connector {
	return Connector{
		NewSpecification: func() Specification {
			return Specification{Name: "destination-test", Summary: "test"}
		},
		NewDestination: func() Destination { return d },
		PipelineConfig: testPipelineConfig,
	}
}

func TestRun_Spec(t *testing.T) {
	is := is.New(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--spec"}, strings.NewReader(""), &stdout, &stderr, nil, testConnector(&testDestination{}))
	is.Equal(code, 0)

	lines := parseOutput(t, stdout.String())
	is.Equal(len(lines), 1)
	is.Equal(lines[0].Type, "SPEC")
	is.Equal(lines[0].Spec.ConnectionSpecification["title"], "destination-test")
	props := lines[0].Spec.ConnectionSpecification["properties"].(map[string]any)
	is.Equal(len(props), 2)
}

func TestRun_Check(t *testing.T) {
	testCases := []struct {
		name       string
		config     string
		checkErr   error
		wantStatus string
	}{{
		name:       "success",
		config:     `{"host":"localhost"}`,
		wantStatus: "SUCCEEDED",
	}, {
		name:       "check fails",
		config:     `{"host":"localhost"}`,
		checkErr:   errors.New("connection refused"),
		wantStatus: "FAILED",
	}, {
		name:       "invalid config",
		config:     `{"port":1}`,
		wantStatus: "FAILED",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			ctrl := gomock.NewController(t)
			dst := NewMockDestination(ctrl)
			dst.EXPECT().Parameters().Return((&testDestination{}).Parameters()).AnyTimes()
			if tc.config != `{"port":1}` {
				dst.EXPECT().Check(gomock.Any(), gomock.Any()).Return(tc.checkErr)
			}

			var stdout, stderr bytes.Buffer
			args := []string{"--check", "--config", writeFile(t, "config.json", tc.config)}
			code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr, nil, testConnector(dst))
			is.Equal(code, 0)

			lines := parseOutput(t, stdout.String())
			is.Equal(len(lines), 1)
			is.Equal(lines[0].Type, "CONNECTION_STATUS")
			is.Equal(lines[0].ConnectionStatus.Status, tc.wantStatus)
		})
	}
}

func TestRun_Write(t *testing.T) {
	is := is.New(t)
	d := &testDestination{}

	catalog := `{"streams":[{"stream":{"name":"a","json_schema":{}},"destination_sync_mode":"append"}]}`
	args := []string{
		"--write",
		"--config", writeFile(t, "config.json", `{"host":"localhost"}`),
		"--catalog", writeFile(t, "catalog.json", catalog),
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(syncInput(4, true, "a")), &stdout, &stderr, nil, testConnector(d))
	is.Equal(code, 0)

	lines := parseOutput(t, stdout.String())
	is.Equal(len(lines), 1)
	is.Equal(lines[0].Type, "STATE")

	is.Equal(len(d.loaders), 1)
	is.Equal(d.loaders[0].accepted, 4)
	is.True(d.loaders[0].finished)
	is.True(d.loaders[0].closed)
	is.Equal(d.config["port"], int64(6379)) // default applied
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		args        func(t *testing.T) []string
		failureType string
	}{{
		name:        "no command",
		args:        func(*testing.T) []string { return nil },
		failureType: message.FailureTypeSystemError,
	}, {
		name:        "two commands",
		args:        func(*testing.T) []string { return []string{"--spec", "--check"} },
		failureType: message.FailureTypeSystemError,
	}, {
		name:        "unknown flag",
		args:        func(*testing.T) []string { return []string{"--spec", "--foo"} },
		failureType: message.FailureTypeConfigError,
	}, {
		name:        "discover",
		args:        func(*testing.T) []string { return []string{"--discover"} },
		failureType: message.FailureTypeConfigError,
	}, {
		name: "missing catalog",
		args: func(t *testing.T) []string {
			return []string{"--write", "--config", writeFile(t, "config.json", `{"host":"localhost"}`)}
		},
		failureType: message.FailureTypeConfigError,
	}, {
		name: "invalid config",
		args: func(t *testing.T) []string {
			return []string{"--write", "--config", writeFile(t, "config.json", `[1,2]`)}
		},
		failureType: message.FailureTypeConfigError,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tc.args(t), strings.NewReader(""), &stdout, &stderr, nil, testConnector(&testDestination{}))
			is.Equal(code, 1)

			lines := parseOutput(t, stdout.String())
			is.Equal(len(lines), 1)
			is.Equal(lines[0].Type, "TRACE")
			is.Equal(lines[0].Trace.Error.FailureType, tc.failureType)
		})
	}
}

func TestRun_WriteUnknownStream(t *testing.T) {
	is := is.New(t)

	catalog := `{"streams":[{"stream":{"name":"a","json_schema":{}},"destination_sync_mode":"append"}]}`
	args := []string{
		"--write",
		"--config", writeFile(t, "config.json", `{"host":"localhost"}`),
		"--catalog", writeFile(t, "catalog.json", catalog),
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(syncInput(1, true, "b")), &stdout, &stderr, nil, testConnector(&testDestination{}))
	is.Equal(code, 1)

	lines := parseOutput(t, stdout.String())
	is.Equal(lines[len(lines)-1].Type, "TRACE")
	is.Equal(lines[len(lines)-1].Trace.Error.FailureType, message.FailureTypeConfigError)
}
