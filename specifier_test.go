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
	"regexp"
	"testing"

	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
)

func TestSpecification_ToMessage(t *testing.T) {
	is := is.New(t)

	spec := Specification{
		Name:             "destination-test",
		Summary:          "Test destination",
		DocumentationURL: "https://example.com/docs",
		SupportedSyncModes: []message.DestinationSyncMode{
			message.SyncModeAppend,
			message.SyncModeOverwrite,
		},
	}
	params := map[string]Parameter{
		"host": {
			Description: "host name",
			Type:        ParameterTypeString,
			Validations: []Validation{ValidationRequired{}, ValidationRegex{Regex: regexp.MustCompile("^[a-z.]+$")}},
		},
		"port": {
			Default:     "6379",
			Type:        ParameterTypeInt,
			Validations: []Validation{ValidationGreaterThan{Value: 0}, ValidationLessThan{Value: 65536}},
		},
		"password": {
			Type:        ParameterTypeString,
			Secret:      true,
			Validations: []Validation{ValidationRequired{}},
		},
		"mode": {
			Type:        ParameterTypeString,
			Validations: []Validation{ValidationInclusion{List: []string{"a", "b"}}},
		},
	}

	got := spec.toMessage(params)
	want := message.Spec{
		DocumentationURL: "https://example.com/docs",
		ConnectionSpecification: map[string]any{
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"title":                "destination-test",
			"description":          "Test destination",
			"type":                 "object",
			"required":             []string{"host", "password"},
			"additionalProperties": true,
			"properties": map[string]any{
				"host": map[string]any{
					"type":        "string",
					"description": "host name",
					"pattern":     "^[a-z.]+$",
				},
				"port": map[string]any{
					"type":             "integer",
					"default":          int64(6379),
					"exclusiveMinimum": float64(0),
					"exclusiveMaximum": float64(65536),
				},
				"password": map[string]any{
					"type":           "string",
					"airbyte_secret": true,
				},
				"mode": map[string]any{
					"type": "string",
					"enum": []string{"a", "b"},
				},
			},
		},
		SupportsIncremental: true,
		SupportedDestinationSyncModes: []message.DestinationSyncMode{
			message.SyncModeAppend,
			message.SyncModeOverwrite,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected spec (-want +got):\n%s", diff)
	}
	is.True(got.SupportsIncremental)
}

func TestSpecification_DefaultSyncMode(t *testing.T) {
	is := is.New(t)
	got := Specification{}.toMessage(nil)
	is.Equal(got.SupportedDestinationSyncModes, []message.DestinationSyncMode{message.SyncModeAppend})
	is.Equal(got.ConnectionSpecification["required"], []string{})
}
