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
	"time"

	cdk "github.com/airbytehq/airbyte-sub034"
)

// Mode decides what the destination does with the records it receives.
type Mode string

const (
	ModeSilent    Mode = "silent"
	ModeLogging   Mode = "logging"
	ModeThrottled Mode = "throttled"
	ModeFailing   Mode = "failing"
)

const (
	ConfigMode             = "mode"
	ConfigLogEvery         = "log_every"
	ConfigThrottle         = "throttle"
	ConfigFailAfter        = "fail_after"
	ConfigRecordsPerLoader = "records_per_loader"
)

type Config struct {
	Mode Mode `json:"mode"`
	// LogEvery logs every n-th record in logging mode.
	LogEvery int64 `json:"log_every"`
	// Throttle is the delay per record in throttled mode.
	Throttle time.Duration `json:"throttle"`
	// FailAfter is the number of records accepted before failing in failing
	// mode.
	FailAfter int64 `json:"fail_after"`
	// RecordsPerLoader completes a loader after this many records, zero
	// keeps a loader open until the stream ends.
	RecordsPerLoader int64 `json:"records_per_loader"`
}

func parameters() map[string]cdk.Parameter {
	return map[string]cdk.Parameter{
		ConfigMode: {
			Default:     string(ModeSilent),
			Description: "What to do with the records.",
			Type:        cdk.ParameterTypeString,
			Validations: []cdk.Validation{
				cdk.ValidationInclusion{List: []string{string(ModeSilent), string(ModeLogging), string(ModeThrottled), string(ModeFailing)}},
			},
		},
		ConfigLogEvery: {
			Default:     "1000",
			Description: "Log every n-th record in logging mode.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{cdk.ValidationGreaterThan{Value: 0}},
		},
		ConfigThrottle: {
			Default:     "10ms",
			Description: "Delay per record in throttled mode.",
			Type:        cdk.ParameterTypeDuration,
		},
		ConfigFailAfter: {
			Default:     "0",
			Description: "Number of records accepted before the destination fails in failing mode.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{cdk.ValidationGreaterThan{Value: -1}},
		},
		ConfigRecordsPerLoader: {
			Default:     "0",
			Description: "Commit a batch after this many records, 0 commits once per stream.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{cdk.ValidationGreaterThan{Value: -1}},
		},
	}
}
