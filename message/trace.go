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

package message

import (
	"time"

	"github.com/goccy/go-json"
)

type TraceType string

const (
	TraceTypeError        TraceType = "ERROR"
	TraceTypeEstimate     TraceType = "ESTIMATE"
	TraceTypeStreamStatus TraceType = "STREAM_STATUS"
	TraceTypeAnalytics    TraceType = "ANALYTICS"
)

const (
	FailureTypeConfigError = "config_error"
	FailureTypeSystemError = "system_error"
)

type StreamStatusType string

const (
	StreamStatusStarted    StreamStatusType = "STARTED"
	StreamStatusRunning    StreamStatusType = "RUNNING"
	StreamStatusComplete   StreamStatusType = "COMPLETE"
	StreamStatusIncomplete StreamStatusType = "INCOMPLETE"
)

type Trace struct {
	Type         TraceType       `json:"type"`
	EmittedAt    float64         `json:"emitted_at"`
	Error        *TraceError     `json:"error,omitempty"`
	StreamStatus *StreamStatus   `json:"stream_status,omitempty"`
	Estimate     json.RawMessage `json:"estimate,omitempty"`
	Analytics    json.RawMessage `json:"analytics,omitempty"`
}

type TraceError struct {
	Message         string `json:"message"`
	InternalMessage string `json:"internal_message,omitempty"`
	StackTrace      string `json:"stack_trace,omitempty"`
	FailureType     string `json:"failure_type"`
}

type StreamStatus struct {
	StreamDescriptor StreamDescriptor `json:"stream_descriptor"`
	Status           StreamStatusType `json:"status"`
}

func (t *Trace) isMessage() {}

// StreamComplete is a STREAM_STATUS trace with status COMPLETE, sent by the
// platform after the last record of a stream.
type StreamComplete struct {
	Stream    StreamDescriptor
	EmittedAt time.Time
}

func (s *StreamComplete) isMessage() {}

// Control is a CONTROL message. Destinations currently ignore them.
type Control struct {
	Raw json.RawMessage
}

func (c *Control) isMessage() {}

// ErrorTrace builds the TRACE message reported when the connector fails.
// User facing messages are only exposed for config errors.
func ErrorTrace(err error, now time.Time) *Trace {
	te := &TraceError{
		InternalMessage: err.Error(),
		FailureType:     FailureType(err),
	}
	if te.FailureType == FailureTypeConfigError {
		te.Message = err.Error()
	} else {
		te.Message = "Something went wrong in the connector. See the logs for more details."
	}
	return &Trace{
		Type:      TraceTypeError,
		EmittedAt: float64(now.UnixMilli()),
		Error:     te,
	}
}
