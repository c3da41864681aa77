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
	"errors"
	"fmt"
	"strings"

	"github.com/airbytehq/airbyte-sub034/message"
)

var (
	ErrUnimplemented = errors.New("the connector function is not implemented")

	ErrInvalidParameterValue    = errors.New("invalid parameter value")
	ErrInvalidParameterType     = errors.New("invalid parameter type")
	ErrRequiredParameterMissing = errors.New("required parameter is not provided")

	ErrLessThanValidationFail    = errors.New("less than check failed")
	ErrGreaterThanValidationFail = errors.New("greater than check failed")
	ErrInclusionValidationFail   = errors.New("inclusion check failed")
	ErrExclusionValidationFail   = errors.New("exclusion check failed")
	ErrRegexValidationFail       = errors.New("regex check failed")
)

// ConfigError is an error caused by the configuration. It is reported to the
// platform as a config_error and the sync is not retried.
type ConfigError = message.ConfigError

// NewConfigError formats a ConfigError. Errors wrapped with %w can be
// retrieved with errors.Is and errors.As.
func NewConfigError(format string, args ...any) *ConfigError {
	return message.NewConfigError(format, args...)
}

// IsConfigError reports whether err or any error it wraps is a ConfigError.
func IsConfigError(err error) bool {
	return message.IsConfigError(err)
}

// StreamStartError is returned when a stream loader could not be created or
// started. Other streams keep running, the sync fails in the end.
type StreamStartError struct {
	Stream message.StreamDescriptor
	Err    error
}

func (e *StreamStartError) Error() string {
	return fmt.Sprintf("failed to start stream %s: %v", e.Stream, e.Err)
}

func (e *StreamStartError) Unwrap() error { return e.Err }

// StreamsIncompleteError is returned after an otherwise successful sync if
// the platform didn't signal the end of some streams. The sync has to be
// reported as failed so that the platform retries those streams.
type StreamsIncompleteError struct {
	Streams []message.StreamDescriptor
}

func (e *StreamsIncompleteError) Error() string {
	names := make([]string, len(e.Streams))
	for i, s := range e.Streams {
		names[i] = s.String()
	}
	return fmt.Sprintf("streams did not receive a COMPLETE stream status: %s", strings.Join(names, ", "))
}
