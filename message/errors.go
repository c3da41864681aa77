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
	"errors"
	"fmt"
)

// ConfigError is an error caused by the user's configuration or by input the
// platform should never have sent. It is reported with failure type
// config_error and is never retried.
type ConfigError struct {
	msg   string
	cause error
}

func NewConfigError(format string, args ...any) *ConfigError {
	err := fmt.Errorf(format, args...)
	return &ConfigError{msg: err.Error(), cause: errors.Unwrap(err)}
}

func (e *ConfigError) Error() string { return e.msg }
func (e *ConfigError) Unwrap() error { return e.cause }

// IsConfigError reports whether any error in err's chain is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FailureType returns the failure type reported in the TRACE message for err.
func FailureType(err error) string {
	if IsConfigError(err) {
		return FailureTypeConfigError
	}
	return FailureTypeSystemError
}
