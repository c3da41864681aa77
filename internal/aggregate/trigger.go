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

package aggregate

import (
	"time"
)

// Trigger decides when an aggregate is flushed independently of what the
// aggregate itself reports. A zero threshold is disabled.
type Trigger struct {
	// MaxRecords flushes the aggregate once it holds this many records.
	MaxRecords int64
	// MaxBytes flushes the aggregate once its records take up this many
	// bytes.
	MaxBytes int64
	// MaxAge flushes the aggregate once it was open for this long, even if it
	// doesn't receive any more records.
	MaxAge time.Duration
}

// Reached reports whether an aggregate with the given size should be flushed.
func (t Trigger) Reached(records, bytes int64) bool {
	if t.MaxRecords > 0 && records >= t.MaxRecords {
		return true
	}
	if t.MaxBytes > 0 && bytes >= t.MaxBytes {
		return true
	}
	return false
}

// Stale reports whether an aggregate created at createdAt is too old at now.
func (t Trigger) Stale(createdAt, now time.Time) bool {
	return t.MaxAge > 0 && now.Sub(createdAt) >= t.MaxAge
}
