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

//go:generate mockgen -destination=mock_aggregate_test.go -package=aggregate -write_package_comment=false . Aggregate

// Package aggregate groups records into batches that are written to the
// destination in one go.
package aggregate

import (
	"context"
	"fmt"

	"github.com/airbytehq/airbyte-sub034/message"
)

type Status int

const (
	Incomplete Status = iota
	Complete
)

func (s Status) String() string {
	switch s {
	case Incomplete:
		return "Incomplete"
	case Complete:
		return "Complete"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Aggregate accumulates records of one key until they are flushed.
type Aggregate interface {
	// Accept adds the record to the aggregate. Returning Complete signals that
	// the aggregate should be flushed now.
	Accept(ctx context.Context, r *message.Record) (Status, error)
	// Flush durably writes all accepted records. It is called at most once,
	// after which the aggregate is discarded.
	Flush(ctx context.Context) error
}

// Closer is implemented by aggregates that hold resources which need to be
// cleaned up when the aggregate is discarded without being flushed.
type Closer interface {
	Close(ctx context.Context) error
}

// Key identifies an aggregate. There is at most one open aggregate per key.
type Key struct {
	Stream    message.StreamDescriptor
	Partition string
}

func (k Key) String() string {
	if k.Partition == "" {
		return k.Stream.String()
	}
	return fmt.Sprintf("%s[%s]", k.Stream, k.Partition)
}

// Factory creates the aggregate for key. It is called while the store is
// locked, so it should not block.
type Factory func(ctx context.Context, key Key) (Aggregate, error)
