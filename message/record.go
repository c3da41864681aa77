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
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Columns added to every record written by a destination.
const (
	ColumnRawID        = "_airbyte_raw_id"
	ColumnExtractedAt  = "_airbyte_extracted_at"
	ColumnMeta         = "_airbyte_meta"
	ColumnGenerationID = "_airbyte_generation_id"
	ColumnData         = "_airbyte_data"
)

// CheckpointID identifies the checkpoint window a record was read in. It
// increases by one with every STATE message on the input.
type CheckpointID int64

// Change describes a modification the source or destination applied to a
// field, e.g. nulling a value that was too big.
type Change struct {
	Field  string `json:"field"`
	Change string `json:"change"`
	Reason string `json:"reason"`
}

type RecordMeta struct {
	SyncID  int64    `json:"sync_id,omitempty"`
	Changes []Change `json:"changes"`
}

// DestinationRecordRaw is a record as it was read from the input. The data is
// not decoded until the record reaches the parse stage.
type DestinationRecordRaw struct {
	Stream    StreamDescriptor
	Data      json.RawMessage
	EmittedAt time.Time
	Changes   []Change
	// SerializedSize is the size of the protocol message the record was read
	// from and is the number of bytes charged against the memory budget.
	SerializedSize int64
	CheckpointID   CheckpointID
}

type recordJSON struct {
	Namespace string          `json:"namespace,omitempty"`
	Stream    string          `json:"stream"`
	Data      json.RawMessage `json:"data"`
	EmittedAt int64           `json:"emitted_at"`
	Meta      *struct {
		Changes []Change `json:"changes"`
	} `json:"meta,omitempty"`
}

func (r *DestinationRecordRaw) isMessage() {}

// Munge decodes the record data and stamps the columns a destination adds to
// every record.
func (r *DestinationRecordRaw) Munge(stream *DestinationStream) (*Record, error) {
	data := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(r.Data))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode data of record in stream %s: %w", r.Stream, err)
	}
	if data == nil {
		return nil, fmt.Errorf("record in stream %s has no data", r.Stream)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("could not generate record id: %w", err)
	}

	changes := r.Changes
	if changes == nil {
		changes = []Change{}
	}
	return &Record{
		Stream:       r.Stream,
		RawID:        id,
		ExtractedAt:  r.EmittedAt,
		GenerationID: stream.GenerationID,
		Data:         data,
		Meta: RecordMeta{
			SyncID:  stream.SyncID,
			Changes: changes,
		},
		SerializedSize: r.SerializedSize,
		CheckpointID:   r.CheckpointID,
	}, nil
}

// Record is a decoded record ready to be written by a destination.
type Record struct {
	Stream       StreamDescriptor
	RawID        uuid.UUID
	ExtractedAt  time.Time
	GenerationID int64
	Data         map[string]any
	Meta         RecordMeta

	SerializedSize int64
	CheckpointID   CheckpointID
}

// Airbyte returns the record in the raw table format: the Airbyte columns
// plus the record data as a nested object.
func (r *Record) Airbyte() map[string]any {
	return map[string]any{
		ColumnRawID:        r.RawID.String(),
		ColumnExtractedAt:  r.ExtractedAt.UnixMilli(),
		ColumnMeta:         r.Meta,
		ColumnGenerationID: r.GenerationID,
		ColumnData:         r.Data,
	}
}

// PrimaryKey returns the values of the primary key fields in the record data.
// Nested keys are resolved by following the path. The boolean is false if any
// of the fields is missing.
func (r *Record) PrimaryKey(pk [][]string) ([]any, bool) {
	if len(pk) == 0 {
		return nil, false
	}
	out := make([]any, 0, len(pk))
	for _, path := range pk {
		v, ok := lookup(r.Data, path)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func lookup(data map[string]any, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var cur any = data
	for _, field := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[field]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
