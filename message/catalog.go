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
	"fmt"

	"github.com/goccy/go-json"
)

type DestinationSyncMode string

const (
	SyncModeAppend      DestinationSyncMode = "append"
	SyncModeOverwrite   DestinationSyncMode = "overwrite"
	SyncModeAppendDedup DestinationSyncMode = "append_dedup"
	SyncModeUpdate      DestinationSyncMode = "update"
	SyncModeSoftDelete  DestinationSyncMode = "soft_delete"
)

// ImportType describes how records of a stream are merged into the
// destination. It is one of Append, Dedupe, Overwrite, Update or SoftDelete.
type ImportType interface {
	isImportType()
}

type (
	Append struct{}
	// Dedupe keeps only the latest version of each record, identified by the
	// primary key and ordered by the cursor.
	Dedupe struct {
		PrimaryKey [][]string
		Cursor     []string
	}
	Overwrite  struct{}
	Update     struct{}
	SoftDelete struct{}
)

func (Append) isImportType()     {}
func (Dedupe) isImportType()     {}
func (Overwrite) isImportType()  {}
func (Update) isImportType()     {}
func (SoftDelete) isImportType() {}

// DestinationStream is a stream of the configured catalog.
type DestinationStream struct {
	Descriptor StreamDescriptor
	ImportType ImportType
	Schema     json.RawMessage
	PrimaryKey [][]string

	GenerationID        int64
	MinimumGenerationID int64
	SyncID              int64
}

// ShouldTruncate reports whether the sync replaces the data of previous
// generations (truncate refresh) instead of appending to it.
func (s *DestinationStream) ShouldTruncate() bool {
	return s.MinimumGenerationID > 0 && s.MinimumGenerationID == s.GenerationID
}

type Catalog struct {
	Streams []*DestinationStream
	index   map[StreamDescriptor]*DestinationStream
}

// Stream returns the stream with descriptor d.
func (c *Catalog) Stream(d StreamDescriptor) (*DestinationStream, bool) {
	s, ok := c.index[d]
	return s, ok
}

type configuredCatalogJSON struct {
	Streams []struct {
		Stream struct {
			Name       string          `json:"name"`
			Namespace  string          `json:"namespace"`
			JSONSchema json.RawMessage `json:"json_schema"`
		} `json:"stream"`
		DestinationSyncMode DestinationSyncMode `json:"destination_sync_mode"`
		PrimaryKey          [][]string          `json:"primary_key"`
		CursorField         []string            `json:"cursor_field"`
		GenerationID        int64               `json:"generation_id"`
		MinimumGenerationID int64               `json:"minimum_generation_id"`
		SyncID              int64               `json:"sync_id"`
	} `json:"streams"`
}

// ParseCatalog parses a configured catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var cc configuredCatalogJSON
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, NewConfigError("invalid configured catalog: %w", err)
	}

	c := &Catalog{index: make(map[StreamDescriptor]*DestinationStream, len(cc.Streams))}
	for _, s := range cc.Streams {
		d := StreamDescriptor{Namespace: s.Stream.Namespace, Name: s.Stream.Name}
		if d.Name == "" {
			return nil, NewConfigError("configured catalog contains a stream without a name")
		}
		if _, ok := c.index[d]; ok {
			return nil, NewConfigError("configured catalog contains stream %s more than once", d)
		}

		var it ImportType
		switch s.DestinationSyncMode {
		case SyncModeAppend, "":
			it = Append{}
		case SyncModeOverwrite:
			it = Overwrite{}
		case SyncModeAppendDedup:
			it = Dedupe{PrimaryKey: s.PrimaryKey, Cursor: s.CursorField}
		case SyncModeUpdate:
			it = Update{}
		case SyncModeSoftDelete:
			it = SoftDelete{}
		default:
			return nil, NewConfigError("stream %s has unknown destination sync mode %q", d, s.DestinationSyncMode)
		}

		stream := &DestinationStream{
			Descriptor:          d,
			ImportType:          it,
			Schema:              s.Stream.JSONSchema,
			PrimaryKey:          s.PrimaryKey,
			GenerationID:        s.GenerationID,
			MinimumGenerationID: s.MinimumGenerationID,
			SyncID:              s.SyncID,
		}
		c.Streams = append(c.Streams, stream)
		c.index[d] = stream
	}
	return c, nil
}

// NewCatalog builds a catalog from streams. It panics if a stream is listed
// twice.
func NewCatalog(streams ...*DestinationStream) *Catalog {
	c := &Catalog{index: make(map[StreamDescriptor]*DestinationStream, len(streams))}
	for _, s := range streams {
		if _, ok := c.index[s.Descriptor]; ok {
			panic(fmt.Sprintf("stream %s listed twice", s.Descriptor))
		}
		if s.ImportType == nil {
			s.ImportType = Append{}
		}
		c.Streams = append(c.Streams, s)
		c.index[s.Descriptor] = s
	}
	return c
}
