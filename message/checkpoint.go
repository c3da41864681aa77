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

type CheckpointType string

const (
	CheckpointTypeStream CheckpointType = "STREAM"
	CheckpointTypeGlobal CheckpointType = "GLOBAL"
	CheckpointTypeLegacy CheckpointType = "LEGACY"
)

// Checkpoint is a STATE message. The state object is kept as it was received
// so that fields the destination doesn't know about survive the round trip
// back to the platform.
type Checkpoint struct {
	Type CheckpointType
	// Streams contains the stream of a STREAM checkpoint, or all streams
	// listed in a GLOBAL checkpoint.
	Streams []StreamDescriptor
	// SourceRecordCount is the number of records the source claims to have
	// emitted in this checkpoint window, if it told us.
	SourceRecordCount *int64

	SerializedSize int64

	fields map[string]json.RawMessage
}

type stateStats struct {
	RecordCount *float64 `json:"recordCount,omitempty"`
}

type streamStateJSON struct {
	StreamDescriptor StreamDescriptor `json:"stream_descriptor"`
}

func (c *Checkpoint) isMessage() {}

func parseCheckpoint(raw json.RawMessage) (*Checkpoint, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid state message: %w", err)
	}
	c := &Checkpoint{fields: fields}

	// a state without a type is a legacy state
	c.Type = CheckpointTypeLegacy
	if t, ok := fields["type"]; ok {
		if err := json.Unmarshal(t, &c.Type); err != nil {
			return nil, fmt.Errorf("invalid state type: %w", err)
		}
	}

	switch c.Type {
	case CheckpointTypeStream:
		var s streamStateJSON
		if err := unmarshalField(fields, "stream", &s); err != nil {
			return nil, err
		}
		c.Streams = []StreamDescriptor{s.StreamDescriptor}
	case CheckpointTypeGlobal:
		var g struct {
			StreamStates []streamStateJSON `json:"stream_states"`
		}
		if err := unmarshalField(fields, "global", &g); err != nil {
			return nil, err
		}
		for _, s := range g.StreamStates {
			c.Streams = append(c.Streams, s.StreamDescriptor)
		}
	case CheckpointTypeLegacy:
		return nil, NewConfigError("legacy state messages are not supported")
	default:
		return nil, fmt.Errorf("unknown state type %q", c.Type)
	}

	if _, ok := fields["sourceStats"]; ok {
		var stats stateStats
		if err := unmarshalField(fields, "sourceStats", &stats); err != nil {
			return nil, err
		}
		if stats.RecordCount != nil {
			n := int64(*stats.RecordCount)
			c.SourceRecordCount = &n
		}
	}
	return c, nil
}

func unmarshalField(fields map[string]json.RawMessage, name string, v any) error {
	raw, ok := fields[name]
	if !ok {
		return fmt.Errorf("state message is missing field %q", name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid field %q in state message: %w", name, err)
	}
	return nil
}

// MarshalAck returns the protocol message acknowledging the checkpoint,
// reporting committed as the number of records the destination committed.
func (c *Checkpoint) MarshalAck(committed int64) ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	n := float64(committed)
	stats, err := json.Marshal(stateStats{RecordCount: &n})
	if err != nil {
		return nil, err
	}
	fields["destinationStats"] = stats

	return json.Marshal(struct {
		Type  Type                       `json:"type"`
		State map[string]json.RawMessage `json:"state"`
	}{
		Type:  TypeState,
		State: fields,
	})
}
