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

// Package message contains the data model of the Airbyte protocol as seen by
// a destination, and the codec for newline delimited protocol messages.
package message

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

type Type string

const (
	TypeRecord           Type = "RECORD"
	TypeState            Type = "STATE"
	TypeTrace            Type = "TRACE"
	TypeControl          Type = "CONTROL"
	TypeLog              Type = "LOG"
	TypeSpec             Type = "SPEC"
	TypeConnectionStatus Type = "CONNECTION_STATUS"
	TypeCatalog          Type = "CATALOG"
)

// Message is a decoded input message. It is one of *DestinationRecordRaw,
// *Checkpoint, *StreamComplete, *Trace, *Control or *Ignored.
type Message interface {
	isMessage()
}

// Ignored is a message a destination has no use for, e.g. a LOG message.
type Ignored struct {
	Type Type
}

func (i *Ignored) isMessage() {}

type envelope struct {
	Type    Type            `json:"type"`
	Record  *recordJSON     `json:"record,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Trace   *Trace          `json:"trace,omitempty"`
	Control json.RawMessage `json:"control,omitempty"`
}

// Decode decodes a single protocol message. The line is not retained.
func Decode(line []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("could not decode protocol message: %w", err)
	}
	size := int64(len(line))

	switch env.Type {
	case TypeRecord:
		if env.Record == nil {
			return nil, fmt.Errorf("RECORD message without record")
		}
		r := &DestinationRecordRaw{
			Stream: StreamDescriptor{
				Namespace: env.Record.Namespace,
				Name:      env.Record.Stream,
			},
			Data:           env.Record.Data,
			EmittedAt:      time.UnixMilli(env.Record.EmittedAt),
			SerializedSize: size,
		}
		if env.Record.Meta != nil {
			r.Changes = env.Record.Meta.Changes
		}
		return r, nil
	case TypeState:
		if env.State == nil {
			return nil, fmt.Errorf("STATE message without state")
		}
		c, err := parseCheckpoint(env.State)
		if err != nil {
			return nil, err
		}
		c.SerializedSize = size
		return c, nil
	case TypeTrace:
		if env.Trace == nil {
			return nil, fmt.Errorf("TRACE message without trace")
		}
		if env.Trace.Type == TraceTypeStreamStatus && env.Trace.StreamStatus != nil {
			switch env.Trace.StreamStatus.Status {
			case StreamStatusComplete:
				return &StreamComplete{
					Stream:    env.Trace.StreamStatus.StreamDescriptor,
					EmittedAt: time.UnixMilli(int64(env.Trace.EmittedAt)),
				}, nil
			case StreamStatusIncomplete:
				return nil, NewConfigError(
					"Received stream status INCOMPLETE message. This indicates a bug in the Airbyte platform. Original message: %s",
					line,
				)
			}
		}
		return env.Trace, nil
	case TypeControl:
		return &Control{Raw: env.Control}, nil
	default:
		return &Ignored{Type: env.Type}, nil
	}
}

// Writer writes protocol messages as newline delimited JSON. It is safe for
// concurrent use.
type Writer struct {
	m sync.Mutex
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRaw writes an already encoded message followed by a newline.
func (w *Writer) WriteRaw(msg []byte) error {
	w.m.Lock()
	defer w.m.Unlock()
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	_, err := w.w.Write(buf)
	return err
}

func (w *Writer) write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode protocol message: %w", err)
	}
	return w.WriteRaw(b)
}

func (w *Writer) WriteTrace(t *Trace) error {
	return w.write(struct {
		Type  Type   `json:"type"`
		Trace *Trace `json:"trace"`
	}{TypeTrace, t})
}

// WriteSpec writes the connector specification.
func (w *Writer) WriteSpec(spec Spec) error {
	return w.write(struct {
		Type Type `json:"type"`
		Spec Spec `json:"spec"`
	}{TypeSpec, spec})
}

type ConnectionStatus string

const (
	ConnectionSucceeded ConnectionStatus = "SUCCEEDED"
	ConnectionFailed    ConnectionStatus = "FAILED"
)

func (w *Writer) WriteConnectionStatus(status ConnectionStatus, msg string) error {
	type connectionStatus struct {
		Status  ConnectionStatus `json:"status"`
		Message string           `json:"message,omitempty"`
	}
	return w.write(struct {
		Type             Type             `json:"type"`
		ConnectionStatus connectionStatus `json:"connectionStatus"`
	}{TypeConnectionStatus, connectionStatus{status, msg}})
}

// Spec is the connector specification returned by --spec.
type Spec struct {
	DocumentationURL              string                `json:"documentationUrl,omitempty"`
	ConnectionSpecification       map[string]any        `json:"connectionSpecification"`
	SupportsIncremental           bool                  `json:"supportsIncremental"`
	SupportedDestinationSyncModes []DestinationSyncMode `json:"supported_destination_sync_modes,omitempty"`
}
