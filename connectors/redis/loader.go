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

package redis

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	cdk "github.com/airbytehq/airbyte-sub034"
	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/goccy/go-json"
	"github.com/jpillora/backoff"
	goredis "github.com/redis/go-redis/v9"
)

// columnDeletedAt marks a record as deleted in CDC streams.
const columnDeletedAt = "_ab_cdc_deleted_at"

// CreateRequestBuilder implements cdk.InsertLoader.
func (w *Writer) CreateRequestBuilder(_ context.Context, stream *message.DestinationStream, _ int) (cdk.InsertLoaderRequestBuilder, error) {
	b := &requestBuilder{
		w:   w,
		key: w.config.writeKey(stream),
	}
	if d, ok := stream.ImportType.(message.Dedupe); ok {
		b.primaryKey = d.PrimaryKey
		if len(b.primaryKey) == 0 {
			b.primaryKey = stream.PrimaryKey
		}
		if len(b.primaryKey) == 0 {
			return nil, cdk.NewConfigError("stream %s is deduplicated but has no primary key", stream.Descriptor)
		}
		b.cursor = d.Cursor
	}
	return b, nil
}

type opKind int

const (
	opPush opKind = iota
	opSet
	opDelete
)

type op struct {
	kind  opKind
	field string
	value []byte
	// cursor is the cursor value of the record, nil if it has none.
	cursor any
}

type requestBuilder struct {
	w          *Writer
	key        string
	primaryKey [][]string
	// cursor is the path of the cursor field of a deduplicated stream.
	cursor []string
	ops    []op
}

func (b *requestBuilder) Accept(_ context.Context, rec *message.Record) (cdk.InsertAcceptResult, error) {
	o, err := b.op(rec)
	if err != nil {
		return nil, err
	}
	b.ops = append(b.ops, o)
	if len(b.ops) >= b.w.config.BatchSize {
		return cdk.InsertRequest{Request: b.request()}, nil
	}
	return cdk.InsertNoOutput{}, nil
}

func (b *requestBuilder) op(rec *message.Record) (op, error) {
	if b.primaryKey == nil {
		value, err := json.Marshal(rec.Airbyte())
		if err != nil {
			return op{}, fmt.Errorf("could not encode record: %w", err)
		}
		return op{kind: opPush, value: value}, nil
	}

	values, ok := rec.PrimaryKey(b.primaryKey)
	if !ok {
		return op{}, cdk.NewConfigError("record of stream %s is missing its primary key", rec.Stream)
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	field := strings.Join(parts, ":")
	cursor := cursorOf(rec.Data, b.cursor)

	if deleted, ok := rec.Data[columnDeletedAt]; ok && deleted != nil {
		return op{kind: opDelete, field: field, cursor: cursor}, nil
	}
	value, err := json.Marshal(rec.Airbyte())
	if err != nil {
		return op{}, fmt.Errorf("could not encode record: %w", err)
	}
	return op{kind: opSet, field: field, value: value, cursor: cursor}, nil
}

func (b *requestBuilder) Finish(context.Context) (cdk.InsertLoaderRequest, error) {
	if len(b.ops) == 0 {
		return nil, nil
	}
	return b.request(), nil
}

func (b *requestBuilder) request() *request {
	r := &request{w: b.w, key: b.key, cursor: b.cursor, ops: b.ops}
	b.ops = nil
	return r
}

func (b *requestBuilder) Close(context.Context) error {
	b.ops = nil
	return nil
}

// request writes a batch of records in a single transaction.
type request struct {
	w      *Writer
	key    string
	cursor []string
	ops    []op
}

func (r *request) Submit(ctx context.Context) error {
	b := &backoff.Backoff{
		Factor: 2,
		Min:    time.Millisecond * 100,
		Max:    time.Second * 5,
	}

	for {
		err := r.write(ctx)
		if err == nil {
			return nil
		}
		if int(b.Attempt()) >= r.w.config.MaxRetries {
			return fmt.Errorf("could not write %d records to %s: %w", len(r.ops), r.key, err)
		}

		d := b.Duration()
		cdk.Logger(ctx).Warn().Err(err).
			Str("key", r.key).
			Dur("backoff", d).
			Msg("redis transaction failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

func (r *request) write(ctx context.Context) error {
	if len(r.cursor) == 0 {
		_, err := r.w.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			return r.apply(ctx, p, r.ops)
		})
		return err
	}

	// the stored cursors are only valid as long as nobody else changes the
	// key, a concurrent write fails the transaction and it is retried
	return r.w.client.Watch(ctx, func(tx *goredis.Tx) error {
		ops, err := r.newerOps(ctx, tx)
		if err != nil {
			return err
		}
		if skipped := len(r.ops) - len(ops); skipped > 0 {
			cdk.Logger(ctx).Debug().
				Str("key", r.key).
				Int("skipped", skipped).
				Msg("skipped records with an older cursor")
		}
		if len(ops) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			return r.apply(ctx, p, ops)
		})
		return err
	}, r.key)
}

// newerOps drops the ops of records whose cursor is older than the cursor of
// the record stored under the same primary key, or of an earlier op in the
// batch. Records without a comparable cursor win by arrival.
func (r *request) newerOps(ctx context.Context, tx *goredis.Tx) ([]op, error) {
	fields := make([]string, 0, len(r.ops))
	seen := make(map[string]bool, len(r.ops))
	for _, o := range r.ops {
		if !seen[o.field] {
			seen[o.field] = true
			fields = append(fields, o.field)
		}
	}

	stored, err := tx.HMGet(ctx, r.key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("could not read stored records of %s: %w", r.key, err)
	}
	latest := make(map[string]any, len(fields))
	for i, v := range stored {
		raw, ok := v.(string)
		if !ok {
			continue // field does not exist
		}
		var rec struct {
			Data map[string]any `json:"_airbyte_data"`
		}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("could not decode stored record %s of %s: %w", fields[i], r.key, err)
		}
		if c := cursorOf(rec.Data, r.cursor); c != nil {
			latest[fields[i]] = c
		}
	}

	out := make([]op, 0, len(r.ops))
	for _, o := range r.ops {
		if prev, ok := latest[o.field]; ok {
			if c, ok := compareCursors(o.cursor, prev); ok && c < 0 {
				continue
			}
		}
		if o.cursor != nil {
			latest[o.field] = o.cursor
		} else {
			delete(latest, o.field)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *request) apply(ctx context.Context, p goredis.Pipeliner, ops []op) error {
	var push []any
	flushPush := func() {
		if len(push) > 0 {
			p.RPush(ctx, r.key, push...)
			push = nil
		}
	}
	for _, o := range ops {
		switch o.kind {
		case opPush:
			push = append(push, o.value)
		case opSet:
			flushPush()
			p.HSet(ctx, r.key, o.field, o.value)
		case opDelete:
			flushPush()
			p.HDel(ctx, r.key, o.field)
		}
	}
	flushPush()
	return nil
}

func cursorOf(data map[string]any, path []string) any {
	if len(path) == 0 || data == nil {
		return nil
	}
	v, ok := (&message.Record{Data: data}).PrimaryKey([][]string{path})
	if !ok {
		return nil
	}
	return v[0]
}

// compareCursors compares two numbers or two strings. Timestamps in the
// Airbyte format compare correctly as strings. The boolean is false if the
// values can't be compared.
func compareCursors(a, b any) (int, bool) {
	if fa, ok := cursorNumber(a); ok {
		if fb, ok := cursorNumber(b); ok {
			return cmp.Compare(fa, fb), true
		}
		return 0, false
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func cursorNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
