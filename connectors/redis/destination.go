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

// Package redis implements a destination writing records into Redis. Records
// of append streams are pushed to a list per stream, records of deduplicated
// streams are stored in a hash per stream keyed by their primary key.
package redis

import (
	"context"
	"fmt"

	cdk "github.com/airbytehq/airbyte-sub034"
	"github.com/airbytehq/airbyte-sub034/message"
	goredis "github.com/redis/go-redis/v9"
)

// Connector combines all constructors of the Redis destination.
var Connector = cdk.Connector{
	NewSpecification: Specification,
	NewDestination:   NewDestination,
}

func Specification() cdk.Specification {
	return cdk.Specification{
		Name:             "destination-redis",
		Summary:          "Writes records into Redis lists and hashes.",
		Version:          "v0.1.0",
		Author:           "Airbyte",
		DocumentationURL: "https://docs.airbyte.com/integrations/destinations/redis",
		SupportedSyncModes: []message.DestinationSyncMode{
			message.SyncModeAppend,
			message.SyncModeOverwrite,
			message.SyncModeAppendDedup,
		},
	}
}

type Destination struct {
	cdk.UnimplementedDestination
}

func NewDestination() cdk.Destination {
	return cdk.DestinationWithMiddleware(&Destination{}, cdk.DefaultDestinationMiddleware()...)
}

func (d *Destination) Parameters() map[string]cdk.Parameter {
	return parameters()
}

func (d *Destination) Check(ctx context.Context, cfg map[string]any) error {
	config, err := parseConfig(cfg)
	if err != nil {
		return err
	}
	client := newClient(config)
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("could not reach redis at %s: %w", config.Addr(), err)
	}
	return nil
}

func (d *Destination) Open(ctx context.Context, cfg map[string]any, catalog *message.Catalog) (cdk.DestinationWriter, error) {
	config, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}
	cdk.Logger(ctx).Info().
		Str("addr", config.Addr()).
		Int("streams", len(catalog.Streams)).
		Msg("opening redis destination")
	return &Writer{config: config, client: newClient(config)}, nil
}

func parseConfig(cfg map[string]any) (Config, error) {
	var config Config
	if err := cdk.Util.ParseConfig(cfg, &config); err != nil {
		return Config{}, err
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	return config, nil
}

func newClient(config Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:             config.Addr(),
		Username:         config.Username,
		Password:         config.Password,
		DB:               config.DB,
		DialTimeout:      config.Timeout,
		ReadTimeout:      config.Timeout,
		WriteTimeout:     config.Timeout,
		DisableIndentity: true,
	})
}

// Writer writes a single sync into Redis.
type Writer struct {
	config Config
	client *goredis.Client
}

func (w *Writer) Setup(ctx context.Context) error {
	if err := w.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("could not reach redis at %s: %w", w.config.Addr(), err)
	}
	return nil
}

func (w *Writer) CreateStreamLoader(_ context.Context, stream *message.DestinationStream) (cdk.StreamLoader, error) {
	return &streamLoader{w: w, stream: stream}, nil
}

func (w *Writer) LoadStrategy() cdk.LoadStrategy {
	return cdk.InsertLoadStrategy{
		Loader:              w,
		NumRequestBuilders:  2,
		NumRequestExecutors: 4,
		Partitioning:        cdk.InsertByPrimaryKey,
	}
}

func (w *Writer) Teardown(context.Context) error {
	return w.client.Close()
}

// streamLoader swaps in the records of a truncate refresh once the stream
// completed. Records of an unsuccessful attempt stay in the staging key, the
// next attempt of the same generation continues from there.
type streamLoader struct {
	w      *Writer
	stream *message.DestinationStream
}

func (s *streamLoader) Start(ctx context.Context) error {
	cdk.Logger(ctx).Debug().
		Stringer("stream", s.stream.Descriptor).
		Str("key", s.w.config.writeKey(s.stream)).
		Msg("writing stream")
	return nil
}

func (s *streamLoader) Close(ctx context.Context, completedSuccessfully bool) error {
	if !replaces(s.stream) || !completedSuccessfully {
		return nil
	}

	staging, target := s.w.config.stagingKey(s.stream), s.w.config.Key(s.stream.Descriptor)
	n, err := s.w.client.Exists(ctx, staging).Result()
	if err != nil {
		return fmt.Errorf("could not check staging key %s: %w", staging, err)
	}
	if n == 0 {
		// the sync didn't write any record, the stream is now empty
		return s.w.client.Del(ctx, target).Err()
	}
	if err := s.w.client.Rename(ctx, staging, target).Err(); err != nil {
		return fmt.Errorf("could not replace %s: %w", target, err)
	}
	cdk.Logger(ctx).Info().Stringer("stream", s.stream.Descriptor).Str("key", target).Msg("replaced stream data")
	return nil
}
