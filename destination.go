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


//go:generate mockgen -destination=mock_destination_test.go -self_package=github.com/airbytehq/airbyte-sub034 -package=cdk -write_package_comment=false . Destination,DestinationWriter,StreamLoader

package cdk

import (
	"context"

	"github.com/airbytehq/airbyte-sub034/message"
)

// Destination receives records from the Airbyte platform and writes them to
// 3rd party resources.
// All implementations must embed UnimplementedDestination for forward
// compatibility.
type Destination interface {
	// Parameters is a map of named Parameters that describe how to configure
	// the Destination. The map is returned in the connector specification
	// and is used to validate the configuration before it's passed to Check
	// and Open.
	Parameters() map[string]Parameter

	// Check tests if the destination can be reached with the provided
	// configuration. An error is reported to the user as a failed connection
	// check.
	Check(ctx context.Context, config map[string]any) error

	// Open is called at the start of a sync. It provides the validated
	// configuration and the catalog of streams to write, and returns the
	// writer that takes care of the sync.
	Open(ctx context.Context, config map[string]any, catalog *message.Catalog) (DestinationWriter, error)

	mustEmbedUnimplementedDestination()
}

// DestinationWriter writes a single sync.
//
// The lifecycle of a sync is:
//   - Setup is called once before anything else.
//   - CreateStreamLoader and StreamLoader.Start are called for every stream
//     in the catalog, concurrently across streams.
//   - Records flow through the LoadStrategy.
//   - StreamLoader.Close is called for every stream that was created,
//     concurrently across streams, even if the sync failed.
//   - Teardown is called once after all streams are closed, even if the sync
//     failed.
type DestinationWriter interface {
	Setup(ctx context.Context) error
	CreateStreamLoader(ctx context.Context, stream *message.DestinationStream) (StreamLoader, error)
	// LoadStrategy is called once after all streams are started.
	LoadStrategy() LoadStrategy
	Teardown(ctx context.Context) error
}

// StreamLoader prepares and finalizes a single stream, e.g. by creating the
// destination table and swapping it in at the end of a truncate refresh.
type StreamLoader interface {
	// Start is called before any record of the stream is loaded. If it
	// fails, the records of the stream are dropped and the sync fails after
	// the other streams are done.
	Start(ctx context.Context) error
	// Close is called once at the end of the sync. completedSuccessfully is
	// true if the stream started, all its records were committed and the
	// platform signaled the end of the stream.
	Close(ctx context.Context, completedSuccessfully bool) error
}
