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

package pipeline

import (
	"context"
	"fmt"

	"github.com/airbytehq/airbyte-sub034/internal"
	"github.com/airbytehq/airbyte-sub034/internal/aggregate"
	"github.com/airbytehq/airbyte-sub034/internal/state"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StartHandler prepares the pipeline before any data flows.
type StartHandler struct {
	reconciler *state.Reconciler
}

// Run enables the reconciler loop.
func (h *StartHandler) Run(ctx context.Context) {
	zerolog.Ctx(ctx).Debug().Msg("starting state reconciler")
	h.reconciler.Run(ctx)
}

// CompletionHandler finishes the pipeline after all lanes stopped.
type CompletionHandler struct {
	store      *aggregate.Store
	reconciler *state.Reconciler
	// report runs the flush and state stages for an entry.
	report func(context.Context, *aggregate.Entry) error
}

// Apply flushes the remaining aggregates and acknowledges all checkpoints
// that are complete afterwards. If the pipeline failed (cause is not nil) the
// remaining aggregates are discarded instead and cause is returned.
func (h *CompletionHandler) Apply(ctx context.Context, cause error) error {
	logger := zerolog.Ctx(ctx)

	if cause != nil {
		logger.Error().Err(cause).Msg("pipeline failed, discarding remaining aggregates")
		cleanupCtx := internal.DetachContext(ctx)
		for _, e := range h.store.RemoveAll() {
			if err := e.Discard(cleanupCtx); err != nil {
				logger.Warn().Err(err).Stringer("key", e.Key).Msg("failed to discard aggregate")
			}
		}
		if err := h.reconciler.Disable(); err != nil {
			logger.Warn().Err(err).Msg("state reconciler failed")
		}
		return cause
	}

	entries := h.store.RemoveAll()
	logger.Debug().Int("aggregates", len(entries)).Msg("flushing remaining aggregates")

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			return h.report(gctx, e)
		})
	}
	if err := g.Wait(); err != nil {
		// entries that didn't get to flush were released by their canceled
		// Flush call
		_ = h.reconciler.Disable()
		return fmt.Errorf("failed to flush remaining aggregates: %w", err)
	}

	if err := h.reconciler.Disable(); err != nil {
		return fmt.Errorf("state reconciler failed: %w", err)
	}
	if err := h.reconciler.FlushCompleteStates(ctx); err != nil {
		return err
	}
	return nil
}
