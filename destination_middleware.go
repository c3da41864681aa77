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


package cdk

import (
	"context"
	"fmt"
	"strconv"

	"github.com/airbytehq/airbyte-sub034/message"
	"golang.org/x/time/rate"
)

// DestinationMiddleware wraps a Destination and adds functionality to it.
type DestinationMiddleware interface {
	Wrap(Destination) Destination
}

// DefaultDestinationMiddleware returns a slice of middleware that should be
// added to all destinations unless there's a good reason not to.
func DefaultDestinationMiddleware() []DestinationMiddleware {
	return []DestinationMiddleware{
		DestinationWithRateLimit{},
	}
}

// DestinationWithMiddleware wraps the destination into the supplied middleware.
func DestinationWithMiddleware(d Destination, middleware ...DestinationMiddleware) Destination {
	for _, m := range middleware {
		d = m.Wrap(d)
	}
	return d
}

// -- DestinationWithRateLimit -------------------------------------------------

const (
	configDestinationRatePerSecond = "cdk.rate.perSecond"
	configDestinationRateBurst     = "cdk.rate.burst"
)

// DestinationWithRateLimit limits how often the loaders of the destination
// are called: DirectLoader.Accept, BulkLoader.Load and
// InsertLoaderRequest.Submit each wait for the limiter.
type DestinationWithRateLimit struct {
	// DefaultRateLimit is the default number of loader calls per second. Zero
	// disables the rate limit.
	DefaultRateLimit float64
	// DefaultBurst is the default number of calls allowed in a burst. Values
	// below 1 allow a single call at a time.
	DefaultBurst int
}

// Wrap a Destination into the rate limiting middleware.
func (d DestinationWithRateLimit) Wrap(impl Destination) Destination {
	return &destinationWithRateLimit{
		Destination: impl,
		defaults:    d,
	}
}

type destinationWithRateLimit struct {
	Destination

	defaults DestinationWithRateLimit
}

func (d *destinationWithRateLimit) Parameters() map[string]Parameter {
	return mergeParameters(d.Destination.Parameters(), map[string]Parameter{
		configDestinationRatePerSecond: {
			Default:     strconv.FormatFloat(d.defaults.DefaultRateLimit, 'f', -1, 64),
			Description: "Maximum number of loader calls per second (0 means no rate limit).",
			Type:        ParameterTypeFloat,
			Validations: []Validation{ValidationGreaterThan{Value: -1}},
		},
		configDestinationRateBurst: {
			Default:     strconv.Itoa(d.defaults.DefaultBurst),
			Description: "Permit bursts of at most X loader calls (0 or 1 means that calls are spread evenly).",
			Type:        ParameterTypeInt,
			Validations: []Validation{ValidationGreaterThan{Value: -1}},
		},
	})
}

func (d *destinationWithRateLimit) Open(ctx context.Context, config map[string]any, catalog *message.Catalog) (DestinationWriter, error) {
	limiter, err := d.limiter(config)
	if err != nil {
		return nil, err
	}

	w, err := d.Destination.Open(ctx, config, catalog)
	if err != nil || limiter == nil {
		return w, err
	}
	return &rateLimitedWriter{DestinationWriter: w, limiter: limiter}, nil
}

func (d *destinationWithRateLimit) limiter(config map[string]any) (*rate.Limiter, error) {
	limit := rate.Limit(d.defaults.DefaultRateLimit)
	burst := d.defaults.DefaultBurst

	if raw, ok := config[configDestinationRatePerSecond]; ok && raw != nil {
		f, ok := toFloat(raw)
		if !ok {
			return nil, NewConfigError("invalid %s: %v", configDestinationRatePerSecond, raw)
		}
		limit = rate.Limit(f)
	}
	if raw, ok := config[configDestinationRateBurst]; ok && raw != nil {
		f, ok := toFloat(raw)
		if !ok {
			return nil, NewConfigError("invalid %s: %v", configDestinationRateBurst, raw)
		}
		burst = int(f)
	}

	if limit <= 0 {
		return nil, nil
	}
	if burst < 1 {
		// a zero burst rejects every call
		burst = 1
	}
	return rate.NewLimiter(limit, burst), nil
}

type rateLimitedWriter struct {
	DestinationWriter
	limiter *rate.Limiter
}

func (w *rateLimitedWriter) LoadStrategy() LoadStrategy {
	switch s := w.DestinationWriter.LoadStrategy().(type) {
	case DirectLoadStrategy:
		s.Factory = rateLimitedDirectFactory{DirectLoaderFactory: s.Factory, limiter: w.limiter}
		return s
	case BulkLoadStrategy:
		s.Factory = rateLimitedBulkFactory{BulkLoaderFactory: s.Factory, limiter: w.limiter}
		return s
	case InsertLoadStrategy:
		s.Loader = rateLimitedInsertLoader{InsertLoader: s.Loader, limiter: w.limiter}
		return s
	default:
		return s
	}
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

type rateLimitedDirectFactory struct {
	DirectLoaderFactory
	limiter *rate.Limiter
}

func (f rateLimitedDirectFactory) Create(ctx context.Context, stream *message.DestinationStream, partition int) (DirectLoader, error) {
	l, err := f.DirectLoaderFactory.Create(ctx, stream, partition)
	if err != nil {
		return nil, err
	}
	return rateLimitedDirectLoader{DirectLoader: l, limiter: f.limiter}, nil
}

type rateLimitedDirectLoader struct {
	DirectLoader
	limiter *rate.Limiter
}

func (l rateLimitedDirectLoader) Accept(ctx context.Context, rec *message.Record) (DirectLoadResult, error) {
	if err := waitLimiter(ctx, l.limiter); err != nil {
		return DirectLoadIncomplete, err
	}
	return l.DirectLoader.Accept(ctx, rec)
}

type rateLimitedBulkFactory struct {
	BulkLoaderFactory
	limiter *rate.Limiter
}

func (f rateLimitedBulkFactory) Create(ctx context.Context, stream *message.DestinationStream, partition int) (BulkLoader, error) {
	l, err := f.BulkLoaderFactory.Create(ctx, stream, partition)
	if err != nil {
		return nil, err
	}
	return rateLimitedBulkLoader{BulkLoader: l, limiter: f.limiter}, nil
}

type rateLimitedBulkLoader struct {
	BulkLoader
	limiter *rate.Limiter
}

func (l rateLimitedBulkLoader) Load(ctx context.Context, obj RemoteObject) error {
	if err := waitLimiter(ctx, l.limiter); err != nil {
		return err
	}
	return l.BulkLoader.Load(ctx, obj)
}

type rateLimitedInsertLoader struct {
	InsertLoader
	limiter *rate.Limiter
}

func (l rateLimitedInsertLoader) CreateRequestBuilder(ctx context.Context, stream *message.DestinationStream, partition int) (InsertLoaderRequestBuilder, error) {
	b, err := l.InsertLoader.CreateRequestBuilder(ctx, stream, partition)
	if err != nil {
		return nil, err
	}
	return rateLimitedRequestBuilder{InsertLoaderRequestBuilder: b, limiter: l.limiter}, nil
}

type rateLimitedRequestBuilder struct {
	InsertLoaderRequestBuilder
	limiter *rate.Limiter
}

func (b rateLimitedRequestBuilder) Accept(ctx context.Context, rec *message.Record) (InsertAcceptResult, error) {
	res, err := b.InsertLoaderRequestBuilder.Accept(ctx, rec)
	if r, ok := res.(InsertRequest); ok && r.Request != nil {
		res = InsertRequest{Request: rateLimitedRequest{InsertLoaderRequest: r.Request, limiter: b.limiter}}
	}
	return res, err
}

func (b rateLimitedRequestBuilder) Finish(ctx context.Context) (InsertLoaderRequest, error) {
	req, err := b.InsertLoaderRequestBuilder.Finish(ctx)
	if req != nil {
		req = rateLimitedRequest{InsertLoaderRequest: req, limiter: b.limiter}
	}
	return req, err
}

type rateLimitedRequest struct {
	InsertLoaderRequest
	limiter *rate.Limiter
}

func (r rateLimitedRequest) Submit(ctx context.Context) error {
	if err := waitLimiter(ctx, r.limiter); err != nil {
		return err
	}
	return r.InsertLoaderRequest.Submit(ctx)
}
