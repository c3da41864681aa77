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

package cchan

import (
	"context"
	"time"
)

// ChanOut is a receive-only channel with context aware helpers.
type ChanOut[T any] <-chan T

// Recv will try to receive a value from the channel, same as <-c. If the
// context is canceled before a value is received, it returns the context
// error. The boolean is false if the channel is closed.
func (c ChanOut[T]) Recv(ctx context.Context) (T, bool, error) {
	select {
	case val, ok := <-c:
		return val, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// RecvTimeout is the same as Recv, but it also stops waiting after the
// timeout and returns context.DeadlineExceeded.
func (c ChanOut[T]) RecvTimeout(ctx context.Context, timeout time.Duration) (T, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Recv(ctx)
}
