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

package csync

import (
	"context"

	"github.com/airbytehq/airbyte-sub034/internal/cchan"
)

// Run executes fn in a goroutine and waits for it to return or for the
// context to be done, whichever happens first. If fn returns first, its error
// is returned. Otherwise the context error is returned and fn keeps running
// in the background until it returns on its own.
func Run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	err, _, ctxErr := cchan.ChanOut[error](done).Recv(ctx)
	if ctxErr != nil {
		return ctxErr
	}
	return err
}
