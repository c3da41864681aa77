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

	"github.com/airbytehq/airbyte-sub034/message"
)

// UnimplementedDestination should be embedded to have forward compatible implementations.
type UnimplementedDestination struct{}

func (UnimplementedDestination) Parameters() map[string]Parameter {
	return nil
}

func (UnimplementedDestination) Check(context.Context, map[string]any) error {
	return ErrUnimplemented
}

func (UnimplementedDestination) Open(context.Context, map[string]any, *message.Catalog) (DestinationWriter, error) {
	return nil, ErrUnimplemented
}

func (UnimplementedDestination) mustEmbedUnimplementedDestination() {}
