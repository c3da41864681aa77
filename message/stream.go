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
)

// StreamDescriptor identifies a stream. An empty Namespace means the stream
// has no namespace.
type StreamDescriptor struct {
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

func (d StreamDescriptor) String() string {
	if d.Namespace == "" {
		return d.Name
	}
	return fmt.Sprintf("%s.%s", d.Namespace, d.Name)
}
