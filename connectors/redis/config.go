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
	"fmt"
	"strings"
	"time"

	cdk "github.com/airbytehq/airbyte-sub034"
	"github.com/airbytehq/airbyte-sub034/message"
)

const (
	ConfigHost       = "host"
	ConfigPort       = "port"
	ConfigUsername   = "username"
	ConfigPassword   = "password"
	ConfigDB         = "db"
	ConfigKeyPrefix  = "key_prefix"
	ConfigBatchSize  = "batch_size"
	ConfigMaxRetries = "max_retries"
	ConfigTimeout    = "timeout"
)

type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// KeyPrefix is prepended to all keys written by the destination.
	KeyPrefix string `json:"key_prefix"`
	// BatchSize is the number of records sent to Redis in one transaction.
	BatchSize int `json:"batch_size"`
	// MaxRetries is the number of times a failed transaction is retried.
	MaxRetries int           `json:"max_retries"`
	Timeout    time.Duration `json:"timeout"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Key returns the key holding the records of stream.
func (c Config) Key(d message.StreamDescriptor) string {
	parts := []string{c.KeyPrefix}
	if d.Namespace != "" {
		parts = append(parts, d.Namespace)
	}
	parts = append(parts, d.Name)
	return strings.Join(parts, ":")
}

// stagingKey returns the key records of a truncate refresh are written to
// before they replace the data of previous generations.
func (c Config) stagingKey(stream *message.DestinationStream) string {
	return fmt.Sprintf("%s:_airbyte_tmp:%d", c.Key(stream.Descriptor), stream.GenerationID)
}

// writeKey returns the key the records of stream are written to during the
// sync.
func (c Config) writeKey(stream *message.DestinationStream) string {
	if replaces(stream) {
		return c.stagingKey(stream)
	}
	return c.Key(stream.Descriptor)
}

// replaces reports whether the sync replaces the existing data of the stream.
func replaces(stream *message.DestinationStream) bool {
	if _, ok := stream.ImportType.(message.Overwrite); ok {
		return true
	}
	return stream.ShouldTruncate()
}

func parameters() map[string]cdk.Parameter {
	return map[string]cdk.Parameter{
		ConfigHost: {
			Description: "Redis host.",
			Type:        cdk.ParameterTypeString,
			Validations: []cdk.Validation{cdk.ValidationRequired{}},
		},
		ConfigPort: {
			Default:     "6379",
			Description: "Redis port.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{
				cdk.ValidationGreaterThan{Value: 0},
				cdk.ValidationLessThan{Value: 65536},
			},
		},
		ConfigUsername: {
			Description: "Username for Redis ACL authentication.",
			Type:        cdk.ParameterTypeString,
		},
		ConfigPassword: {
			Description: "Password for Redis authentication.",
			Type:        cdk.ParameterTypeString,
			Secret:      true,
		},
		ConfigDB: {
			Default:     "0",
			Description: "Redis database number.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{cdk.ValidationGreaterThan{Value: -1}},
		},
		ConfigKeyPrefix: {
			Default:     "airbyte",
			Description: "Prefix of all keys written by the destination.",
			Type:        cdk.ParameterTypeString,
		},
		ConfigBatchSize: {
			Default:     "500",
			Description: "Number of records written in one transaction.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{cdk.ValidationGreaterThan{Value: 0}},
		},
		ConfigMaxRetries: {
			Default:     "3",
			Description: "Number of times a failed transaction is retried.",
			Type:        cdk.ParameterTypeInt,
			Validations: []cdk.Validation{cdk.ValidationGreaterThan{Value: -1}},
		},
		ConfigTimeout: {
			Default:     "10s",
			Description: "Timeout of a single Redis command.",
			Type:        cdk.ParameterTypeDuration,
		},
	}
}
