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
	"slices"
	"sort"

	"github.com/airbytehq/airbyte-sub034/message"
)

// Specification contains general information regarding the connector like its
// name and what it does.
type Specification struct {
	// Name is the name of the connector.
	Name string
	// Summary is a brief description of the connector and what it does. Try
	// not to exceed 200 characters.
	Summary string
	// Version string. Should be prepended with `v` like Go, e.g. `v1.54.3`.
	Version string
	// Author declares the entity that created or maintains this connector.
	Author string
	// DocumentationURL points to the user facing documentation.
	DocumentationURL string
	// SupportedSyncModes lists the destination sync modes the connector can
	// handle. Append is assumed if empty.
	SupportedSyncModes []message.DestinationSyncMode
}

// Parameter defines a single connector parameter.
type Parameter struct {
	// Default is the default value of the parameter, if any.
	Default string
	// Description holds a description of the field and how to configure it.
	Description string
	// Type defines the parameter data type.
	Type ParameterType
	// Secret marks the parameter as sensitive, the platform masks it.
	Secret bool
	// Validations slice of validations to be checked for the parameter.
	Validations []Validation
}

func (p Parameter) required() bool {
	return slices.ContainsFunc(p.Validations, func(v Validation) bool {
		_, ok := v.(ValidationRequired)
		return ok
	})
}

func (p Parameter) jsonSchema() map[string]any {
	s := map[string]any{
		"type": p.Type.jsonSchemaType(),
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if p.Default != "" {
		if v, err := convertParameter(p.Type, p.Default); err == nil {
			s["default"] = v
		}
	}
	if p.Secret {
		s["airbyte_secret"] = true
	}
	for _, v := range p.Validations {
		v.addToSchema(s)
	}
	return s
}

// toMessage converts the specification into the SPEC message payload. The
// parameters are described as a JSON schema object.
func (s Specification) toMessage(params map[string]Parameter) message.Spec {
	props := make(map[string]any, len(params))
	required := []string{}
	for name, p := range params {
		props[name] = p.jsonSchema()
		if p.required() {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	modes := s.SupportedSyncModes
	if len(modes) == 0 {
		modes = []message.DestinationSyncMode{message.SyncModeAppend}
	}

	return message.Spec{
		DocumentationURL: s.DocumentationURL,
		ConnectionSpecification: map[string]any{
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"title":                s.Name,
			"description":          s.Summary,
			"type":                 "object",
			"required":             required,
			"additionalProperties": true,
			"properties":           props,
		},
		SupportsIncremental:           true,
		SupportedDestinationSyncModes: modes,
	}
}
