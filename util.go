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
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
)

var Util = struct {
	// ParseConfig provided to parse a config map into a struct
	// Under the hood, this function uses the library mitchellh/mapstructure, with the "mapstructure" tag renamed to "json",
	// so to rename a key, use the "json" tag and set a value directly. To embed structs, append ",squash" to your tag.
	// for more details and docs, check https://pkg.go.dev/github.com/mitchellh/mapstructure
	ParseConfig func(map[string]any, any) error
}{
	ParseConfig: parseConfig,
}

func mergeParameters(p1 map[string]Parameter, p2 map[string]Parameter) map[string]Parameter {
	params := make(map[string]Parameter, len(p1)+len(p2))
	for k, v := range p1 {
		params[k] = v
	}
	for k, v := range p2 {
		_, ok := params[k]
		if ok {
			panic(fmt.Errorf("parameter %q declared twice", k))
		}
		params[k] = v
	}
	return params
}

func parseConfig(cfg map[string]any, v any) error {
	dConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			jsonNumberHook,
		),
		ErrorUnused: false,
		Result:      v,
		TagName:     "json",
	}

	decoder, err := mapstructure.NewDecoder(dConfig)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(cfg); err != nil {
		return NewConfigError("failed to parse configuration: %w", err)
	}
	return nil
}

// jsonNumberHook converts numbers decoded with json.Decoder.UseNumber.
func jsonNumberHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return n.Int64()
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	default:
		return n.String(), nil
	}
}
