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
	"math"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/multierr"
)

const (
	ParameterTypeString ParameterType = iota + 1
	ParameterTypeInt
	ParameterTypeFloat
	ParameterTypeBool
	ParameterTypeDuration
)

type ParameterType int

func (t ParameterType) jsonSchemaType() string {
	switch t {
	case ParameterTypeInt:
		return "integer"
	case ParameterTypeFloat:
		return "number"
	case ParameterTypeBool:
		return "boolean"
	default:
		return "string"
	}
}

// Validation is a check applied to a parameter value. Validations are also
// reflected in the JSON schema returned with the connector specification.
type Validation interface {
	validate(value any) error
	addToSchema(schema map[string]any)
}

type ValidationRequired struct{}

func (v ValidationRequired) validate(value any) error {
	if value == nil || value == "" {
		return ErrRequiredParameterMissing
	}
	return nil
}
func (v ValidationRequired) addToSchema(map[string]any) {} // handled by the object schema

type ValidationLessThan struct {
	Value float64
}

func (v ValidationLessThan) validate(value any) error {
	f, ok := toFloat(value)
	if !ok || f >= v.Value {
		return fmt.Errorf("%v should be less than %v: %w", value, v.Value, ErrLessThanValidationFail)
	}
	return nil
}
func (v ValidationLessThan) addToSchema(s map[string]any) { s["exclusiveMaximum"] = v.Value }

type ValidationGreaterThan struct {
	Value float64
}

func (v ValidationGreaterThan) validate(value any) error {
	f, ok := toFloat(value)
	if !ok || f <= v.Value {
		return fmt.Errorf("%v should be greater than %v: %w", value, v.Value, ErrGreaterThanValidationFail)
	}
	return nil
}
func (v ValidationGreaterThan) addToSchema(s map[string]any) { s["exclusiveMinimum"] = v.Value }

type ValidationInclusion struct {
	List []string
}

func (v ValidationInclusion) validate(value any) error {
	if !slices.Contains(v.List, fmt.Sprint(value)) {
		return fmt.Errorf("%q value must be included in the list %v: %w", value, v.List, ErrInclusionValidationFail)
	}
	return nil
}
func (v ValidationInclusion) addToSchema(s map[string]any) { s["enum"] = v.List }

type ValidationExclusion struct {
	List []string
}

func (v ValidationExclusion) validate(value any) error {
	if slices.Contains(v.List, fmt.Sprint(value)) {
		return fmt.Errorf("%q value must be excluded from the list %v: %w", value, v.List, ErrExclusionValidationFail)
	}
	return nil
}
func (v ValidationExclusion) addToSchema(s map[string]any) {
	s["not"] = map[string]any{"enum": v.List}
}

type ValidationRegex struct {
	Regex *regexp.Regexp
}

func (v ValidationRegex) validate(value any) error {
	if !v.Regex.MatchString(fmt.Sprint(value)) {
		return fmt.Errorf("%q should match the regex %q: %w", value, v.Regex.String(), ErrRegexValidationFail)
	}
	return nil
}
func (v ValidationRegex) addToSchema(s map[string]any) { s["pattern"] = v.Regex.String() }

// applyConfigValidations fills in defaults for missing parameters, converts
// values to the declared parameter types and runs the validations. Keys in
// cfg that are not declared as parameters are left untouched. The returned
// error is a ConfigError.
func applyConfigValidations(params map[string]Parameter, cfg map[string]any) error {
	var errs error
	for name, p := range params {
		raw, ok := cfg[name]
		if (!ok || raw == nil || raw == "") && p.Default != "" {
			raw = p.Default
		}

		if raw == nil || raw == "" {
			if p.required() {
				errs = multierr.Append(errs, fmt.Errorf("error validating %q: %w", name, ErrRequiredParameterMissing))
			}
			continue
		}

		val, err := convertParameter(p.Type, raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("error validating %q: %w", name, err))
			continue
		}
		cfg[name] = val

		for _, v := range p.Validations {
			if _, ok := v.(ValidationRequired); ok {
				continue
			}
			if err := v.validate(val); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("error validating %q: %w", name, err))
			}
		}
	}
	if errs != nil {
		return NewConfigError("invalid configuration: %w", errs)
	}
	return nil
}

func convertParameter(t ParameterType, raw any) (any, error) {
	switch t {
	case ParameterTypeInt:
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("%v is not an integer: %w", v, ErrInvalidParameterType)
			}
			return int64(v), nil
		case int, int64:
			return v, nil
		case json.Number:
			i, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("%v is not an integer: %w", v, ErrInvalidParameterType)
			}
			return i, nil
		case string:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer: %w", v, ErrInvalidParameterType)
			}
			return i, nil
		}
	case ParameterTypeFloat:
		if f, ok := toFloat(raw); ok {
			return f, nil
		}
		if s, ok := raw.(string); ok {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number: %w", s, ErrInvalidParameterType)
			}
			return f, nil
		}
	case ParameterTypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean: %w", v, ErrInvalidParameterType)
			}
			return b, nil
		}
	case ParameterTypeDuration:
		if s, ok := raw.(string); ok {
			if _, err := time.ParseDuration(s); err != nil {
				return nil, fmt.Errorf("%q is not a duration: %w", s, ErrInvalidParameterType)
			}
			return s, nil
		}
	default:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unexpected value %v of type %T: %w", raw, raw, ErrInvalidParameterType)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
