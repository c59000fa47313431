// Copyright 2025 Tom Barlow
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

package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/tombee/toolgate/pkg/errors"
)

// Validate checks a raw argument map against the schema.
//
// On success it returns a new map containing the coerced arguments with
// defaults applied for absent optional fields. On failure it returns a
// *errors.ValidationError listing every violation; no defaults are applied
// and the input map is never mutated.
func (s *Schema) Validate(raw map[string]any) (map[string]any, error) {
	if s == nil {
		s = &Schema{}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	var violations []errors.Violation
	out := make(map[string]any, len(s.Properties))

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	for name := range raw {
		if _, known := s.Properties[name]; !known {
			violations = append(violations, errors.Violation{
				Field:   name,
				Message: "unknown field",
			})
		}
	}

	for name, prop := range s.Properties {
		value, present := raw[name]
		if !present {
			if required[name] {
				violations = append(violations, errors.Violation{
					Field:   name,
					Message: "required field is missing",
				})
			}
			continue
		}

		coerced, err := coerce(name, prop, value)
		if err != nil {
			violations = append(violations, errors.Violation{
				Field:   name,
				Message: err.Error(),
			})
			continue
		}
		out[name] = coerced
	}

	if len(violations) > 0 {
		return nil, &errors.ValidationError{Violations: violations}
	}

	// Defaults are applied only once the whole object validated, so a failed
	// call never partially applies them.
	for name, prop := range s.Properties {
		if _, present := out[name]; !present && prop.Default != nil {
			out[name] = prop.Default
		}
	}

	return out, nil
}

// coerce checks a single value against a property definition, returning the
// possibly type-adjusted value.
func coerce(field string, prop *Property, value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("must not be null")
	}

	switch prop.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string, got %s", typeName(value))
		}
		if err := checkEnum(prop, str); err != nil {
			return nil, err
		}
		return str, nil

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("must be a boolean, got %s", typeName(value))
		}
		return b, nil

	case TypeInteger:
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("must be an integer, got %s", typeName(value))
		}
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("must be an integer, got %v", value)
		}
		i := int(n)
		if err := checkEnum(prop, i); err != nil {
			return nil, err
		}
		return i, nil

	case TypeNumber:
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("must be a number, got %s", typeName(value))
		}
		return n, nil

	case TypeArray:
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("must be an array, got %s", typeName(value))
		}
		if prop.Items == nil {
			return items, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			coerced, err := coerce(field, prop.Items, item)
			if err != nil {
				return nil, fmt.Errorf("element %d %s", i, err.Error())
			}
			out[i] = coerced
		}
		return out, nil

	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("must be an object, got %s", typeName(value))
		}
		if len(prop.Properties) == 0 {
			return obj, nil
		}
		nested := &Schema{Properties: prop.Properties}
		validated, err := nested.Validate(obj)
		if err != nil {
			return nil, fmt.Errorf("invalid object: %v", err)
		}
		return validated, nil

	default:
		return nil, fmt.Errorf("schema declares unsupported type %q", prop.Type)
	}
}

// checkEnum verifies a value against the property's enum list, if present.
func checkEnum(prop *Property, value any) error {
	if len(prop.Enum) == 0 {
		return nil
	}
	for _, allowed := range prop.Enum {
		if reflect.DeepEqual(normalize(allowed), normalize(value)) {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v, got %v", prop.Enum, value)
}

// toFloat accepts the numeric shapes JSON decoding can produce.
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// normalize folds numeric types together for enum comparison.
func normalize(value any) any {
	if f, ok := toFloat(value); ok {
		return f
	}
	return value
}

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
