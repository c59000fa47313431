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

// Package schema declares tool argument schemas and validates raw argument
// objects against them.
//
// A schema serves two purposes: it is converted to the wire inputSchema for
// tool capability advertisements, and it validates and coerces a raw untyped
// argument map before a handler runs. Validation is all-or-nothing: it either
// yields a fully typed value with defaults applied, or fails with every
// field-level violation listed.
package schema

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Property types, following JSON Schema conventions.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Property defines a single argument field.
type Property struct {
	// Type is the JSON type of this property.
	Type string `json:"type" yaml:"type"`

	// Description explains what this property represents.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Enum lists allowed values (for validation).
	Enum []any `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Default provides a value applied when the field is absent.
	// Defaults are only valid on optional fields.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`

	// Items defines the element type for type="array".
	Items *Property `json:"items,omitempty" yaml:"items,omitempty"`

	// Properties defines nested fields for type="object".
	Properties map[string]*Property `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Schema defines a tool's accepted input object.
type Schema struct {
	// Properties maps field names to their definitions.
	Properties map[string]*Property `json:"properties" yaml:"properties"`

	// Required lists the field names that must be present.
	Required []string `json:"required,omitempty" yaml:"required,omitempty"`
}

// Object is a convenience constructor for a schema with the given properties
// and required field names.
func Object(properties map[string]*Property, required ...string) *Schema {
	return &Schema{Properties: properties, Required: required}
}

// ToMCP converts the schema to the wire inputSchema shape used in tool
// capability advertisements.
func (s *Schema) ToMCP() mcp.ToolInputSchema {
	out := mcp.ToolInputSchema{
		Type:       TypeObject,
		Properties: map[string]any{},
	}
	if s == nil {
		return out
	}
	for name, prop := range s.Properties {
		out.Properties[name] = prop.toMap()
	}
	out.Required = append(out.Required, s.Required...)
	return out
}

func (p *Property) toMap() map[string]any {
	m := map[string]any{"type": p.Type}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		m["enum"] = p.Enum
	}
	if p.Default != nil {
		m["default"] = p.Default
	}
	if p.Items != nil {
		m["items"] = p.Items.toMap()
	}
	if len(p.Properties) > 0 {
		props := map[string]any{}
		for name, nested := range p.Properties {
			props[name] = nested.toMap()
		}
		m["properties"] = props
	}
	return m
}
