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

// Package registry holds the static catalog of tools a gateway serves.
//
// The registry is built once at startup from each vendor group's
// descriptors and is read-only afterward; the only runtime variation is the
// allow-list filter applied when listing. Duplicate tool names are a
// configuration error surfaced at registration, not at dispatch.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/schema"
)

// Handler implements a tool's business logic against a vendor client
// retrieved from the call's bound session. Arguments arrive already
// validated against the tool's schema.
type Handler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Descriptor declares one tool: its advertised metadata and its handler.
// Descriptors are immutable after registration.
type Descriptor struct {
	// Name uniquely identifies the tool.
	Name string

	// Description is the human-readable tool description.
	Description string

	// Schema declares the tool's accepted arguments.
	Schema *schema.Schema

	// EnabledByDefault controls whether the tool is listed when no explicit
	// allow-list is configured.
	EnabledByDefault bool

	// Handler is the tool's implementation.
	Handler Handler
}

// Registry is a static mapping from tool name to descriptor.
type Registry struct {
	tools map[string]*Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]*Descriptor)}
}

// Register adds a descriptor. A duplicate name, empty name, or nil handler
// is a startup-time configuration error.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("cannot register nil descriptor")
	}
	if d.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s has no handler", d.Name)
	}
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool already registered: %s", d.Name)
	}
	r.tools[d.Name] = d
	return nil
}

// RegisterAll registers every descriptor, stopping at the first error.
func (r *Registry) RegisterAll(descriptors ...*Descriptor) error {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the descriptor for a tool name, or a NOT_FOUND envelope.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	d, exists := r.tools[name]
	if !exists {
		return nil, &errors.Envelope{
			Category: errors.CategoryNotFound,
			Message:  fmt.Sprintf("tool not found: %s", name),
		}
	}
	return d, nil
}

// List returns the advertised descriptors sorted by name.
//
// With a non-empty allow-list, exactly the named tools are returned (names
// not registered are ignored) regardless of their enabled flags. With no
// allow-list, each descriptor's own EnabledByDefault flag decides.
func (r *Registry) List(allowList []string) []*Descriptor {
	var out []*Descriptor

	if len(allowList) > 0 {
		for _, name := range allowList {
			if d, exists := r.tools[name]; exists {
				out = append(out, d)
			}
		}
	} else {
		for _, d := range r.tools {
			if d.EnabledByDefault {
				out = append(out, d)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
