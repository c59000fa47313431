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

package registry_test

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/registry"
)

func noopHandler(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func descriptor(name string, enabled bool) *registry.Descriptor {
	return &registry.Descriptor{
		Name:             name,
		Description:      "test tool",
		EnabledByDefault: enabled,
		Handler:          noopHandler,
	}
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(descriptor("a", true)))

	err := r.Register(descriptor("a", true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_RejectsInvalidDescriptors(t *testing.T) {
	r := registry.New()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&registry.Descriptor{Name: "", Handler: noopHandler}))
	assert.Error(t, r.Register(&registry.Descriptor{Name: "x"}))
}

func TestResolve_UnknownIsNotFoundEnvelope(t *testing.T) {
	r := registry.New()

	_, err := r.Resolve("nonexistent")
	require.Error(t, err)

	var env *errors.Envelope
	require.ErrorAs(t, err, &env)
	assert.Equal(t, errors.CategoryNotFound, env.Category)
}

func TestList_EnabledFlagWithoutAllowList(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.RegisterAll(descriptor("a", true), descriptor("b", false)))

	listed := r.List(nil)
	require.Len(t, listed, 1)
	assert.Equal(t, "a", listed[0].Name)
}

func TestList_AllowListOverridesEnabledFlag(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.RegisterAll(descriptor("a", true), descriptor("b", false)))

	listed := r.List([]string{"b"})
	require.Len(t, listed, 1)
	assert.Equal(t, "b", listed[0].Name)
}

func TestList_AllowListIgnoresUnknownNames(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(descriptor("a", true)))

	listed := r.List([]string{"a", "ghost"})
	require.Len(t, listed, 1)
	assert.Equal(t, "a", listed[0].Name)
}

func TestList_SortedByName(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.RegisterAll(descriptor("c", true), descriptor("a", true), descriptor("b", true)))

	listed := r.List(nil)
	require.Len(t, listed, 3)
	assert.Equal(t, "a", listed[0].Name)
	assert.Equal(t, "b", listed[1].Name)
	assert.Equal(t, "c", listed[2].Name)
}
