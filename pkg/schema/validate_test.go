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

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/schema"
)

func fileSchema() *schema.Schema {
	return schema.Object(map[string]*schema.Property{
		"path": {
			Type:        schema.TypeString,
			Description: "Path to the file",
		},
		"limit": {
			Type:    schema.TypeInteger,
			Default: 100,
		},
		"recursive": {
			Type:    schema.TypeBoolean,
			Default: false,
		},
		"mode": {
			Type: schema.TypeString,
			Enum: []any{"files", "folders", "all"},
		},
		"tags": {
			Type:  schema.TypeArray,
			Items: &schema.Property{Type: schema.TypeString},
		},
	}, "path")
}

func TestValidate_AppliesDefaults(t *testing.T) {
	out, err := fileSchema().Validate(map[string]any{"path": "/docs"})
	require.NoError(t, err)

	assert.Equal(t, "/docs", out["path"])
	assert.Equal(t, 100, out["limit"])
	assert.Equal(t, false, out["recursive"])
	_, hasMode := out["mode"]
	assert.False(t, hasMode, "optional field without default must stay absent")
}

func TestValidate_MissingRequiredNamesField(t *testing.T) {
	_, err := fileSchema().Validate(map[string]any{})
	require.Error(t, err)

	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"path"}, verr.Fields())
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	_, err := fileSchema().Validate(map[string]any{
		"limit":    "ten",
		"mode":     "everything",
		"mystery":  true,
		"tags":     []any{"a", 3},
	})
	require.Error(t, err)

	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"path", "limit", "mode", "mystery", "tags"}, verr.Fields())
}

func TestValidate_NoPartialDefaults(t *testing.T) {
	_, err := fileSchema().Validate(map[string]any{"path": "/x", "limit": "bad"})
	require.Error(t, err, "failed validation must not return a partially defaulted map")
}

func TestValidate_CoercesJSONNumbers(t *testing.T) {
	out, err := fileSchema().Validate(map[string]any{
		"path":  "/docs",
		"limit": float64(25), // JSON decoding produces float64
	})
	require.NoError(t, err)
	assert.Equal(t, 25, out["limit"])
}

func TestValidate_RejectsFractionalInteger(t *testing.T) {
	_, err := fileSchema().Validate(map[string]any{"path": "/docs", "limit": 2.5})
	require.Error(t, err)
}

func TestValidate_Enum(t *testing.T) {
	out, err := fileSchema().Validate(map[string]any{"path": "/docs", "mode": "files"})
	require.NoError(t, err)
	assert.Equal(t, "files", out["mode"])

	_, err = fileSchema().Validate(map[string]any{"path": "/docs", "mode": "nope"})
	require.Error(t, err)
}

func TestValidate_NestedObject(t *testing.T) {
	s := schema.Object(map[string]*schema.Property{
		"options": {
			Type: schema.TypeObject,
			Properties: map[string]*schema.Property{
				"dry_run": {Type: schema.TypeBoolean},
			},
		},
	})

	out, err := s.Validate(map[string]any{
		"options": map[string]any{"dry_run": true},
	})
	require.NoError(t, err)
	opts := out["options"].(map[string]any)
	assert.Equal(t, true, opts["dry_run"])

	_, err = s.Validate(map[string]any{
		"options": map[string]any{"dry_run": "yes"},
	})
	require.Error(t, err)
}

func TestValidate_InputNotMutated(t *testing.T) {
	raw := map[string]any{"path": "/docs"}
	_, err := fileSchema().Validate(raw)
	require.NoError(t, err)
	assert.Len(t, raw, 1, "input map must not gain defaults")
}

func TestDecode(t *testing.T) {
	type listArgs struct {
		Path      string   `mapstructure:"path"`
		Limit     int      `mapstructure:"limit"`
		Recursive bool     `mapstructure:"recursive"`
		Tags      []string `mapstructure:"tags"`
	}

	validated, err := fileSchema().Validate(map[string]any{
		"path": "/docs",
		"tags": []any{"a", "b"},
	})
	require.NoError(t, err)

	var args listArgs
	require.NoError(t, schema.Decode(validated, &args))
	assert.Equal(t, "/docs", args.Path)
	assert.Equal(t, 100, args.Limit)
	assert.Equal(t, []string{"a", "b"}, args.Tags)
}

func TestToMCP(t *testing.T) {
	wire := fileSchema().ToMCP()
	assert.Equal(t, "object", wire.Type)
	assert.Equal(t, []string{"path"}, wire.Required)

	limit, ok := wire.Properties["limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, 100, limit["default"])
}
