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

package dropbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/toolgate/internal/dispatch"
	"github.com/tombee/toolgate/pkg/httpclient"
	"github.com/tombee/toolgate/pkg/registry"
	"github.com/tombee/toolgate/pkg/schema"
	"github.com/tombee/toolgate/pkg/session"
)

// clientName keys the Dropbox client in a call's client set.
const clientName = "dropbox"

// Vendor builds the Dropbox vendor group.
func Vendor(httpCfg httpclient.Config) *dispatch.Vendor {
	return &dispatch.Vendor{
		Name: "dropbox",
		Credentials: session.Spec{
			EnvPrimary: map[string]string{"TOOLGATE_ACCESS_TOKEN": "access_token"},
			Primary:    []string{"access_token"},
		},
		NewClients: func(creds session.Credentials) (map[string]any, error) {
			client, err := New(creds.Get("access_token"), httpCfg)
			if err != nil {
				return nil, err
			}
			return map[string]any{clientName: client}, nil
		},
		Tools: []*registry.Descriptor{
			listFolderDescriptor(),
			getMetadataDescriptor(),
			deleteBatchDescriptor(),
		},
	}
}

func listFolderDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "dropbox_list_folder",
		Description: "List the contents of a Dropbox folder. Use an empty path for the root folder.",
		Schema: schema.Object(map[string]*schema.Property{
			"path": {
				Type:        schema.TypeString,
				Description: "Folder path to list (empty string for root)",
			},
			"recursive": {
				Type:        schema.TypeBoolean,
				Description: "If true, list the folder's entire subtree",
				Default:     false,
			},
			"limit": {
				Type:        schema.TypeInteger,
				Description: "Page size hint for the listing",
				Default:     100,
			},
		}, "path"),
		EnabledByDefault: true,
		Handler:          handleListFolder,
	}
}

func handleListFolder(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	client, err := session.Client[*Client](ctx, clientName)
	if err != nil {
		return nil, err
	}

	var params struct {
		Path      string `mapstructure:"path"`
		Recursive bool   `mapstructure:"recursive"`
		Limit     int    `mapstructure:"limit"`
	}
	if err := schema.Decode(args, &params); err != nil {
		return nil, err
	}

	listing, err := client.ListFolder(ctx, params.Path, params.Recursive, params.Limit)
	if err != nil {
		return nil, err
	}
	return jsonResult(listing)
}

func getMetadataDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "dropbox_get_metadata",
		Description: "Get the metadata of a single Dropbox file or folder.",
		Schema: schema.Object(map[string]*schema.Property{
			"path": {
				Type:        schema.TypeString,
				Description: "Path of the file or folder",
			},
		}, "path"),
		EnabledByDefault: true,
		Handler:          handleGetMetadata,
	}
}

func handleGetMetadata(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	client, err := session.Client[*Client](ctx, clientName)
	if err != nil {
		return nil, err
	}

	var params struct {
		Path string `mapstructure:"path"`
	}
	if err := schema.Decode(args, &params); err != nil {
		return nil, err
	}

	entry, err := client.GetMetadata(ctx, params.Path)
	if err != nil {
		return nil, err
	}
	return jsonResult(entry)
}

func deleteBatchDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "dropbox_delete_batch",
		Description: "Delete multiple Dropbox paths. Reports per-path outcomes; paths that cannot be deleted are listed with their errors.",
		Schema: schema.Object(map[string]*schema.Property{
			"paths": {
				Type:        schema.TypeArray,
				Description: "Paths to delete",
				Items:       &schema.Property{Type: schema.TypeString},
			},
		}, "paths"),
		EnabledByDefault: true,
		Handler:          handleDeleteBatch,
	}
}

func handleDeleteBatch(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	client, err := session.Client[*Client](ctx, clientName)
	if err != nil {
		return nil, err
	}

	var params struct {
		Paths []string `mapstructure:"paths"`
	}
	if err := schema.Decode(args, &params); err != nil {
		return nil, err
	}

	result, err := client.DeleteBatch(ctx, params.Paths)
	if err != nil {
		return nil, err
	}

	type failure struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}
	summary := struct {
		Deleted  []string  `json:"deleted"`
		Failures []failure `json:"failures,omitempty"`
	}{Deleted: result.Successes}
	for _, f := range result.Failures {
		summary.Failures = append(summary.Failures, failure{Path: f.Item, Error: f.Err.Error()})
	}

	return jsonResult(summary)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
