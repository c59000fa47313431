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

package search

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

// clientName keys the search client in a call's client set.
const clientName = "search"

// Vendor builds the search vendor group. The credential is a single api_key
// field; because the primary form is one field, a caller may also pass the
// bare key as the header value without base64 wrapping.
func Vendor(httpCfg httpclient.Config) *dispatch.Vendor {
	return &dispatch.Vendor{
		Name: "search",
		Credentials: session.Spec{
			EnvPrimary: map[string]string{"TOOLGATE_SEARCH_API_KEY": "api_key"},
			Primary:    []string{"api_key"},
		},
		NewClients: func(creds session.Credentials) (map[string]any, error) {
			client, err := New(creds.Get("api_key"), httpCfg)
			if err != nil {
				return nil, err
			}
			return map[string]any{clientName: client}, nil
		},
		Tools: []*registry.Descriptor{queryDescriptor()},
	}
}

func queryDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "search_query",
		Description: "Run a web search and return matching results.",
		Schema: schema.Object(map[string]*schema.Property{
			"query": {
				Type:        schema.TypeString,
				Description: "Search query text",
			},
			"count": {
				Type:        schema.TypeInteger,
				Description: "Maximum number of results to return",
				Default:     10,
			},
			"freshness": {
				Type:        schema.TypeString,
				Description: "Restrict results by recency",
				Enum:        []any{"pd", "pw", "pm", "py"},
			},
		}, "query"),
		EnabledByDefault: true,
		Handler:          handleQuery,
	}
}

func handleQuery(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	client, err := session.Client[*Client](ctx, clientName)
	if err != nil {
		return nil, err
	}

	var params struct {
		Query     string `mapstructure:"query"`
		Count     int    `mapstructure:"count"`
		Freshness string `mapstructure:"freshness"`
	}
	if err := schema.Decode(args, &params); err != nil {
		return nil, err
	}

	results, err := client.Query(ctx, params.Query, params.Count, params.Freshness)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
