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

package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/toolgate/internal/dispatch"
	"github.com/tombee/toolgate/pkg/httpclient"
	"github.com/tombee/toolgate/pkg/registry"
	"github.com/tombee/toolgate/pkg/retry"
	"github.com/tombee/toolgate/pkg/schema"
	"github.com/tombee/toolgate/pkg/session"
)

// clientName keys the Slack client in a call's client set.
const clientName = "slack"

// Vendor builds the Slack vendor group. A caller supplies either a single
// access_token or a bot_token/user_token pair; API calls use the access
// token when present, else the bot token.
func Vendor(httpCfg httpclient.Config, logger *slog.Logger) *dispatch.Vendor {
	return &dispatch.Vendor{
		Name: "slack",
		Credentials: session.Spec{
			EnvPrimary: map[string]string{"TOOLGATE_SLACK_TOKEN": "access_token"},
			Primary:    []string{"access_token"},
			Alternate:  []string{"bot_token", "user_token"},
		},
		NewClients: func(creds session.Credentials) (map[string]any, error) {
			token := creds.Get("access_token")
			if token == "" {
				token = creds.Get("bot_token")
			}
			client, err := New(token, httpCfg)
			if err != nil {
				return nil, err
			}
			return map[string]any{clientName: client}, nil
		},
		Tools: []*registry.Descriptor{
			postMessageDescriptor(logger),
			listChannelsDescriptor(),
		},
	}
}

func postMessageDescriptor(logger *slog.Logger) *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "slack_post_message",
		Description: "Post a message to a Slack channel.",
		Schema: schema.Object(map[string]*schema.Property{
			"channel": {
				Type:        schema.TypeString,
				Description: "Channel ID or name to post to",
			},
			"text": {
				Type:        schema.TypeString,
				Description: "Message text",
			},
		}, "channel", "text"),
		EnabledByDefault: true,
		Handler: func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			return handlePostMessage(ctx, args, logger)
		},
	}
}

// handlePostMessage opts in to retry: a failed post is retried on transient
// failures. Slack deduplicates nothing, so this retries only errors raised
// before or instead of an accepted message (rate limits, 5xx, network).
func handlePostMessage(ctx context.Context, args map[string]any, logger *slog.Logger) (*mcp.CallToolResult, error) {
	client, err := session.Client[*Client](ctx, clientName)
	if err != nil {
		return nil, err
	}

	var params struct {
		Channel string `mapstructure:"channel"`
		Text    string `mapstructure:"text"`
	}
	if err := schema.Decode(args, &params); err != nil {
		return nil, err
	}

	var posted *PostMessageResult
	err = retry.Do(ctx, "post message", logger, func() error {
		var callErr error
		posted, callErr = client.PostMessage(ctx, params.Channel, params.Text)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return jsonResult(posted)
}

func listChannelsDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "slack_list_channels",
		Description: "List the channels in the Slack workspace.",
		Schema: schema.Object(map[string]*schema.Property{
			"limit": {
				Type:        schema.TypeInteger,
				Description: "Maximum number of channels to return",
				Default:     200,
			},
		}),
		// Listing every channel can be noisy in large workspaces; operators
		// opt in through the tool allow-list.
		EnabledByDefault: false,
		Handler:          handleListChannels,
	}
}

func handleListChannels(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	client, err := session.Client[*Client](ctx, clientName)
	if err != nil {
		return nil, err
	}

	var params struct {
		Limit int `mapstructure:"limit"`
	}
	if err := schema.Decode(args, &params); err != nil {
		return nil, err
	}

	channels, err := client.ListChannels(ctx, params.Limit)
	if err != nil {
		return nil, err
	}
	return jsonResult(channels)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
