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

// Package slack wraps the Slack Web API as toolgate tools.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/httpclient"
)

// DefaultBaseURL is the Slack Web API endpoint.
const DefaultBaseURL = "https://slack.com/api"

// Client is a per-call Slack Web API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New builds a client for the given API token.
func New(token string, cfg httpclient.Config) (*Client, error) {
	base, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{httpClient: base, baseURL: DefaultBaseURL, token: token}, nil
}

// WithBaseURL points the client at an alternate endpoint (tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// PostMessageResult reports where a posted message landed.
type PostMessageResult struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// PostMessage posts text to a channel. Not idempotent: a retried call posts
// the message again, so callers decide whether to wrap it in a retry.
func (c *Client) PostMessage(ctx context.Context, channel, text string) (*PostMessageResult, error) {
	var resp struct {
		apiResponse
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	}
	err := c.call(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &PostMessageResult{Channel: resp.Channel, Timestamp: resp.TS}, nil
}

// Channel is one Slack conversation.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// ListChannels lists the workspace's conversations.
func (c *Client) ListChannels(ctx context.Context, limit int) ([]Channel, error) {
	var resp struct {
		apiResponse
		Channels []Channel `json:"channels"`
	}
	err := c.call(ctx, "conversations.list", map[string]any{
		"limit": limit,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// apiResponse is the envelope every Slack Web API response shares.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r apiResponse) ok() bool       { return r.OK }
func (r apiResponse) apiErr() string { return r.Error }

type slackResponse interface {
	ok() bool
	apiErr() string
}

// call issues one Web API method. Slack reports most failures as HTTP 200
// with ok=false and a machine-readable error string; those are mapped onto
// equivalent HTTP statuses so the shared classifier can categorize them.
func (c *Client) call(ctx context.Context, method string, payload any, out slackResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding slack request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := httpclient.VendorErrorFromResponse("slack", resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding slack response: %w", err)
	}

	if !out.ok() {
		return &errors.VendorError{
			Vendor:     "slack",
			StatusCode: statusForError(out.apiErr()),
			Message:    out.apiErr(),
		}
	}
	return nil
}

// statusForError maps Slack's in-band error strings onto the HTTP statuses
// they would carry on a REST vendor.
func statusForError(apiError string) int {
	switch apiError {
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return http.StatusUnauthorized
	case "missing_scope", "not_allowed_token_type", "restricted_action", "access_denied":
		return http.StatusForbidden
	case "channel_not_found", "user_not_found":
		return http.StatusNotFound
	case "ratelimited", "rate_limited":
		return http.StatusTooManyRequests
	case "service_unavailable", "internal_error", "fatal_error":
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
