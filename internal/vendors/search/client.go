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

// Package search wraps a keyed web-search API as a toolgate tool.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tombee/toolgate/pkg/httpclient"
)

// DefaultBaseURL is the search API endpoint.
const DefaultBaseURL = "https://api.search.brave.com/res/v1"

// Client is a per-call search API client keyed by the caller's API key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New builds a client for the given API key.
func New(apiKey string, cfg httpclient.Config) (*Client, error) {
	base, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{httpClient: base, baseURL: DefaultBaseURL, apiKey: apiKey}, nil
}

// WithBaseURL points the client at an alternate endpoint (tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Result is one search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Query runs a web search and returns up to count results. A non-empty
// freshness code restricts results to the matching recency window.
func (c *Client) Query(ctx context.Context, query string, count int, freshness string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	if freshness != "" {
		params.Set("freshness", freshness)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/web/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httpclient.VendorErrorFromResponse("search", resp); err != nil {
		return nil, err
	}

	var payload struct {
		Web struct {
			Results []Result `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return payload.Web.Results, nil
}
