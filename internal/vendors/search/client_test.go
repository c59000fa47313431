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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/httpclient"
	"github.com/tombee/toolgate/pkg/session"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New("key-1234", httpclient.DefaultConfig())
	require.NoError(t, err)
	return client.WithBaseURL(srv.URL)
}

func TestQuery(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web/search", r.URL.Path)
		assert.Equal(t, "gophers", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		assert.Equal(t, "pw", r.URL.Query().Get("freshness"))
		assert.Equal(t, "key-1234", r.Header.Get("X-Subscription-Token"))

		fmt.Fprint(w, `{"web":{"results":[
			{"title":"Gopher","url":"https://example.com/1","description":"a rodent"},
			{"title":"Go","url":"https://example.com/2"}
		]}}`)
	}))

	results, err := client.Query(context.Background(), "gophers", 5, "pw")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Gopher", results[0].Title)
	assert.Equal(t, "https://example.com/2", results[1].URL)
}

func TestQuery_RateLimited(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message":"quota exceeded for this key"}`)
	}))

	_, err := client.Query(context.Background(), "gophers", 5, "")
	require.Error(t, err)

	var vendorErr *errors.VendorError
	require.ErrorAs(t, err, &vendorErr)
	assert.Equal(t, "search", vendorErr.Vendor)
	assert.Equal(t, http.StatusTooManyRequests, vendorErr.StatusCode)
}

func TestHandleQuery(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"web":{"results":[{"title":"Gopher","url":"https://example.com/1"}]}}`)
	}))

	ctx := session.WithClients(context.Background(),
		session.NewClientSet(map[string]any{clientName: client}))

	result, err := handleQuery(ctx, map[string]any{"query": "gophers", "count": 10})
	require.NoError(t, err)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Gopher")
}

func TestVendor_RawKeyCredential(t *testing.T) {
	vendor := Vendor(httpclient.DefaultConfig())
	assert.Equal(t, "search", vendor.Name)
	require.Len(t, vendor.Tools, 1)
	assert.Equal(t, "search_query", vendor.Tools[0].Name)

	// A bare (non-base64) header value is accepted as the raw key because
	// the primary credential form is a single field.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	creds, err := vendor.Credentials.Extract("raw-api-key", func(string) string { return "" }, logger)
	require.NoError(t, err)
	assert.Equal(t, "raw-api-key", creds.Get("api_key"))

	clients, err := vendor.NewClients(creds)
	require.NoError(t, err)
	client := clients[clientName].(*Client)
	assert.Equal(t, "raw-api-key", client.apiKey)
}
