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

// Package dropbox wraps the Dropbox files API as toolgate tools.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tombee/toolgate/pkg/batch"
	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/httpclient"
)

// DefaultBaseURL is the Dropbox RPC API endpoint.
const DefaultBaseURL = "https://api.dropboxapi.com"

// deleteChunkSize bounds how many paths one delete_batch call carries.
const deleteChunkSize = 25

// Client is a per-call Dropbox API client bound to one caller's token.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New builds a client whose requests carry the given access token.
func New(token string, cfg httpclient.Config) (*Client, error) {
	base, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}

	authed := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base.Transport,
		},
		Timeout: base.Timeout,
	}

	return &Client{httpClient: authed, baseURL: DefaultBaseURL}, nil
}

// WithBaseURL points the client at an alternate endpoint (tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Entry is one file or folder in a Dropbox listing.
type Entry struct {
	Tag            string `json:".tag"`
	Name           string `json:"name"`
	PathDisplay    string `json:"path_display"`
	Size           int64  `json:"size,omitempty"`
	ServerModified string `json:"server_modified,omitempty"`
}

// ListFolderResult is a complete folder listing.
type ListFolderResult struct {
	Entries []Entry `json:"entries"`
}

type listFolderPage struct {
	Entries []Entry `json:"entries"`
	Cursor  string  `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

// ListFolder lists a folder, following continuation cursors until the vendor
// reports no more pages. Pass "" for the root folder.
func (c *Client) ListFolder(ctx context.Context, path string, recursive bool, limit int) (*ListFolderResult, error) {
	var page listFolderPage
	err := c.post(ctx, "/2/files/list_folder", map[string]any{
		"path":      path,
		"recursive": recursive,
		"limit":     limit,
	}, &page)
	if err != nil {
		return nil, err
	}

	result := &ListFolderResult{Entries: page.Entries}
	for page.HasMore {
		next := listFolderPage{}
		err := c.post(ctx, "/2/files/list_folder/continue", map[string]any{
			"cursor": page.Cursor,
		}, &next)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, next.Entries...)
		page = next
	}

	return result, nil
}

// GetMetadata returns the metadata of a single file or folder.
func (c *Client) GetMetadata(ctx context.Context, path string) (*Entry, error) {
	var entry Entry
	if err := c.post(ctx, "/2/files/get_metadata", map[string]any{"path": path}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

type deleteBatchEntry struct {
	Tag string `json:".tag"`
}

type deleteBatchResponse struct {
	Entries []deleteBatchEntry `json:"entries"`
}

// DeleteBatch deletes paths in chunks. A chunk where any entry fails is
// retried path by path, so the caller learns exactly which deletions failed.
func (c *Client) DeleteBatch(ctx context.Context, paths []string) (*batch.Result[string, string], error) {
	return batch.Run(ctx, paths, deleteChunkSize, func(ctx context.Context, chunk []string) ([]string, error) {
		if len(chunk) == 1 {
			if err := c.deleteOne(ctx, chunk[0]); err != nil {
				return nil, err
			}
			return chunk, nil
		}

		entries := make([]map[string]string, len(chunk))
		for i, path := range chunk {
			entries[i] = map[string]string{"path": path}
		}

		var resp deleteBatchResponse
		if err := c.post(ctx, "/2/files/delete_batch", map[string]any{"entries": entries}, &resp); err != nil {
			return nil, err
		}
		for _, entry := range resp.Entries {
			if entry.Tag == "failure" {
				return nil, &errors.VendorError{
					Vendor:  "dropbox",
					Message: "one or more entries in the delete batch failed",
				}
			}
		}
		return chunk, nil
	})
}

func (c *Client) deleteOne(ctx context.Context, path string) error {
	return c.post(ctx, "/2/files/delete_v2", map[string]any{"path": path}, nil)
}

// post issues one RPC-style call. Non-2xx responses surface as
// *errors.VendorError for the classifier.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding dropbox request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := httpclient.VendorErrorFromResponse("dropbox", resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding dropbox %s response", endpoint)
	}
	return nil
}
