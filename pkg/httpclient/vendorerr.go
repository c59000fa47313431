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

package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tombee/toolgate/pkg/errors"
)

// maxErrorBody bounds how much of a vendor error body is read for the
// message, so a misbehaving vendor cannot balloon error envelopes.
const maxErrorBody = 4 << 10

// VendorErrorFromResponse converts a non-2xx vendor response into a
// *errors.VendorError, extracting a message from common JSON error shapes
// and falling back to the raw body text. Returns nil for 2xx responses.
//
// The response body is consumed; callers use this only on error paths.
func VendorErrorFromResponse(vendor string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &errors.VendorError{
		Vendor:     vendor,
		StatusCode: resp.StatusCode,
		Message:    extractMessage(body, resp.Status),
	}
}

// extractMessage pulls a human-readable message out of a vendor error body.
// Vendors disagree on field names; the common ones are tried in order.
func extractMessage(body []byte, fallback string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, field := range []string{"error_summary", "error_description", "message", "error"} {
			if value, ok := payload[field].(string); ok && value != "" {
				return value
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text != "" {
		return text
	}
	return fallback
}
