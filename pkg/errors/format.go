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

package errors

import (
	"fmt"
	"strings"
)

// guidance maps each category to deterministic advisory text appended to
// formatted failures. Guidance never changes the category or retryable flag.
var guidance = map[Category]string{
	CategoryAuthMissing:        "Supply credentials via the credential header or configure a default token for this server.",
	CategoryAuthInvalid:        "The token was rejected. Verify it has not expired or been revoked, and that it belongs to this vendor.",
	CategoryPermissionDenied:   "The token is valid but not authorized for this operation. Check that it carries the required scopes.",
	CategoryQuotaExceeded:      "A vendor quota or plan limit was reached. Reduce usage or upgrade the vendor plan.",
	CategoryValidation:         "Fix the listed argument violations and call the tool again.",
	CategoryBadRequest:         "The vendor rejected the request as malformed. Check argument values against the vendor's documented formats.",
	CategoryNotFound:           "Check that the path or identifier is correct and that the resource still exists.",
	CategoryConflict:           "The operation conflicts with the resource's current state. Fetch the latest state and retry with updated values.",
	CategoryRateLimited:        "Too many requests. Back off before retrying, and consider batching operations to reduce call volume.",
	CategoryServiceUnavailable: "The vendor service is temporarily unavailable. Retry after a short delay.",
	CategoryNetwork:            "A network failure occurred before the vendor responded. Check connectivity and retry.",
	CategoryTimeout:            "The request timed out. Retry, and consider narrowing the operation if timeouts persist.",
	CategoryUnknown:            "An unrecognized vendor error occurred. Inspect the message above for details.",
}

// Format renders an envelope as user-facing text for a failed operation.
// The operation names what was attempted (e.g., "list folder"); resource
// optionally names what it was attempted on.
//
// Format never fails: a nil or malformed envelope degrades to UNKNOWN text.
func Format(env *Envelope, operation, resource string) string {
	if env == nil {
		env = &Envelope{Category: CategoryUnknown, Message: "no error details available"}
	}
	if env.Category == "" {
		env = &Envelope{
			Category:   CategoryUnknown,
			Message:    env.Message,
			StatusCode: env.StatusCode,
		}
	}

	var b strings.Builder

	header := fmt.Sprintf("failed to %s", operation)
	if operation == "" {
		header = "operation failed"
	}
	if resource != "" {
		header = fmt.Sprintf("%s: %q", header, resource)
	}
	b.WriteString(header)
	b.WriteString("\n")

	message := env.Message
	if message == "" {
		message = "no error details available"
	}
	fmt.Fprintf(&b, "%s: %s\n", env.Category, message)

	if env.StatusCode > 0 {
		fmt.Fprintf(&b, "HTTP status: %d\n", env.StatusCode)
	}

	if text, ok := guidance[env.Category]; ok {
		b.WriteString(text)
	} else {
		b.WriteString(guidance[CategoryUnknown])
	}

	return b.String()
}
