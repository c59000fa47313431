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

// Package errors defines the uniform error envelope shared by all toolgate
// vendor servers: a closed set of categories, a classifier that maps raw
// failures (vendor HTTP errors, validation failures, network errors) onto
// that set, and a formatter that renders an envelope as actionable text.
package errors

import (
	"fmt"
	"strings"
)

// Category identifies the class of a failure. The set is closed; every
// failure surfaced to a caller carries exactly one category.
type Category string

const (
	// CategoryAuthMissing indicates no credentials were supplied at all.
	CategoryAuthMissing Category = "AUTH_MISSING"

	// CategoryAuthInvalid indicates credentials were supplied but rejected.
	CategoryAuthInvalid Category = "AUTH_INVALID"

	// CategoryPermissionDenied indicates the credentials lack access rights.
	CategoryPermissionDenied Category = "PERMISSION_DENIED"

	// CategoryQuotaExceeded indicates a vendor-side quota or plan limit.
	CategoryQuotaExceeded Category = "QUOTA_EXCEEDED"

	// CategoryValidation indicates the tool arguments failed schema validation.
	CategoryValidation Category = "VALIDATION_ERROR"

	// CategoryBadRequest indicates the vendor rejected a request as malformed.
	CategoryBadRequest Category = "BAD_REQUEST"

	// CategoryNotFound indicates a referenced resource or tool does not exist.
	CategoryNotFound Category = "NOT_FOUND"

	// CategoryConflict indicates the operation conflicts with current state.
	CategoryConflict Category = "CONFLICT"

	// CategoryRateLimited indicates the vendor throttled the request.
	CategoryRateLimited Category = "RATE_LIMITED"

	// CategoryServiceUnavailable indicates a vendor-side 5xx failure.
	CategoryServiceUnavailable Category = "SERVICE_UNAVAILABLE"

	// CategoryNetwork indicates a connection-level failure before a response.
	CategoryNetwork Category = "NETWORK_ERROR"

	// CategoryTimeout indicates the request exceeded a deadline.
	CategoryTimeout Category = "TIMEOUT"

	// CategoryUnknown is the conservative default for unclassifiable errors.
	CategoryUnknown Category = "UNKNOWN_VENDOR_ERROR"
)

// Envelope is the uniform structured representation of a classified failure.
// It is constructed where the failure is detected, enriched with guidance as
// it propagates, and serialized at the dispatch boundary; it is never
// re-thrown past that boundary.
type Envelope struct {
	// Category is the classified error class.
	Category Category

	// Message is the human-readable error description.
	Message string

	// StatusCode is the vendor HTTP status, if one was observed (0 otherwise).
	StatusCode int

	// Retryable reports whether retrying the same call may succeed.
	// Only rate-limit, service-unavailable, network, and timeout failures
	// are retryable.
	Retryable bool

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Envelope) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Category, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Envelope) Unwrap() error {
	return e.Cause
}

// VendorError represents a failure reported by a wrapped vendor API.
// Vendor clients raise this for any non-2xx response; the classifier maps it
// to a category by status code.
type VendorError struct {
	// Vendor is the vendor name (e.g., "dropbox", "slack").
	Vendor string

	// StatusCode is the HTTP status code of the failed call.
	StatusCode int

	// Message is the vendor-supplied error text, if any.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *VendorError) Error() string {
	msg := fmt.Sprintf("vendor %s error", e.Vendor)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *VendorError) Unwrap() error {
	return e.Cause
}

// Violation describes one field-level schema violation.
type Violation struct {
	// Field is the argument field that failed validation.
	Field string

	// Message describes what is wrong with the field.
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError represents tool argument validation failures.
// It carries every violated field, not just the first one found.
type ValidationError struct {
	// Violations lists all field-level failures.
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of all violated fields in violation order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// AuthError represents a credential extraction or construction failure.
// Missing reports whether no credentials were supplied at all, as opposed to
// credentials that were supplied but unusable.
type AuthError struct {
	// Missing is true when neither a header nor environment fallback was found.
	Missing bool

	// Expected names the credential field(s) the vendor recognizes.
	Expected []string

	// Reason describes what went wrong.
	Reason string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := "invalid credentials"
	if e.Missing {
		msg = "missing credentials"
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if len(e.Expected) > 0 {
		msg = fmt.Sprintf("%s (expected %s)", msg, strings.Join(e.Expected, " or "))
	}
	return msg
}

// Wrap creates a new error that wraps the given error with additional context.
// If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf creates a new error that wraps the given error with formatted context.
// If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
