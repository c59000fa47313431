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
	"context"
	"errors"
	"net"
	"strings"
)

// Classify maps a raw error onto an Envelope.
//
// Precedence:
//  1. an *Envelope passes through unchanged (Classify is idempotent)
//  2. a *VendorError is mapped by HTTP status code
//  3. an *AuthError maps to AUTH_MISSING or AUTH_INVALID
//  4. a *ValidationError maps to VALIDATION_ERROR
//  5. deadline and network errors map to TIMEOUT / NETWORK_ERROR
//  6. everything else maps to UNKNOWN_VENDOR_ERROR
//
// Classify never returns nil for a non-nil error; Classify(nil) returns nil.
func Classify(err error) *Envelope {
	if err == nil {
		return nil
	}

	var env *Envelope
	if errors.As(err, &env) {
		return env
	}

	var vendorErr *VendorError
	if errors.As(err, &vendorErr) {
		return classifyVendor(vendorErr)
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		category := CategoryAuthInvalid
		if authErr.Missing {
			category = CategoryAuthMissing
		}
		return &Envelope{
			Category: category,
			Message:  authErr.Error(),
			Cause:    authErr,
		}
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &Envelope{
			Category: CategoryValidation,
			Message:  validationErr.Error(),
			Cause:    validationErr,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Envelope{
			Category:  CategoryTimeout,
			Message:   err.Error(),
			Retryable: true,
			Cause:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		category := CategoryNetwork
		if netErr.Timeout() {
			category = CategoryTimeout
		}
		return &Envelope{
			Category:  category,
			Message:   err.Error(),
			Retryable: true,
			Cause:     err,
		}
	}

	return &Envelope{
		Category: CategoryUnknown,
		Message:  err.Error(),
		Cause:    err,
	}
}

// classifyVendor maps a vendor HTTP status code to a category.
func classifyVendor(err *VendorError) *Envelope {
	env := &Envelope{
		Message:    err.Error(),
		StatusCode: err.StatusCode,
		Cause:      err,
	}

	switch {
	case err.StatusCode == 400:
		env.Category = CategoryBadRequest
	case err.StatusCode == 401:
		env.Category = CategoryAuthInvalid
	case err.StatusCode == 403:
		// Vendors report quota exhaustion as 403; the reason text is the
		// only way to tell it apart from a plain permission failure.
		if isQuotaMessage(err.Message) {
			env.Category = CategoryQuotaExceeded
		} else {
			env.Category = CategoryPermissionDenied
		}
	case err.StatusCode == 404:
		env.Category = CategoryNotFound
	case err.StatusCode == 409:
		env.Category = CategoryConflict
	case err.StatusCode == 429:
		env.Category = CategoryRateLimited
		env.Retryable = true
	case err.StatusCode >= 500 && err.StatusCode < 600:
		env.Category = CategoryServiceUnavailable
		env.Retryable = true
	default:
		env.Category = CategoryUnknown
	}

	return env
}

// isQuotaMessage reports whether a 403 reason text indicates quota exhaustion
// rather than a plain authorization failure.
func isQuotaMessage(message string) bool {
	msg := strings.ToLower(message)
	for _, pattern := range []string{"quota", "limit exceeded", "usage limit", "rate limit"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether an error classifies as retryable.
func IsRetryable(err error) bool {
	env := Classify(err)
	return env != nil && env.Retryable
}
