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

package errors_test

import (
	"strings"
	"testing"

	gateerrors "github.com/tombee/toolgate/pkg/errors"
)

func TestFormat_Header(t *testing.T) {
	env := &gateerrors.Envelope{
		Category:   gateerrors.CategoryNotFound,
		Message:    "path not found",
		StatusCode: 404,
	}

	got := gateerrors.Format(env, "get metadata", "/reports/q3.pdf")

	if !strings.HasPrefix(got, `failed to get metadata: "/reports/q3.pdf"`) {
		t.Errorf("header line wrong:\n%s", got)
	}
	if !strings.Contains(got, "NOT_FOUND: path not found") {
		t.Errorf("missing category line:\n%s", got)
	}
	if !strings.Contains(got, "HTTP status: 404") {
		t.Errorf("missing status line:\n%s", got)
	}
	if !strings.Contains(got, "identifier is correct") {
		t.Errorf("missing not-found guidance:\n%s", got)
	}
}

func TestFormat_NoResource(t *testing.T) {
	env := &gateerrors.Envelope{
		Category: gateerrors.CategoryRateLimited,
		Message:  "too many requests",
	}

	got := gateerrors.Format(env, "post message", "")

	if !strings.HasPrefix(got, "failed to post message\n") {
		t.Errorf("header line wrong:\n%s", got)
	}
	if strings.Contains(got, "HTTP status") {
		t.Errorf("status line present without status code:\n%s", got)
	}
	if !strings.Contains(got, "Back off before retrying") {
		t.Errorf("missing rate-limit guidance:\n%s", got)
	}
}

func TestFormat_DegradesOnMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		env  *gateerrors.Envelope
	}{
		{"nil envelope", nil},
		{"empty category", &gateerrors.Envelope{Message: "mystery"}},
		{"unmapped category", &gateerrors.Envelope{Category: gateerrors.Category("BOGUS"), Message: "odd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gateerrors.Format(tt.env, "do thing", "")
			if got == "" {
				t.Fatal("Format returned empty string")
			}
			if !strings.Contains(got, "failed to do thing") {
				t.Errorf("missing header:\n%s", got)
			}
		})
	}
}

func TestGuidanceIsDeterministic(t *testing.T) {
	env := &gateerrors.Envelope{Category: gateerrors.CategoryQuotaExceeded, Message: "quota"}
	first := gateerrors.Format(env, "upload", "a.txt")
	second := gateerrors.Format(env, "upload", "a.txt")
	if first != second {
		t.Error("Format output must be deterministic for the same input")
	}
}
