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

// Package session binds per-request credentials and the vendor clients built
// from them to the dynamic extent of one inbound call.
//
// Credentials arrive either from process configuration or from a transport
// header carrying a base64-encoded JSON object. Extraction produces an
// immutable bundle that exists only for the duration of the call; full token
// values never appear in logs.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tombee/toolgate/internal/log"
	"github.com/tombee/toolgate/pkg/errors"
)

// Credentials is an opaque bundle of named secret fields extracted for one
// inbound call. Treat it as immutable once returned by Extract.
type Credentials map[string]string

// Get returns the named secret, or "" if absent.
func (c Credentials) Get(field string) string {
	return c[field]
}

// Has reports whether every named field is present and non-empty.
func (c Credentials) Has(fields ...string) bool {
	for _, f := range fields {
		if c[f] == "" {
			return false
		}
	}
	return true
}

// Masked returns a copy safe for debug logging: each value keeps only its
// last four characters.
func (c Credentials) Masked() map[string]string {
	out := make(map[string]string, len(c))
	for field, value := range c {
		out[field] = log.SanitizeAPIKey(value)
	}
	return out
}

// Spec describes how one vendor authenticates: which environment variables
// carry the process-level fallback, and which field combinations the vendor
// recognizes in a per-request credential object.
type Spec struct {
	// EnvPrimary maps environment variable names to credential fields for
	// the process-level fallback, e.g. {"TOOLGATE_ACCESS_TOKEN": "access_token"}.
	EnvPrimary map[string]string

	// Primary is the preferred field set, usually a single token name.
	Primary []string

	// Alternate is an optional cooperating field pair accepted when the
	// primary form is absent (e.g. bot_token + user_token).
	Alternate []string
}

// expectedFields names every field the spec recognizes, for error messages.
func (s Spec) expectedFields() []string {
	fields := append([]string{}, s.Primary...)
	if len(s.Alternate) > 0 {
		fields = append(fields, strings.Join(s.Alternate, "+"))
	}
	return fields
}

// Extract produces a credential bundle for one inbound call.
//
// Process-level configuration wins: if every primary field has a value via
// env, the header is ignored. Otherwise the header is decoded as
// base64(JSON); a header that is not valid base64 is treated as a raw
// primary-token value rather than rejected, since callers may pass the bare
// token. A header that decodes but is not JSON, or that carries none of the
// recognized fields, is an auth error naming the expected fields.
func (s Spec) Extract(header string, env func(string) string, logger *slog.Logger) (Credentials, error) {
	if creds := s.fromEnv(env); creds != nil {
		s.logForm(logger, "environment", creds)
		return creds, nil
	}

	if header == "" {
		return nil, &errors.AuthError{
			Missing:  true,
			Expected: s.expectedFields(),
			Reason:   "no credential header and no configured default token",
		}
	}

	payload, decodeErr := base64.StdEncoding.DecodeString(header)
	if decodeErr != nil {
		// The value may already be a usable raw token.
		if len(s.Primary) == 1 {
			creds := Credentials{s.Primary[0]: header}
			s.logForm(logger, "raw header", creds)
			return creds, nil
		}
		return nil, &errors.AuthError{
			Expected: s.expectedFields(),
			Reason:   "credential header is not base64 and this vendor requires multiple named tokens",
		}
	}

	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &errors.AuthError{
			Expected: s.expectedFields(),
			Reason:   "credential header decoded but is not a JSON object of string fields",
		}
	}

	creds := s.pickFields(fields)
	if creds == nil {
		return nil, &errors.AuthError{
			Expected: s.expectedFields(),
			Reason:   fmt.Sprintf("credential object has no recognized field (got %s)", keyList(fields)),
		}
	}

	s.logForm(logger, "header", creds)
	return creds, nil
}

// fromEnv builds a bundle from process configuration, or nil when incomplete.
func (s Spec) fromEnv(env func(string) string) Credentials {
	if env == nil || len(s.EnvPrimary) == 0 {
		return nil
	}
	creds := Credentials{}
	for envVar, field := range s.EnvPrimary {
		value := env(envVar)
		if value == "" {
			return nil
		}
		creds[field] = value
	}
	return creds
}

// pickFields selects the primary form when complete, else the alternate.
// The choice is deterministic: primary always wins when both are supplied.
func (s Spec) pickFields(fields map[string]string) Credentials {
	if complete(fields, s.Primary) {
		return subset(fields, s.Primary)
	}
	if len(s.Alternate) > 0 && complete(fields, s.Alternate) {
		return subset(fields, s.Alternate)
	}
	return nil
}

func complete(fields map[string]string, names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, name := range names {
		if fields[name] == "" {
			return false
		}
	}
	return true
}

func subset(fields map[string]string, names []string) Credentials {
	creds := make(Credentials, len(names))
	for _, name := range names {
		creds[name] = fields[name]
	}
	return creds
}

func keyList(fields map[string]string) string {
	if len(fields) == 0 {
		return "no fields"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func (s Spec) logForm(logger *slog.Logger, source string, creds Credentials) {
	if logger == nil {
		return
	}
	logger.Debug("extracted credentials",
		slog.String("source", source),
		slog.Any("fields", creds.Masked()),
	)
}
