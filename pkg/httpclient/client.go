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

// Package httpclient builds the outbound HTTP clients vendor adapters use.
//
// Every client shares the same transport behavior: TLS 1.2+, connection
// pooling, User-Agent injection, and request logging with sensitive query
// parameters redacted. Retry is deliberately not a transport concern here —
// operations that are safe to retry wrap their call sites with pkg/retry
// instead, so non-idempotent vendor calls are never silently re-sent.
package httpclient

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures an outbound HTTP client.
type Config struct {
	// Timeout is the total request timeout. Default: 30s. Must be > 0.
	Timeout time.Duration

	// UserAgent is the User-Agent header value. Required.
	UserAgent string

	// Base optionally overrides the underlying transport (tests).
	Base http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: "toolgate/1.0",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}
	return nil
}

// New creates an HTTP client with the shared transport behavior.
func New(cfg Config) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.Base
	if base == nil {
		base = &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: cfg.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &http.Client{
		Transport: &loggingTransport{base: base, userAgent: cfg.UserAgent},
		Timeout:   cfg.Timeout,
	}, nil
}

// loggingTransport injects the User-Agent header and logs each request with
// a sanitized URL and duration.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	logURL := SanitizeURL(req.URL)
	if err != nil {
		slog.Warn("http request failed",
			"method", req.Method,
			"url", logURL,
			"duration_ms", duration,
			"error", err.Error(),
		)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	slog.Log(req.Context(), level, "http request",
		"method", req.Method,
		"url", logURL,
		"status", resp.StatusCode,
		"duration_ms", duration,
	)

	return resp, nil
}

// sensitiveParams are query parameter names redacted from logged URLs,
// matched case-insensitively as substrings.
var sensitiveParams = []string{
	"api_key",
	"apikey",
	"token",
	"password",
	"auth",
	"secret",
	"key",
	"credential",
}

// SanitizeURL redacts sensitive query parameters before logging.
func SanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	for param := range q {
		lower := strings.ToLower(param)
		for _, sensitive := range sensitiveParams {
			if strings.Contains(lower, sensitive) {
				q.Set(param, "[REDACTED]")
				break
			}
		}
	}

	safe := *u
	safe.RawQuery = q.Encode()
	return safe.String()
}
