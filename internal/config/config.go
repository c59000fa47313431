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

// Package config loads the toolgate server configuration.
//
// Precedence, lowest to highest: built-in defaults, then the YAML config
// file, then environment variables. The config file is optional; a server
// with no file and no environment runs stdio with every default tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Transport selects how the server speaks MCP.
type Transport string

const (
	// TransportStdio serves a single client over stdin/stdout.
	TransportStdio Transport = "stdio"
	// TransportHTTP serves concurrent clients over streamable HTTP.
	TransportHTTP Transport = "http"
)

// Config represents the complete toolgate configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the MCP serving surface.
type ServerConfig struct {
	// Transport is "stdio" or "http".
	// Environment: TOOLGATE_TRANSPORT
	// Default: stdio
	Transport Transport `yaml:"transport"`

	// Addr is the listen address for the HTTP transport (e.g., ":8080").
	// Ignored on stdio.
	// Environment: TOOLGATE_ADDR
	// Default: :8080
	Addr string `yaml:"addr,omitempty"`

	// Tools is an allow-list of tool names to expose. Empty means every
	// tool that is enabled by default.
	// Environment: TOOLGATE_TOOLS (comma-separated)
	Tools []string `yaml:"tools,omitempty"`

	// AccessToken, when set, requires HTTP clients to present it as a
	// bearer token before any tool call is dispatched. Ignored on stdio,
	// where the process owner is the trust boundary.
	// Environment: TOOLGATE_ACCESS_TOKEN
	AccessToken string `yaml:"access_token,omitempty"`

	// CredentialHeader is the HTTP header carrying per-request vendor
	// credentials.
	// Default: X-Toolgate-Credentials
	CredentialHeader string `yaml:"credential_header,omitempty"`

	// RateLimit caps dispatched tool calls per second across all clients.
	// Zero disables limiting.
	// Environment: TOOLGATE_RATE_LIMIT
	RateLimit float64 `yaml:"rate_limit,omitempty"`

	// RateBurst is the burst size for the rate limiter. Only meaningful
	// when RateLimit is set.
	// Default: 10
	RateBurst int `yaml:"rate_burst,omitempty"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Environment: TOOLGATE_LOG_LEVEL, LOG_LEVEL
	// Default: info
	Level string `yaml:"level,omitempty"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: json
	Format string `yaml:"format,omitempty"`
}

// HTTPConfig configures outbound vendor HTTP clients.
type HTTPConfig struct {
	// Timeout is the total per-request timeout for vendor calls.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent is the User-Agent header on vendor requests.
	// Default: toolgate/1.0
	UserAgent string `yaml:"user_agent,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled serves /metrics on the HTTP transport's mux.
	// Default: true on http transport, no effect on stdio.
	Enabled bool `yaml:"enabled"`
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Transport:        TransportStdio,
			Addr:             ":8080",
			CredentialHeader: "X-Toolgate-Credentials",
			RateBurst:        10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "toolgate/1.0",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load builds the effective configuration: defaults, overlaid with the YAML
// file at path (if non-empty or TOOLGATE_CONFIG is set), overlaid with
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TOOLGATE_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("TOOLGATE_TRANSPORT"); v != "" {
		c.Server.Transport = Transport(strings.ToLower(v))
	}
	if v := os.Getenv("TOOLGATE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TOOLGATE_TOOLS"); v != "" {
		c.Server.Tools = splitTools(v)
	}
	if v := os.Getenv("TOOLGATE_ACCESS_TOKEN"); v != "" {
		c.Server.AccessToken = v
	}
	if v := os.Getenv("TOOLGATE_RATE_LIMIT"); v != "" {
		if limit, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.RateLimit = limit
		}
	}
	if v := os.Getenv("TOOLGATE_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	} else if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
}

// applyDefaults fills in zero values a YAML overlay may have blanked.
func (c *Config) applyDefaults() {
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.CredentialHeader == "" {
		c.Server.CredentialHeader = "X-Toolgate-Credentials"
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = "toolgate/1.0"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: unknown transport %q (want stdio or http)", ErrInvalidConfig, c.Server.Transport)
	}

	if c.Server.Transport == TransportHTTP && c.Server.Addr == "" {
		return fmt.Errorf("%w: http transport requires a listen address", ErrInvalidConfig)
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must be >= 0, got %v", ErrInvalidConfig, c.Server.RateLimit)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q (want json or text)", ErrInvalidConfig, c.Log.Format)
	}

	for _, tool := range c.Server.Tools {
		if tool == "" {
			return fmt.Errorf("%w: tool allow-list contains an empty name", ErrInvalidConfig)
		}
	}

	return nil
}

// splitTools parses a comma-separated allow-list, trimming whitespace and
// dropping empty entries.
func splitTools(v string) []string {
	parts := strings.Split(v, ",")
	tools := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tools = append(tools, p)
		}
	}
	return tools
}
