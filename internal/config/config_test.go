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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TOOLGATE_TRANSPORT", "TOOLGATE_ADDR", "TOOLGATE_TOOLS",
		"TOOLGATE_ACCESS_TOKEN", "TOOLGATE_RATE_LIMIT", "TOOLGATE_CONFIG",
		"TOOLGATE_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.Tools)
	assert.Equal(t, "X-Toolgate-Credentials", cfg.Server.CredentialHeader)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "toolgate.yaml")
	content := `
server:
  transport: http
  addr: ":9090"
  tools: [dropbox_list_folder, search_query]
  rate_limit: 50
log:
  level: debug
http:
  timeout: 10s
  user_agent: custom-agent/2.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"dropbox_list_folder", "search_query"}, cfg.Server.Tools)
	assert.Equal(t, 50.0, cfg.Server.RateLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "custom-agent/2.0", cfg.HTTP.UserAgent)
	// Unset file fields keep their defaults.
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Server.RateBurst)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "toolgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: stdio\n"), 0o600))

	t.Setenv("TOOLGATE_TRANSPORT", "http")
	t.Setenv("TOOLGATE_ADDR", "127.0.0.1:7000")
	t.Setenv("TOOLGATE_TOOLS", " slack_post_message, slack_list_channels ,")
	t.Setenv("TOOLGATE_ACCESS_TOKEN", "sekrit")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, []string{"slack_post_message", "slack_list_channels"}, cfg.Server.Tools)
	assert.Equal(t, "sekrit", cfg.Server.AccessToken)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "toolgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":4242\"\n"), 0o600))
	t.Setenv("TOOLGATE_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":4242", cfg.Server.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"http transport valid", func(c *Config) { c.Server.Transport = TransportHTTP }, false},
		{"unknown transport", func(c *Config) { c.Server.Transport = "grpc" }, true},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"empty tool name", func(c *Config) { c.Server.Tools = []string{"ok", ""} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitTools(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTools("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitTools(" a , b "))
	assert.Empty(t, splitTools(",,"))
}
