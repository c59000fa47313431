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

package session_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/session"
)

func tokenSpec() session.Spec {
	return session.Spec{
		EnvPrimary: map[string]string{"TOOLGATE_ACCESS_TOKEN": "access_token"},
		Primary:    []string{"access_token"},
	}
}

func slackSpec() session.Spec {
	return session.Spec{
		Primary:   []string{"access_token"},
		Alternate: []string{"bot_token", "user_token"},
	}
}

func noEnv(string) string { return "" }

func encode(t *testing.T, payload string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestExtract_Base64JSONHeader(t *testing.T) {
	header := encode(t, `{"access_token":"sl.abc123"}`)

	creds, err := tokenSpec().Extract(header, noEnv, nil)
	require.NoError(t, err)
	assert.Equal(t, session.Credentials{"access_token": "sl.abc123"}, creds)
}

func TestExtract_RawTokenFallback(t *testing.T) {
	// Not valid base64, but a plausible bare token.
	creds, err := tokenSpec().Extract("sl.raw-token-!!", noEnv, nil)
	require.NoError(t, err)
	assert.Equal(t, "sl.raw-token-!!", creds.Get("access_token"))
}

func TestExtract_EnvTakesPrecedence(t *testing.T) {
	env := func(key string) string {
		if key == "TOOLGATE_ACCESS_TOKEN" {
			return "env-token"
		}
		return ""
	}
	header := encode(t, `{"access_token":"header-token"}`)

	creds, err := tokenSpec().Extract(header, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "env-token", creds.Get("access_token"))
}

func TestExtract_MissingEverything(t *testing.T) {
	_, err := tokenSpec().Extract("", noEnv, nil)
	require.Error(t, err)

	var authErr *errors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.Missing)
	assert.Contains(t, authErr.Expected, "access_token")
}

func TestExtract_DecodedButNotJSON(t *testing.T) {
	header := encode(t, "this is not json")

	_, err := tokenSpec().Extract(header, noEnv, nil)
	require.Error(t, err)

	var authErr *errors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, authErr.Missing)
}

func TestExtract_UnrecognizedFields(t *testing.T) {
	header := encode(t, `{"api_secret":"zzz"}`)

	_, err := tokenSpec().Extract(header, noEnv, nil)
	require.Error(t, err)

	var authErr *errors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "access_token")
}

func TestExtract_AlternatePair(t *testing.T) {
	header := encode(t, `{"bot_token":"xoxb-1","user_token":"xoxp-2"}`)

	creds, err := slackSpec().Extract(header, noEnv, nil)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-1", creds.Get("bot_token"))
	assert.Equal(t, "xoxp-2", creds.Get("user_token"))
}

func TestExtract_PrimaryPreferredOverAlternate(t *testing.T) {
	header := encode(t, `{"access_token":"primary","bot_token":"xoxb-1","user_token":"xoxp-2"}`)

	creds, err := slackSpec().Extract(header, noEnv, nil)
	require.NoError(t, err)
	assert.Equal(t, "primary", creds.Get("access_token"))
	assert.Empty(t, creds.Get("bot_token"), "alternate fields must not ride along")
}

func TestExtract_IncompleteAlternatePair(t *testing.T) {
	header := encode(t, `{"bot_token":"xoxb-1"}`)

	_, err := slackSpec().Extract(header, noEnv, nil)
	require.Error(t, err)
}

func TestMasked(t *testing.T) {
	creds := session.Credentials{
		"access_token": "sl.abcdefgh1234",
		"short":        "ab",
	}

	masked := creds.Masked()
	assert.Equal(t, "...1234", masked["access_token"])
	assert.Equal(t, "[REDACTED]", masked["short"])
	// Original stays intact.
	assert.Equal(t, "sl.abcdefgh1234", creds.Get("access_token"))
}
