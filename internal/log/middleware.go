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

package log

import (
	"log/slog"
)

// ToolCall captures the identifying fields of one tool invocation for
// logging purposes. Arguments are never logged here: they may contain
// paths, message bodies, or other tenant data.
type ToolCall struct {
	// Tool is the registered tool name.
	Tool string

	// RequestID is the unique ID for this specific call.
	RequestID string

	// Transport is the serving transport ("stdio", "http").
	Transport string
}

// ToolCallOutcome captures the result of one tool invocation.
type ToolCallOutcome struct {
	// Success indicates whether the call produced a non-error result.
	Success bool

	// Category is the error category when the call failed.
	Category string

	// Error is the error message if the call failed.
	Error string

	// DurationMs is the duration of the call in milliseconds.
	DurationMs int64
}

// LogToolCallStart logs an incoming tool call.
func LogToolCallStart(logger *slog.Logger, call *ToolCall) {
	logger.Info("tool call received",
		EventKey, "tool_call",
		ToolKey, call.Tool,
		RequestIDKey, call.RequestID,
		"transport", call.Transport,
	)
}

// LogToolCallEnd logs a completed tool call at a level matching its outcome.
func LogToolCallEnd(logger *slog.Logger, call *ToolCall, outcome *ToolCallOutcome) {
	attrs := []any{
		EventKey, "tool_result",
		ToolKey, call.Tool,
		RequestIDKey, call.RequestID,
		"success", outcome.Success,
		Duration("duration", outcome.DurationMs),
	}

	if outcome.Category != "" {
		attrs = append(attrs, CategoryKey, outcome.Category)
	}
	if outcome.Error != "" {
		attrs = append(attrs, "error", outcome.Error)
	}

	level := slog.LevelInfo
	message := "tool call completed"
	if !outcome.Success {
		level = slog.LevelWarn
		message = "tool call failed"
	}

	logger.Log(nil, level, message, attrs...)
}
