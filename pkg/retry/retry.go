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

// Package retry is an opt-in backoff decorator for individual vendor
// operations.
//
// Retry is never applied inside the dispatcher or the HTTP transport:
// blanket retry would silently re-send non-idempotent calls (a retried
// message post can double-send). Operations that are safe to retry opt in
// explicitly by wrapping the single call site.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tombee/toolgate/internal/log"
	"github.com/tombee/toolgate/pkg/errors"
)

// Options tunes the backoff schedule.
type Options struct {
	// MaxAttempts bounds the total number of calls (initial + retries).
	// Default: 4.
	MaxAttempts uint64

	// InitialInterval is the first backoff delay. Default: 500ms.
	InitialInterval time.Duration

	// MaxInterval caps the delay between attempts. Default: 15s.
	MaxInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 4
	}
	if o.InitialInterval == 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.MaxInterval == 0 {
		o.MaxInterval = 15 * time.Second
	}
	return o
}

// Do invokes fn, retrying with exponential backoff while the returned error
// classifies as retryable (rate limits, 5xx, network failures, timeouts).
// Non-retryable errors abort immediately. Context cancellation stops the
// schedule between attempts.
func Do(ctx context.Context, operation string, logger *slog.Logger, fn func() error) error {
	return DoWithOptions(ctx, operation, logger, Options{}, fn)
}

// DoWithOptions is Do with an explicit backoff schedule.
func DoWithOptions(ctx context.Context, operation string, logger *slog.Logger, opts Options, fn func() error) error {
	opts = opts.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval
	b.MaxInterval = opts.MaxInterval

	attempt := 0
	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if logger != nil {
			logger.Debug("retrying operation",
				slog.String("operation", operation),
				slog.Int("attempt", attempt),
				log.Error(err),
			)
		}
		return err
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(b, opts.MaxAttempts-1), ctx)
	return backoff.Retry(wrapped, schedule)
}
