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

// Package batch runs bulk vendor operations in fixed-size chunks with
// per-item fallback.
//
// When a whole chunk fails, every item in it is retried individually so the
// caller learns exactly which items failed and why. The extra calls are an
// accepted cost: bulk operations are not latency-critical and per-item
// diagnostics matter more than throughput.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// maxInFlight bounds concurrent per-item fallback calls within one chunk.
const maxInFlight = 8

// ItemError records one item that failed even when retried individually.
type ItemError[T any] struct {
	// Item is the input item that failed.
	Item T

	// Err is the per-item failure.
	Err error
}

// Result partitions a run's input: every input item lands in exactly one of
// Successes or Failures.
type Result[T, R any] struct {
	// Successes holds the per-item results of all items that succeeded.
	Successes []R

	// Failures holds every item that failed its individual retry.
	Failures []ItemError[T]
}

// ChunkFunc processes one chunk of items, returning one result per item in
// input order. It is also invoked with single-item slices during fallback.
type ChunkFunc[T, R any] func(ctx context.Context, items []T) ([]R, error)

// Run processes items in consecutive chunks of at most chunkSize.
//
// A chunk that succeeds with one result per item contributes them all to
// Successes. A chunk that fails (or returns the wrong number of results) is
// not fatal: each of its items is retried individually (at
// most once, concurrently in flight), and items that still fail are recorded
// in Failures with their error. No item is processed more than twice.
//
// The returned error is non-nil only for invalid arguments; item failures
// never escape as an error.
func Run[T, R any](ctx context.Context, items []T, chunkSize int, fn ChunkFunc[T, R]) (*Result[T, R], error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", chunkSize)
	}
	if fn == nil {
		return nil, fmt.Errorf("chunk function must not be nil")
	}

	result := &Result[T, R]{}

	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		results, err := fn(ctx, chunk)
		if err == nil && len(results) == len(chunk) {
			result.Successes = append(result.Successes, results...)
			continue
		}

		// A wrong-length result slice would break the one-partition-per-item
		// accounting, so it falls back the same way a failed chunk does.
		successes, failures := retryIndividually(ctx, chunk, fn)
		result.Successes = append(result.Successes, successes...)
		result.Failures = append(result.Failures, failures...)
	}

	return result, nil
}

// retryIndividually re-runs each item of a failed chunk on its own.
// Items are issued concurrently in flight; the returned slices preserve the
// chunk's input order.
func retryIndividually[T, R any](ctx context.Context, chunk []T, fn ChunkFunc[T, R]) ([]R, []ItemError[T]) {
	type itemOutcome struct {
		result R
		err    error
	}
	outcomes := make([]itemOutcome, len(chunk))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for i, item := range chunk {
		g.Go(func() error {
			results, err := fn(gctx, []T{item})
			switch {
			case err != nil:
				outcomes[i].err = err
			case len(results) != 1:
				outcomes[i].err = fmt.Errorf("chunk function returned %d results for 1 item", len(results))
			default:
				outcomes[i].result = results[0]
			}
			// Per-item failures are captured, never propagated, so the
			// remaining items still run.
			return nil
		})
	}
	_ = g.Wait()

	var successes []R
	var failures []ItemError[T]
	for i, outcome := range outcomes {
		if outcome.err != nil {
			failures = append(failures, ItemError[T]{Item: chunk[i], Err: outcome.err})
		} else {
			successes = append(successes, outcome.result)
		}
	}
	return successes, failures
}
