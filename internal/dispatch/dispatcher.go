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

// Package dispatch routes inbound MCP tool calls through the gateway's
// per-call pipeline: resolve, authenticate, validate, bind, execute.
//
// Resolution runs before authentication because the credential contract is
// per-vendor: the tool name selects the vendor, and the vendor's spec says
// what credentials to extract. An unknown tool is therefore reported as
// NOT_FOUND even when no credentials were supplied.
//
// The pipeline draws a hard line between two failure surfaces. Missing or
// unusable credentials and gateway throttling are returned as protocol
// errors. Everything else — unknown tool, argument violations, vendor
// rejections, handler panics — becomes an in-band tool result with IsError
// set, formatted from its classified envelope, so a calling model can read
// and react to it.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tombee/toolgate/internal/log"
	"github.com/tombee/toolgate/pkg/errors"
	"github.com/tombee/toolgate/pkg/registry"
	"github.com/tombee/toolgate/pkg/session"
)

// Vendor groups the tools that share one credential contract and one client
// factory. Every tool belongs to exactly one vendor.
type Vendor struct {
	// Name identifies the vendor (e.g., "dropbox", "slack").
	Name string

	// Credentials describes how this vendor's calls authenticate.
	Credentials session.Spec

	// NewClients builds the vendor's named clients for one call from that
	// call's credentials. The returned map seeds the call's client set.
	NewClients func(creds session.Credentials) (map[string]any, error)

	// Tools lists the vendor's tool descriptors.
	Tools []*registry.Descriptor
}

// Options tunes a Dispatcher.
type Options struct {
	// Logger receives dispatch logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Transport names the serving transport for logs ("stdio", "http").
	Transport string

	// RateLimit caps dispatched calls per second; zero disables limiting.
	RateLimit float64

	// RateBurst is the limiter burst size when RateLimit is set.
	RateBurst int

	// Env looks up process environment for credential fallbacks.
	// Defaults to os.Getenv.
	Env func(string) string

	// Metrics collects per-call counters and latencies. Defaults to a
	// fresh collector on an internal registry.
	Metrics *Metrics
}

// Dispatcher owns the tool catalog and runs the per-call pipeline.
// It is safe for concurrent use: all routing state is immutable after New,
// and per-call state lives only on the call's context.
type Dispatcher struct {
	registry  *registry.Registry
	vendors   map[string]*Vendor // tool name -> owning vendor
	logger    *slog.Logger
	transport string
	limiter   *rate.Limiter
	env       func(string) string
	metrics   *Metrics
	tracer    trace.Tracer
}

// New builds a dispatcher from vendor groups. Tool names must be unique
// across all vendors; a collision is a startup configuration error.
func New(vendors []*Vendor, opts Options) (*Dispatcher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	env := opts.Env
	if env == nil {
		env = os.Getenv
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 10
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	d := &Dispatcher{
		registry:  registry.New(),
		vendors:   make(map[string]*Vendor),
		logger:    log.WithComponent(logger, "dispatch"),
		transport: opts.Transport,
		limiter:   limiter,
		env:       env,
		metrics:   metrics,
		tracer:    otel.Tracer("toolgate/dispatch"),
	}

	for _, vendor := range vendors {
		if vendor.Name == "" {
			return nil, fmt.Errorf("vendor with empty name")
		}
		if vendor.NewClients == nil {
			return nil, fmt.Errorf("vendor %s has no client factory", vendor.Name)
		}
		if err := d.registry.RegisterAll(vendor.Tools...); err != nil {
			return nil, fmt.Errorf("vendor %s: %w", vendor.Name, err)
		}
		for _, tool := range vendor.Tools {
			d.vendors[tool.Name] = vendor
		}
	}

	return d, nil
}

// Registry returns the dispatcher's tool catalog.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Metrics returns the dispatcher's metric collector.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Dispatch runs one tool call through the pipeline.
//
// The returned error is non-nil only for protocol-level failures (failed
// authentication, gateway throttling); every other failure, unknown tool
// included, is reported inside the returned result with IsError set.
func (d *Dispatcher) Dispatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name
	requestID := uuid.NewString()
	logger := log.WithRequestID(d.logger, requestID)
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "tool_call",
		trace.WithAttributes(
			attribute.String("tool.name", name),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	call := &log.ToolCall{Tool: name, RequestID: requestID, Transport: d.transport}
	log.LogToolCallStart(logger, call)

	result, err := d.dispatch(ctx, name, req, logger)
	duration := time.Since(start).Milliseconds()

	outcome := &log.ToolCallOutcome{Success: true, DurationMs: duration}
	status := "ok"
	switch {
	case err != nil:
		outcome.Success = false
		outcome.Error = err.Error()
		if env := errors.Classify(err); env != nil {
			outcome.Category = string(env.Category)
			status = string(env.Category)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case result != nil && result.IsError:
		outcome.Success = false
		status = "tool_error"
		span.SetStatus(codes.Error, "tool returned error result")
	default:
		span.SetStatus(codes.Ok, "")
	}

	d.metrics.observe(name, status, time.Since(start))
	log.LogToolCallEnd(logger, call, outcome)

	return result, err
}

// dispatch is the pipeline body; Dispatch wraps it with logging, tracing,
// and metrics.
func (d *Dispatcher) dispatch(ctx context.Context, name string, req mcp.CallToolRequest, logger *slog.Logger) (*mcp.CallToolResult, error) {
	if d.limiter != nil && !d.limiter.Allow() {
		return nil, &errors.Envelope{
			Category:  errors.CategoryRateLimited,
			Message:   "gateway call limit exceeded",
			Retryable: true,
		}
	}

	descriptor, err := d.registry.Resolve(name)
	if err != nil {
		return mcp.NewToolResultError(errors.Format(errors.Classify(err), "call tool", name)), nil
	}
	vendor := d.vendors[name]
	logger = log.WithVendor(logger, vendor.Name)

	creds, err := vendor.Credentials.Extract(CredentialHeader(ctx), d.env, logger)
	if err != nil {
		return nil, errors.Classify(err)
	}

	clients, err := vendor.NewClients(creds)
	if err != nil {
		return nil, errors.Classify(err)
	}

	operation := strings.ReplaceAll(name, "_", " ")

	args, err := descriptor.Schema.Validate(req.GetArguments())
	if err != nil {
		// The handler is never invoked on a validation failure.
		return mcp.NewToolResultError(errors.Format(errors.Classify(err), operation, "")), nil
	}

	ctx = session.WithClients(ctx, session.NewClientSet(clients))

	result, err := d.execute(ctx, descriptor, args)
	if err != nil {
		return mcp.NewToolResultError(errors.Format(errors.Classify(err), operation, resourceHint(args))), nil
	}
	return result, nil
}

// execute invokes the handler with panic containment: a panicking handler
// must take down one call, not the server.
func (d *Dispatcher) execute(ctx context.Context, descriptor *registry.Descriptor, args map[string]any) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked",
				slog.String(log.ToolKey, descriptor.Name),
				slog.Any("panic", r),
			)
			result = nil
			err = &errors.Envelope{
				Category: errors.CategoryUnknown,
				Message:  fmt.Sprintf("internal error in tool %s", descriptor.Name),
			}
		}
	}()

	return descriptor.Handler(ctx, args)
}

// resourceHint picks the argument most likely to name the resource a failed
// call was about, for the formatted error header. Best-effort only.
func resourceHint(args map[string]any) string {
	for _, key := range []string{"path", "channel", "query", "id"} {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

type headerKey struct{}

// WithCredentialHeader binds the raw per-request credential header value to
// the context. The HTTP transport sets this from the configured header;
// stdio leaves it unset and relies on environment fallbacks.
func WithCredentialHeader(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, headerKey{}, value)
}

// CredentialHeader returns the bound credential header, or "".
func CredentialHeader(ctx context.Context) string {
	v, _ := ctx.Value(headerKey{}).(string)
	return v
}
