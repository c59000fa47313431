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

package session

import (
	"context"
	"fmt"
)

// ClientSet holds the vendor client(s) constructed for one inbound call.
// It is bound to the call's context by the dispatcher before any handler
// runs and is torn down with the context when the call finishes. It is never
// shared between calls: concurrent calls each carry their own set through
// their own context chains, which is what keeps one tenant's credentials
// from ever leaking into another tenant's response.
type ClientSet struct {
	clients map[string]any
}

// NewClientSet builds a set from named clients.
func NewClientSet(clients map[string]any) *ClientSet {
	if clients == nil {
		clients = map[string]any{}
	}
	return &ClientSet{clients: clients}
}

// Get returns the named client, or nil if absent.
func (cs *ClientSet) Get(name string) any {
	if cs == nil {
		return nil
	}
	return cs.clients[name]
}

type contextKey struct{}

// WithClients binds a client set to the context for the extent of one call.
// Every dispatch path must bind before invoking a handler.
func WithClients(ctx context.Context, clients *ClientSet) context.Context {
	return context.WithValue(ctx, contextKey{}, clients)
}

// FromContext returns the client set bound by the nearest enclosing
// WithClients. Calling it outside a bind is a programming error in the
// dispatch path and fails fast rather than returning a nil set.
func FromContext(ctx context.Context) (*ClientSet, error) {
	clients, ok := ctx.Value(contextKey{}).(*ClientSet)
	if !ok || clients == nil {
		return nil, fmt.Errorf("no client set bound to context: handler invoked outside a dispatch bind")
	}
	return clients, nil
}

// Client retrieves a typed client from the current call's set.
func Client[T any](ctx context.Context, name string) (T, error) {
	var zero T
	clients, err := FromContext(ctx)
	if err != nil {
		return zero, err
	}
	raw := clients.Get(name)
	if raw == nil {
		return zero, fmt.Errorf("no %q client bound to this call", name)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("client %q has type %T, not the requested type", name, raw)
	}
	return typed, nil
}
