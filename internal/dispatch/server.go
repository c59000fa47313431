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

package dispatch

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tombee/toolgate/internal/config"
)

// Server exposes a dispatcher's tool catalog over an MCP transport.
type Server struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	logger     *slog.Logger
	mcpServer  *mcpserver.MCPServer
	version    string
}

// NewServer wires the dispatcher's advertised tools into an MCP server.
// Only tools passing the configured allow-list (or their enabled-by-default
// flag) are advertised; a tool that is not advertised cannot be called.
func NewServer(cfg *config.Config, dispatcher *Dispatcher, logger *slog.Logger, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		mcpServer:  mcpserver.NewMCPServer("toolgate", version),
		version:    version,
	}

	for _, descriptor := range dispatcher.Registry().List(cfg.Server.Tools) {
		s.mcpServer.AddTool(mcp.Tool{
			Name:        descriptor.Name,
			Description: descriptor.Description,
			InputSchema: descriptor.Schema.ToMCP(),
		}, s.dispatcher.Dispatch)
	}

	return s
}

// Run serves until ctx is cancelled (HTTP) or the client disconnects (stdio).
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case config.TransportStdio:
		return s.runStdio()
	case config.TransportHTTP:
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Server.Transport)
	}
}

func (s *Server) runStdio() error {
	s.logger.Info("starting toolgate server",
		slog.String("transport", "stdio"),
		slog.String("version", s.version),
	)
	if err := mcpserver.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func (s *Server) runHTTP(ctx context.Context) error {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return WithCredentialHeader(ctx, r.Header.Get(s.cfg.Server.CredentialHeader))
		}),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", s.requireAccessToken(streamable))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	if s.cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.HandlerFor(
			s.dispatcher.Metrics().Gatherer(),
			promhttp.HandlerOpts{},
		))
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting toolgate server",
			slog.String("transport", "http"),
			slog.String("addr", s.cfg.Server.Addr),
			slog.String("version", s.version),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down toolgate server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// requireAccessToken gates the MCP endpoint behind a static bearer token
// when one is configured. This authenticates the caller to the gateway;
// vendor credentials ride separately in the credential header.
func (s *Server) requireAccessToken(next http.Handler) http.Handler {
	token := s.cfg.Server.AccessToken
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			s.logger.Warn("rejected request with bad access token",
				slog.String("remote", r.RemoteAddr),
			)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
