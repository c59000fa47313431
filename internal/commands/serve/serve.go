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

// Package serve implements the serve command, the gateway's main entrypoint.
package serve

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/toolgate/internal/config"
	"github.com/tombee/toolgate/internal/dispatch"
	"github.com/tombee/toolgate/internal/log"
	"github.com/tombee/toolgate/internal/vendors/dropbox"
	"github.com/tombee/toolgate/internal/vendors/search"
	"github.com/tombee/toolgate/internal/vendors/slack"
	"github.com/tombee/toolgate/pkg/httpclient"
)

// NewCommand creates the serve command.
func NewCommand(version string) *cobra.Command {
	var (
		configPath string
		transport  string
		addr       string
		tools      []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool gateway",
		Long: `Start the toolgate MCP server.

On the stdio transport the server speaks to a single client over
stdin/stdout and authenticates vendor calls from environment variables.
On the http transport it serves concurrent clients, each supplying its
own vendor credentials per request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override file and environment.
			if transport != "" {
				cfg.Server.Transport = config.Transport(transport)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if len(tools) > 0 {
				cfg.Server.Tools = tools
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd, cfg, version)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: $TOOLGATE_CONFIG)")
	cmd.Flags().StringVar(&transport, "transport", "", "Serving transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for the http transport")
	cmd.Flags().StringSliceVar(&tools, "tools", nil, "Allow-list of tools to expose")

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config, version string) error {
	logger := log.New(&log.Config{
		Level:  cfg.Log.Level,
		Format: log.Format(cfg.Log.Format),
	})
	slog.SetDefault(logger)

	dispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("building dispatcher: %w", err)
	}
	logger.Info("tool catalog loaded", slog.Int("tools", dispatcher.Registry().Len()))

	server := dispatch.NewServer(cfg, dispatcher, logger, version)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}

// newDispatcher assembles the vendor groups the gateway serves.
func newDispatcher(cfg *config.Config, logger *slog.Logger) (*dispatch.Dispatcher, error) {
	httpCfg := httpclient.Config{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
	}

	return dispatch.New(
		[]*dispatch.Vendor{
			dropbox.Vendor(httpCfg),
			search.Vendor(httpCfg),
			slack.Vendor(httpCfg, logger),
		},
		dispatch.Options{
			Logger:    logger,
			Transport: string(cfg.Server.Transport),
			RateLimit: cfg.Server.RateLimit,
			RateBurst: cfg.Server.RateBurst,
		},
	)
}
