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

// Package tools implements the tools command, which prints the catalog.
package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tombee/toolgate/internal/dispatch"
	"github.com/tombee/toolgate/internal/vendors/dropbox"
	"github.com/tombee/toolgate/internal/vendors/search"
	"github.com/tombee/toolgate/internal/vendors/slack"
	"github.com/tombee/toolgate/pkg/httpclient"
)

// toolInfo is one catalog row.
type toolInfo struct {
	Name        string `json:"name"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled_by_default"`
}

// NewCommand creates the tools command.
func NewCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools this gateway can serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func run(cmd *cobra.Command, jsonOutput bool) error {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpCfg := httpclient.DefaultConfig()

	vendors := []*dispatch.Vendor{
		dropbox.Vendor(httpCfg),
		search.Vendor(httpCfg),
		slack.Vendor(httpCfg, quiet),
	}

	var catalog []toolInfo
	for _, vendor := range vendors {
		for _, tool := range vendor.Tools {
			catalog = append(catalog, toolInfo{
				Name:        tool.Name,
				Vendor:      vendor.Name,
				Description: tool.Description,
				Enabled:     tool.EnabledByDefault,
			})
		}
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Name < catalog[j].Name })

	if jsonOutput {
		data, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tool catalog: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, tool := range catalog {
		marker := " "
		if tool.Enabled {
			marker = "*"
		}
		cmd.Printf("%s %-24s %s\n", marker, tool.Name, tool.Description)
	}
	cmd.Println("\n* enabled by default; others require the tool allow-list")
	return nil
}
