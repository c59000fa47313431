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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/toolgate/internal/commands/serve"
	"github.com/tombee/toolgate/internal/commands/tools"
	versioncmd "github.com/tombee/toolgate/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "toolgate",
		Short: "toolgate - MCP gateway for vendor APIs",
		Long: `Toolgate exposes vendor APIs (Dropbox, Slack, web search) as MCP tools
behind one dispatch pipeline: per-request credentials, schema-validated
arguments, and uniformly classified errors.

Run 'toolgate serve' to start the gateway.
Run 'toolgate tools' to list the available tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serve.NewCommand(version))
	rootCmd.AddCommand(tools.NewCommand())
	rootCmd.AddCommand(versioncmd.NewCommand(versioncmd.Info{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	}))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
