// Command flowguard runs the flowguard MCP server, or drives a one-shot
// loop check or audit run from the command line.
//
// Required configuration (stdio mode):
//
//	FLOWGUARD_STORE_TOKEN - Project-scoped token for the backing store API
//
// Optional configuration:
//
//	FLOWGUARD_STORE_URL        - Store server URL (default: http://localhost:3002)
//	FLOWGUARD_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	FLOWGUARD_TRANSPORT        - "stdio" (default) or "http"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianiam/flowguard/internal/config"
)

// version is set via ldflags at build time.
var version = "dev"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "flowguard: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowguard",
		Short:         "Loop-safety checker and MCP server for workflow state models",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to flowguard.toml (default: searches standard locations)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newAuditCmd())

	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
