// Package main provides the CLI entry point for the Illustrator MCP bridge.
//
// The bridge connects an MCP-speaking AI assistant (over stdio) to a running
// Adobe Illustrator instance via a WebSocket panel host. It resolves each
// tool call into an ExtendScript body, dispatches it to the panel, and
// returns the panel's JSON result back to the assistant.
//
// # Basic Usage
//
// Start the bridge:
//
//	illustrator-bridge serve --config bridge.yaml
//
// Print the effective JSON schema for the config file:
//
//	illustrator-bridge config schema
//
// # Environment Variables
//
//   - ILLUSTRATOR_BRIDGE_HOST: WebSocket listen host
//   - ILLUSTRATOR_BRIDGE_PORT: WebSocket listen port
//   - ILLUSTRATOR_BRIDGE_HTTP_PORT: HTTP side-channel port (/healthz, /metrics)
//   - ILLUSTRATOR_BRIDGE_LOG_LEVEL: debug, info, warn, error
//   - ILLUSTRATOR_BRIDGE_OTLP_ENDPOINT: OpenTelemetry collector endpoint
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// This is separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "illustrator-bridge",
		Short: "MCP bridge between an AI assistant and Adobe Illustrator",
		Long: `illustrator-bridge exposes a small set of document-manipulation tools
over the Model Context Protocol and carries them to a running Illustrator
instance through a WebSocket panel host, which executes the corresponding
ExtendScript and reports the result back.

Documentation: https://github.com/illustrator-mcp-bridge/bridge`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildResolveCmd(),
		buildConfigCmd(),
	)

	return rootCmd
}
