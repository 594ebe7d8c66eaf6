package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illustrator-mcp-bridge/bridge/internal/config"
	"github.com/illustrator-mcp-bridge/bridge/internal/resolver"
	"github.com/illustrator-mcp-bridge/bridge/internal/scriptlib"
)

// buildResolveCmd creates the "resolve" command, which expands a set of
// script libraries and a body into the final ExtendScript source the broker
// would send to the panel, without needing a live panel connection. Useful
// for inspecting what a tool call actually dispatches.
func buildResolveCmd() *cobra.Command {
	var (
		configPath string
		libs       []string
		body       string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve script libraries and a body into one ExtendScript source",
		Example: `  illustrator-bridge resolve --lib geometry --lib selection --body 'JSON.stringify(mcp_bucket(items))'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheSize := 64
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cacheSize = cfg.Resolver.CacheSize
			}

			manifest, err := scriptlib.Manifest()
			if err != nil {
				return fmt.Errorf("failed to load script library manifest: %w", err)
			}
			r, err := resolver.New(manifest, cacheSize)
			if err != nil {
				return fmt.Errorf("failed to construct resolver: %w", err)
			}

			script, err := r.Resolve(libs, body)
			if err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), script)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (optional, only used for cache size)")
	cmd.Flags().StringSliceVar(&libs, "lib", nil, "Library name to include (repeatable)")
	cmd.Flags().StringVar(&body, "body", "", "ExtendScript body to append after the resolved libraries")

	return cmd
}
