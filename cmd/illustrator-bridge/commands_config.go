package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illustrator-mcp-bridge/bridge/internal/config"
)

// buildConfigCmd creates the "config" command group for inspecting the
// configuration file format.
func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the bridge configuration format",
	}
	cmd.AddCommand(buildConfigSchemaCmd())
	return cmd
}

// buildConfigSchemaCmd prints the JSON schema for the config file, derived
// by reflection from the Config struct.
func buildConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.JSONSchema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}
