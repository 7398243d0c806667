package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and environment overrides, apply defaults and
report every invalid field.

Examples:
  # Validate a YAML file
  gantry validate --config gantry.yaml

  # Validate defaults plus GANTRY_* environment variables
  gantry validate`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	source := cfgFile
	if source == "" {
		source = "defaults and environment"
	}
	fmt.Fprintf(out, "✓ Configuration valid (%s)\n", source)
	if verbose {
		fmt.Fprintf(out, "  listen address: %s\n", cfg.Server.ListenAddress)
		fmt.Fprintf(out, "  allowed hosts:  %d\n", len(cfg.Access.AllowedHosts))
		fmt.Fprintf(out, "  registry hosts: %d\n", len(cfg.Access.RegistryHosts))
		fmt.Fprintf(out, "  restrict paths: %v\n", cfg.Access.RestrictPaths)
		fmt.Fprintf(out, "  audit:          %v (%s)\n", cfg.Audit.Enabled, cfg.Audit.Backend)
	}
	return nil
}
