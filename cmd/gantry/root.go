package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/gantry/pkg/cli"
	"mercator-hq/gantry/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Gantry - registry and download accelerator",
	Long: `Gantry is a reverse proxy that accelerates container image pulls and
file downloads from an allow-list of origins.

It speaks the Docker Registry v2 protocol on behalf of the client:
  - Docker Hub shorthand (nginx, library/nginx, docker.io/nginx)
  - Bearer token negotiation for anonymous pulls
  - Internal redirect following to blob storage
  - Embedded URLs such as /https://github.com/owner/repo/archive/main.zip

Configuration is read from --config (YAML or TOML) and GANTRY_* environment
variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the mapped status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, ce := range cli.ConfigErrors(err) {
			fmt.Fprintln(os.Stderr, "  -", ce.Error())
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML or TOML); empty uses defaults and environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration named by --config without touching
// the process-wide snapshot.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.FromEnv()
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}
