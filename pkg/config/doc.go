// Package config provides configuration management for Gantry.
//
// Configuration is read from a YAML or TOML file (chosen by extension),
// decoded on top of the defaults, overridden by environment variables and
// validated. The result is an immutable snapshot: components receive a
// *Config at construction and never modify it.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("gantry.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("gantry.toml")
//	cfg, err := config.FromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GANTRY_SECTION_FIELD.
// List values are comma separated. For example:
//
//   - GANTRY_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GANTRY_ACCESS_ALLOWED_HOSTS overrides access.allowed_hosts
//   - GANTRY_ACCESS_RESTRICT_PATHS overrides access.restrict_paths
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from the configuration file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Reloading
//
// When server.watch_config is enabled, Watcher observes the file and
// installs a new snapshot with ReloadConfig after each change. A snapshot
// that fails validation is discarded and the previous one stays active.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	access:
//	  restrict_paths: true
//	  allowed_paths: ["library", "my-org"]
//
//	registry:
//	  max_redirects: 5
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
