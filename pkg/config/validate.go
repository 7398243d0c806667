package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAccess(&cfg.Access)...)
	errs = append(errs, validateRegistry(&cfg.Registry)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be non-negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be non-negative"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be non-negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be non-negative"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "max header bytes must be non-negative"})
	}

	return errs
}

func validateAccess(cfg *AccessConfig) []FieldError {
	var errs []FieldError

	if len(cfg.AllowedHosts) == 0 {
		errs = append(errs, FieldError{
			Field:   "access.allowed_hosts",
			Message: "at least one allowed host is required",
		})
	}

	allowed := make(map[string]bool, len(cfg.AllowedHosts))
	for i, host := range cfg.AllowedHosts {
		if msg := hostnameProblem(host); msg != "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("access.allowed_hosts[%d]", i),
				Message: msg,
			})
		}
		allowed[host] = true
	}

	for i, host := range cfg.RegistryHosts {
		if !allowed[host] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("access.registry_hosts[%d]", i),
				Message: fmt.Sprintf("registry host %q must also be listed in allowed_hosts", host),
			})
		}
	}

	if cfg.RestrictPaths && len(cfg.AllowedPaths) == 0 {
		errs = append(errs, FieldError{
			Field:   "access.allowed_paths",
			Message: "restrict_paths requires at least one allowed path keyword",
		})
	}
	for i, kw := range cfg.AllowedPaths {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("access.allowed_paths[%d]", i),
				Message: "path keyword must not be empty",
			})
		}
	}

	return errs
}

// hostnameProblem reports why host is not a bare hostname, or "" if it is.
func hostnameProblem(host string) string {
	switch {
	case host == "":
		return "host must not be empty"
	case strings.Contains(host, "://"):
		return fmt.Sprintf("host %q must not include a scheme", host)
	case strings.ContainsAny(host, "/:@ "):
		return fmt.Sprintf("host %q must be a bare hostname", host)
	}
	return ""
}

func validateRegistry(cfg *RegistryConfig) []FieldError {
	var errs []FieldError

	if msg := hostnameProblem(cfg.DockerHubHost); msg != "" {
		errs = append(errs, FieldError{Field: "registry.docker_hub_host", Message: msg})
	}
	if msg := hostnameProblem(cfg.DockerHubAlias); msg != "" {
		errs = append(errs, FieldError{Field: "registry.docker_hub_alias", Message: msg})
	}
	if cfg.MaxRedirects < 1 {
		errs = append(errs, FieldError{
			Field:   "registry.max_redirects",
			Message: "max redirects must be at least 1",
		})
	}
	for i, domain := range cfg.S3Domains {
		if strings.TrimSpace(domain) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("registry.s3_domains[%d]", i),
				Message: "domain must not be empty",
			})
		}
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"upstream.dial_timeout", cfg.DialTimeout},
		{"upstream.tls_handshake_timeout", cfg.TLSHandshakeTimeout},
		{"upstream.response_header_timeout", cfg.ResponseHeaderTimeout},
		{"upstream.resolve_timeout", cfg.ResolveTimeout},
		{"upstream.token_timeout", cfg.TokenTimeout},
		{"upstream.idle_conn_timeout", cfg.IdleConnTimeout},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must be non-negative"})
		}
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "upstream.max_idle_conns", Message: "max idle conns must be non-negative"})
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be \"memory\" or \"sqlite\"", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "audit.sqlite.path", Message: "path is required for sqlite backend"})
		}
		switch cfg.SQLite.Driver {
		case "sqlite", "sqlite3":
		default:
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be \"sqlite\" or \"sqlite3\"", cfg.SQLite.Driver),
			})
		}
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{Field: "audit.async_buffer", Message: "async buffer must be at least 1"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.days", Message: "retention days must be non-negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.max_records", Message: "max records must be non-negative"})
	}
	if cfg.Enabled {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be one of debug, info, warn, error", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be json or text", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be one of always, never, ratio", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}

	if cfg.Health.ProbeSchedule != "off" {
		if _, err := cron.ParseStandard(cfg.Health.ProbeSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.probe_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}
