package config

import "time"

// Config is the root configuration structure for Gantry.
// A Config is treated as an immutable snapshot once it has been loaded and
// validated; reloads build a new snapshot instead of mutating the old one.
type Config struct {
	// Server contains HTTP listener configuration including listen address,
	// timeouts, static assets and forwarded header handling.
	Server ServerConfig `yaml:"server" toml:"server"`

	// Access contains the origin allow-list and the optional path keyword
	// restriction applied to every proxied request.
	Access AccessConfig `yaml:"access" toml:"access"`

	// Registry contains Docker Registry v2 specific settings: the Docker Hub
	// host and alias, the redirect bound and the S3 domain family.
	Registry RegistryConfig `yaml:"registry" toml:"registry"`

	// Upstream contains outbound HTTP client settings.
	Upstream UpstreamConfig `yaml:"upstream" toml:"upstream"`

	// Audit contains configuration for the pull audit log.
	Audit AuditConfig `yaml:"audit" toml:"audit"`

	// Telemetry contains configuration for logging, metrics and health probes.
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// ServerConfig contains configuration for the inbound HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Layer downloads can take a long time, so zero (no timeout)
	// is the default.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" toml:"max_header_bytes"`

	// AssetsDir is a directory of static files served for non-proxy GET
	// requests. When empty the built-in landing page is served.
	AssetsDir string `yaml:"assets_dir" toml:"assets_dir"`

	// TrustForwardedHeaders makes the server honour X-Forwarded-For,
	// X-Real-IP and Forwarded headers when recording the client address.
	// Default: false
	TrustForwardedHeaders bool `yaml:"trust_forwarded_headers" toml:"trust_forwarded_headers"`

	// WatchConfig enables automatic reloading when the configuration file
	// changes on disk.
	// Default: false
	WatchConfig bool `yaml:"watch_config" toml:"watch_config"`
}

// AccessConfig contains the access policy.
type AccessConfig struct {
	// AllowedHosts is the set of upstream hostnames the proxy may contact.
	// Matching is exact; subdomains must be listed individually.
	AllowedHosts []string `yaml:"allowed_hosts" toml:"allowed_hosts"`

	// RegistryHosts is the subset of AllowedHosts that speak the Docker
	// Registry v2 protocol.
	RegistryHosts []string `yaml:"registry_hosts" toml:"registry_hosts"`

	// RestrictPaths enables the path keyword restriction.
	// Default: false
	RestrictPaths bool `yaml:"restrict_paths" toml:"restrict_paths"`

	// AllowedPaths lists keywords; with RestrictPaths enabled a request is
	// allowed only if one keyword occurs (case-insensitively) in its path.
	AllowedPaths []string `yaml:"allowed_paths" toml:"allowed_paths"`
}

// RegistryConfig contains registry protocol settings.
type RegistryConfig struct {
	// DockerHubHost is the canonical Docker Hub registry host.
	// Default: "registry-1.docker.io"
	DockerHubHost string `yaml:"docker_hub_host" toml:"docker_hub_host"`

	// DockerHubAlias is the user-facing Docker Hub name rewritten to
	// DockerHubHost.
	// Default: "docker.io"
	DockerHubAlias string `yaml:"docker_hub_alias" toml:"docker_hub_alias"`

	// MaxRedirects is the number of redirect hops followed before the proxy
	// answers 508.
	// Default: 5
	MaxRedirects int `yaml:"max_redirects" toml:"max_redirects"`

	// S3Domains lists domain suffixes that receive the AWS header policy.
	// Default: ["amazonaws.com"]
	S3Domains []string `yaml:"s3_domains" toml:"s3_domains"`
}

// UpstreamConfig contains outbound client configuration.
type UpstreamConfig struct {
	// DialTimeout bounds TCP connection establishment for each hop.
	// Default: 10s
	DialTimeout time.Duration `yaml:"dial_timeout" toml:"dial_timeout"`

	// TLSHandshakeTimeout bounds the TLS handshake for each hop.
	// Default: 10s
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout" toml:"tls_handshake_timeout"`

	// ResponseHeaderTimeout bounds the wait for response headers for each hop.
	// Default: 30s
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" toml:"response_header_timeout"`

	// ResolveTimeout bounds the whole dispatch chain (auth and redirects)
	// until the final response headers arrive. Body streaming is not bounded.
	// Default: 2m
	ResolveTimeout time.Duration `yaml:"resolve_timeout" toml:"resolve_timeout"`

	// TokenTimeout bounds a single token fetch from a registry auth realm.
	// Default: 15s
	TokenTimeout time.Duration `yaml:"token_timeout" toml:"token_timeout"`

	// MaxIdleConns is the maximum number of idle upstream connections.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns" toml:"max_idle_conns"`

	// IdleConnTimeout is how long idle upstream connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout" toml:"idle_conn_timeout"`

	// UserAgent, when set, replaces the client's User-Agent on token fetches.
	UserAgent string `yaml:"user_agent" toml:"user_agent"`
}

// AuditConfig contains configuration for the pull audit log.
type AuditConfig struct {
	// Enabled controls whether proxied requests are recorded.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Backend specifies the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend" toml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite" toml:"sqlite"`

	// AsyncBuffer is the size of the recorder queue. Records are dropped
	// when the queue is full.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer" toml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// Retention contains retention policy settings.
	Retention RetentionConfig `yaml:"retention" toml:"retention"`
}

// SQLiteConfig contains SQLite storage settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path" toml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver" toml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" toml:"wal_mode"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" toml:"busy_timeout"`
}

// RetentionConfig contains audit retention settings.
type RetentionConfig struct {
	// Days is how long records are kept.
	// Default: 30
	Days int `yaml:"days" toml:"days"`

	// PruneSchedule is a cron expression for the pruning job.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule" toml:"prune_schedule"`

	// MaxRecords caps the number of stored records. Zero disables the cap.
	MaxRecords int64 `yaml:"max_records" toml:"max_records"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`
	Health  HealthConfig  `yaml:"health" toml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum level logged.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format" toml:"format"`

	// AddSource includes the source file and line in log records.
	AddSource bool `yaml:"add_source" toml:"add_source"`

	// RedactSecrets masks bearer tokens and pre-signed URL credentials.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets" toml:"redact_secrets"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" toml:"path"`

	// Namespace is the metric name prefix.
	// Default: "gantry"
	Namespace string `yaml:"namespace" toml:"namespace"`

	// Subsystem is an optional second name component.
	Subsystem string `yaml:"subsystem" toml:"subsystem"`

	// DurationBuckets are the histogram buckets, in seconds, for upstream
	// hop latency.
	DurationBuckets []float64 `yaml:"duration_buckets" toml:"duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler" toml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure" toml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`

	// ServiceName is the service.name resource attribute.
	// Default: "gantry"
	ServiceName string `yaml:"service_name" toml:"service_name"`
}

// HealthConfig contains upstream probe configuration.
type HealthConfig struct {
	// ProbeSchedule is a cron expression (or "@every <duration>") for the
	// upstream registry probe. "off" disables probing.
	// Default: "@every 5m"
	ProbeSchedule string `yaml:"probe_schedule" toml:"probe_schedule"`

	// ProbeTimeout bounds a single probe request.
	// Default: 10s
	ProbeTimeout time.Duration `yaml:"probe_timeout" toml:"probe_timeout"`
}
