package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Registry defaults
	DefaultDockerHubHost  = "registry-1.docker.io"
	DefaultDockerHubAlias = "docker.io"
	DefaultMaxRedirects   = 5

	// Upstream defaults
	DefaultDialTimeout           = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
	DefaultResolveTimeout        = 2 * time.Minute
	DefaultTokenTimeout          = 15 * time.Second
	DefaultMaxIdleConns          = 100
	DefaultIdleConnTimeout       = 90 * time.Second

	// Audit defaults
	DefaultAuditBackend           = "memory"
	DefaultAuditSQLitePath        = "data/audit.db"
	DefaultAuditSQLiteDriver      = "sqlite"
	DefaultAuditSQLiteMaxOpen     = 10
	DefaultAuditSQLiteBusy        = 5 * time.Second
	DefaultAuditAsyncBuffer       = 1000
	DefaultAuditWriteTimeout      = 5 * time.Second
	DefaultAuditRetentionDays     = 30
	DefaultAuditRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "gantry"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSampleRatio  = 1.0
	DefaultTracingTimeout      = 10 * time.Second
	DefaultTracingServiceName  = "gantry"
	DefaultHealthProbeSchedule = "@every 5m"
	DefaultHealthProbeTimeout  = 10 * time.Second
)

// DefaultAllowedHosts is the default origin allow-list: the container
// registries followed by the GitHub family and a few git hosts.
var DefaultAllowedHosts = []string{
	"quay.io",
	"gcr.io",
	"k8s.gcr.io",
	"registry.k8s.io",
	"ghcr.io",
	"docker.cloudsmith.io",
	"registry-1.docker.io",
	"github.com",
	"api.github.com",
	"raw.githubusercontent.com",
	"gist.github.com",
	"gist.githubusercontent.com",
	"git.openwrt.org",
}

// DefaultRegistryHosts is the subset of DefaultAllowedHosts speaking the
// Docker Registry v2 protocol.
var DefaultRegistryHosts = []string{
	"quay.io",
	"gcr.io",
	"k8s.gcr.io",
	"registry.k8s.io",
	"ghcr.io",
	"docker.cloudsmith.io",
	"registry-1.docker.io",
}

// DefaultAllowedPaths are the path keywords used when RestrictPaths is on.
var DefaultAllowedPaths = []string{"library", "user-id-1", "user-id-2"}

// DefaultS3Domains is the S3 domain family.
var DefaultS3Domains = []string{"amazonaws.com"}

// DefaultDurationBuckets are the upstream latency histogram buckets.
var DefaultDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Default returns a Config populated with every default value, including
// the boolean defaults that ApplyDefaults cannot distinguish from an
// explicit false. Loaders decode files on top of this value.
func Default() Config {
	cfg := Config{
		Audit: AuditConfig{
			SQLite: SQLiteConfig{WALMode: true},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: true},
			Metrics: MetricsConfig{Enabled: true},
		},
	}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Access defaults
	if len(cfg.Access.AllowedHosts) == 0 {
		cfg.Access.AllowedHosts = append([]string(nil), DefaultAllowedHosts...)
	}
	if len(cfg.Access.RegistryHosts) == 0 {
		cfg.Access.RegistryHosts = append([]string(nil), DefaultRegistryHosts...)
	}
	if len(cfg.Access.AllowedPaths) == 0 {
		cfg.Access.AllowedPaths = append([]string(nil), DefaultAllowedPaths...)
	}

	// Registry defaults
	if cfg.Registry.DockerHubHost == "" {
		cfg.Registry.DockerHubHost = DefaultDockerHubHost
	}
	if cfg.Registry.DockerHubAlias == "" {
		cfg.Registry.DockerHubAlias = DefaultDockerHubAlias
	}
	if cfg.Registry.MaxRedirects == 0 {
		cfg.Registry.MaxRedirects = DefaultMaxRedirects
	}
	if len(cfg.Registry.S3Domains) == 0 {
		cfg.Registry.S3Domains = append([]string(nil), DefaultS3Domains...)
	}

	// Upstream defaults
	if cfg.Upstream.DialTimeout == 0 {
		cfg.Upstream.DialTimeout = DefaultDialTimeout
	}
	if cfg.Upstream.TLSHandshakeTimeout == 0 {
		cfg.Upstream.TLSHandshakeTimeout = DefaultTLSHandshakeTimeout
	}
	if cfg.Upstream.ResponseHeaderTimeout == 0 {
		cfg.Upstream.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	if cfg.Upstream.ResolveTimeout == 0 {
		cfg.Upstream.ResolveTimeout = DefaultResolveTimeout
	}
	if cfg.Upstream.TokenTimeout == 0 {
		cfg.Upstream.TokenTimeout = DefaultTokenTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.Driver == "" {
		cfg.Audit.SQLite.Driver = DefaultAuditSQLiteDriver
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpen
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusy
	}
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultAuditRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Health.ProbeSchedule == "" {
		cfg.Telemetry.Health.ProbeSchedule = DefaultHealthProbeSchedule
	}
	if cfg.Telemetry.Health.ProbeTimeout == 0 {
		cfg.Telemetry.Health.ProbeTimeout = DefaultHealthProbeTimeout
	}
}
