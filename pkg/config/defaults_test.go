package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != DefaultListenAddress {
					t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
				}
				if cfg.Server.WriteTimeout != 0 {
					t.Errorf("expected no write timeout, got %v", cfg.Server.WriteTimeout)
				}
				if cfg.Registry.DockerHubHost != DefaultDockerHubHost {
					t.Errorf("expected docker hub host %q, got %q", DefaultDockerHubHost, cfg.Registry.DockerHubHost)
				}
				if cfg.Registry.DockerHubAlias != DefaultDockerHubAlias {
					t.Errorf("expected docker hub alias %q, got %q", DefaultDockerHubAlias, cfg.Registry.DockerHubAlias)
				}
				if diff := cmp.Diff(DefaultAllowedHosts, cfg.Access.AllowedHosts); diff != "" {
					t.Errorf("allowed hosts mismatch (-want +got):\n%s", diff)
				}
				if diff := cmp.Diff(DefaultS3Domains, cfg.Registry.S3Domains); diff != "" {
					t.Errorf("s3 domains mismatch (-want +got):\n%s", diff)
				}
				if cfg.Upstream.ResolveTimeout != DefaultResolveTimeout {
					t.Errorf("expected resolve timeout %v, got %v", DefaultResolveTimeout, cfg.Upstream.ResolveTimeout)
				}
				if cfg.Audit.Backend != DefaultAuditBackend {
					t.Errorf("expected audit backend %q, got %q", DefaultAuditBackend, cfg.Audit.Backend)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Server:   ServerConfig{ListenAddress: "127.0.0.1:9000", ReadTimeout: 10 * time.Second},
				Access:   AccessConfig{AllowedHosts: []string{"github.com"}},
				Registry: RegistryConfig{MaxRedirects: 2},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != "127.0.0.1:9000" {
					t.Errorf("expected listen address %q, got %q", "127.0.0.1:9000", cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != 10*time.Second {
					t.Errorf("expected read timeout %v, got %v", 10*time.Second, cfg.Server.ReadTimeout)
				}
				if diff := cmp.Diff([]string{"github.com"}, cfg.Access.AllowedHosts); diff != "" {
					t.Errorf("allowed hosts mismatch (-want +got):\n%s", diff)
				}
				if cfg.Registry.MaxRedirects != 2 {
					t.Errorf("expected max redirects 2, got %d", cfg.Registry.MaxRedirects)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	once := Config{}
	ApplyDefaults(&once)

	twice := Config{}
	ApplyDefaults(&twice)
	ApplyDefaults(&twice)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("ApplyDefaults is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestApplyDefaults_DoesNotAliasDefaultSlices(t *testing.T) {
	cfg := Config{}
	ApplyDefaults(&cfg)

	cfg.Access.AllowedHosts[0] = "example.invalid"
	if DefaultAllowedHosts[0] == "example.invalid" {
		t.Fatal("mutating a config slice changed the package default")
	}
}
