package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: Default()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithReadTimeout sets the server read timeout.
func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Server.ReadTimeout = d
	return b
}

// WithAllowedHosts replaces the allow-list.
func (b *ConfigBuilder) WithAllowedHosts(hosts ...string) *ConfigBuilder {
	b.cfg.Access.AllowedHosts = hosts
	return b
}

// WithRegistryHosts replaces the registry host set.
func (b *ConfigBuilder) WithRegistryHosts(hosts ...string) *ConfigBuilder {
	b.cfg.Access.RegistryHosts = hosts
	return b
}

// WithRestrictPaths enables the path restriction with the given keywords.
func (b *ConfigBuilder) WithRestrictPaths(keywords ...string) *ConfigBuilder {
	b.cfg.Access.RestrictPaths = true
	b.cfg.Access.AllowedPaths = keywords
	return b
}

// WithMaxRedirects sets the redirect bound.
func (b *ConfigBuilder) WithMaxRedirects(n int) *ConfigBuilder {
	b.cfg.Registry.MaxRedirects = n
	return b
}

// WithAudit enables the audit log with the given backend.
func (b *ConfigBuilder) WithAudit(backend string) *ConfigBuilder {
	b.cfg.Audit.Enabled = true
	b.cfg.Audit.Backend = backend
	return b
}
