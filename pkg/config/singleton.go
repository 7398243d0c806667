package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the current configuration snapshot.
	globalConfig *Config

	// configMutex protects access to globalConfig.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// load reads path with environment overrides, or the environment alone
// when path is empty.
func load(path string) (*Config, error) {
	if path == "" {
		return FromEnv()
	}
	return LoadConfigWithEnvOverrides(path)
}

// Initialize loads configuration from the specified path with environment
// variable overrides and stores it as the global snapshot. An empty path
// builds the configuration from defaults and the environment.
// Subsequent calls are ignored (uses sync.Once internally).
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := load(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the current configuration snapshot, or nil if
// Initialize has not been called successfully.
// Callers must treat the returned value as read-only.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the global snapshot. Intended for tests and for the
// reload path; use Initialize for normal configuration loading.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig loads a fresh snapshot from path and installs it. On error
// the existing snapshot remains in place.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}

// MustGetConfig returns the current snapshot and panics if the
// configuration has not been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
