package storage

import (
	"fmt"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/config"
)

// Backend names accepted in audit.backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultQueryLimit caps queries that do not set a limit.
const DefaultQueryLimit = 1000

var (
	_ audit.Storage = (*MemoryStorage)(nil)
	_ audit.Storage = (*SQLiteStorage)(nil)
)

// New creates the storage backend selected by cfg.Backend.
func New(cfg *config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStorage(), nil
	case BackendSQLite:
		return NewSQLiteStorage(&cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}
