// Package storage provides audit.Storage backends.
//
// MemoryStorage keeps records in process memory and is the default.
// SQLiteStorage persists them in a single database file through either
// the pure Go driver (modernc.org/sqlite, driver name "sqlite") or the
// cgo driver (github.com/mattn/go-sqlite3, driver name "sqlite3").
// Timestamps are stored as Unix nanoseconds so both drivers order and
// filter them identically.
package storage
