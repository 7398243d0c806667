package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/config"
)

// Driver names registered by the blank imports above.
const (
	DriverPureGo = "sqlite"  // modernc.org/sqlite
	DriverCgo    = "sqlite3" // github.com/mattn/go-sqlite3
)

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database at cfg.Path with the configured
// driver and creates the schema if needed.
func NewSQLiteStorage(cfg *config.SQLiteConfig) (*SQLiteStorage, error) {
	c := *cfg
	if c.Driver == "" {
		c.Driver = DriverPureGo
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open(c.Driver, dsn(&c))
	if err != nil {
		return nil, audit.NewStorageError(BackendSQLite, "open", err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: c,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", c.Path,
		"driver", c.Driver,
		"wal_mode", c.WALMode,
		"max_open_conns", c.MaxOpenConns,
	)

	return s, nil
}

// dsn builds a connection string that applies busy_timeout to every
// pooled connection. The two drivers spell connection pragmas differently.
func dsn(c *config.SQLiteConfig) string {
	ms := c.BusyTimeout.Milliseconds()
	if ms <= 0 {
		return c.Path
	}
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	if c.Driver == DriverCgo {
		return fmt.Sprintf("%s%s_busy_timeout=%d", c.Path, sep, ms)
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", c.Path, sep, ms)
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError(BackendSQLite, "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError(BackendSQLite, "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError(BackendSQLite, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return audit.NewStorageError(BackendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError(BackendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("database schema initialized", "version", version)
	return nil
}

// Store inserts rec.
func (s *SQLiteStorage) Store(ctx context.Context, rec *audit.Record) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, insertRecord,
		rec.ID, rec.RequestID, rec.Timestamp.UnixNano(),
		rec.Method, rec.Path, rec.ClientAddr,
		rec.Host, rec.UpstreamPath, boolToInt(rec.Registry), rec.Kind, rec.Reference, rec.Digest,
		rec.FinalHost, rec.Status, rec.Hops, rec.Auth, rec.Bytes, int64(rec.Duration), errText,
	)
	if err != nil {
		return audit.NewStorageError(BackendSQLite, "store", err)
	}
	return nil
}

// Query retrieves records matching q.
func (s *SQLiteStorage) Query(ctx context.Context, q *audit.Query) ([]*audit.Record, error) {
	where, args := buildWhereClause(q)

	order := "DESC"
	if q.Ascending() {
		order = "ASC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := fmt.Sprintf("SELECT %s FROM pulls %s ORDER BY ts %s, id %s LIMIT ? OFFSET ?",
		selectColumns, where, order, order)
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, audit.NewStorageError(BackendSQLite, "query", err)
	}
	defer rows.Close()

	records := make([]*audit.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, audit.NewStorageError(BackendSQLite, "scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError(BackendSQLite, "query", err)
	}

	return records, nil
}

// Count returns the number of records matching q.
func (s *SQLiteStorage) Count(ctx context.Context, q *audit.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pulls "+where, args...).Scan(&count)
	if err != nil {
		return 0, audit.NewStorageError(BackendSQLite, "count", err)
	}
	return count, nil
}

// Delete removes records matching q.
func (s *SQLiteStorage) Delete(ctx context.Context, q *audit.Query) (int64, error) {
	where, args := buildWhereClause(q)

	result, err := s.db.ExecContext(ctx, "DELETE FROM pulls "+where, args...)
	if err != nil {
		return 0, audit.NewStorageError(BackendSQLite, "delete", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError(BackendSQLite, "rows_affected", err)
	}

	s.logger.Debug("deleted audit records", "count", n)
	return n, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError(BackendSQLite, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause mirrors audit.Query.Matches in SQL.
func buildWhereClause(q *audit.Query) (string, []any) {
	var conditions []string
	var args []any

	if q.StartTime != nil {
		conditions = append(conditions, "ts >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "ts <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.Host != "" {
		conditions = append(conditions, "host = ?")
		args = append(args, q.Host)
	}
	if q.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, q.Kind)
	}
	if q.Status != 0 {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.MinStatus != 0 {
		conditions = append(conditions, "status >= ?")
		args = append(args, q.MinStatus)
	}
	if q.ErrorsOnly {
		conditions = append(conditions, "error IS NOT NULL AND error != ''")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*audit.Record, error) {
	var (
		rec       audit.Record
		ts        int64
		registry  int
		durationN int64
		errText   sql.NullString
	)

	err := rows.Scan(
		&rec.ID, &rec.RequestID, &ts,
		&rec.Method, &rec.Path, &rec.ClientAddr,
		&rec.Host, &rec.UpstreamPath, &registry, &rec.Kind, &rec.Reference, &rec.Digest,
		&rec.FinalHost, &rec.Status, &rec.Hops, &rec.Auth, &rec.Bytes, &durationN, &errText,
	)
	if err != nil {
		return nil, err
	}

	rec.Timestamp = time.Unix(0, ts).UTC()
	rec.Registry = registry != 0
	rec.Duration = time.Duration(durationN)
	if errText.Valid {
		rec.Error = errText.String
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
