package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the audit tables. Timestamps are stored as Unix
// nanoseconds so range filters compare identically under both drivers.
const Schema = `
CREATE TABLE IF NOT EXISTS pulls (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    ts INTEGER NOT NULL,

    method TEXT NOT NULL,
    path TEXT NOT NULL,
    client_addr TEXT NOT NULL,

    host TEXT NOT NULL,
    upstream_path TEXT NOT NULL,
    registry INTEGER NOT NULL,
    kind TEXT NOT NULL,
    reference TEXT NOT NULL,
    digest TEXT NOT NULL,

    final_host TEXT NOT NULL,
    status INTEGER NOT NULL,
    hops INTEGER NOT NULL,
    auth TEXT NOT NULL,
    bytes INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pulls_ts ON pulls(ts);
CREATE INDEX IF NOT EXISTS idx_pulls_host ON pulls(host);
CREATE INDEX IF NOT EXISTS idx_pulls_status ON pulls(status);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRecord = `
INSERT INTO pulls (
    id, request_id, ts,
    method, path, client_addr,
    host, upstream_path, registry, kind, reference, digest,
    final_host, status, hops, auth, bytes, duration_ns, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `
    id, request_id, ts,
    method, path, client_addr,
    host, upstream_path, registry, kind, reference, digest,
    final_host, status, hops, auth, bytes, duration_ns, error
`
