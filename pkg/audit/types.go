package audit

import (
	"context"
	"time"
)

// Record is one proxied request as seen by the client.
type Record struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`

	// Inbound request
	Method     string `json:"method"`
	Path       string `json:"path"`
	ClientAddr string `json:"client_addr"`

	// Resolved target
	Host         string `json:"host"`
	UpstreamPath string `json:"upstream_path"`
	Registry     bool   `json:"registry"`
	Kind         string `json:"kind"`
	Reference    string `json:"reference,omitempty"`
	Digest       string `json:"digest,omitempty"`

	// Outcome
	FinalHost string        `json:"final_host"`
	Status    int           `json:"status"`
	Hops      int           `json:"hops"`
	Auth      string        `json:"auth"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Query defines filter parameters for audit records. Zero fields do not
// filter.
type Query struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"` // inclusive

	Host   string `json:"host,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status,omitempty"`

	// MinStatus selects records with Status >= MinStatus.
	MinStatus int `json:"min_status,omitempty"`

	// ErrorsOnly selects records produced by the proxy's own failures.
	ErrorsOnly bool `json:"errors_only,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" or "desc" by timestamp; default "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Matches reports whether rec satisfies the filters of q. Limit, Offset
// and SortOrder are ignored.
func (q *Query) Matches(rec *Record) bool {
	if q.StartTime != nil && rec.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && rec.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.Host != "" && rec.Host != q.Host {
		return false
	}
	if q.Kind != "" && rec.Kind != q.Kind {
		return false
	}
	if q.Status != 0 && rec.Status != q.Status {
		return false
	}
	if q.MinStatus != 0 && rec.Status < q.MinStatus {
		return false
	}
	if q.ErrorsOnly && rec.Error == "" {
		return false
	}
	return true
}

// Ascending reports whether results are ordered oldest first.
func (q *Query) Ascending() bool {
	return q.SortOrder == "asc"
}

// Storage persists audit records.
type Storage interface {
	// Store persists a single record.
	Store(ctx context.Context, rec *Record) error

	// Query returns records matching q, ordered by timestamp.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes records matching q and returns how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
