package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/config"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testRecord(id string, offset time.Duration, host string, status int) *audit.Record {
	return &audit.Record{
		ID:           id,
		RequestID:    "req-" + id,
		Timestamp:    baseTime.Add(offset),
		Method:       "GET",
		Path:         "/v2/library/nginx/manifests/latest",
		ClientAddr:   "10.0.0.1:5000",
		Host:         host,
		UpstreamPath: "v2/library/nginx/manifests/latest",
		Registry:     true,
		Kind:         "manifest",
		Reference:    "latest",
		FinalHost:    host,
		Status:       status,
		Hops:         1,
		Auth:         "bearer",
		Bytes:        512,
		Duration:     1500 * time.Microsecond,
	}
}

// backends returns a fresh instance of every backend.
func backends(t *testing.T) map[string]audit.Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(&config.SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "audit.db"),
		Driver:       DriverPureGo,
		MaxOpenConns: 1,
		WALMode:      true,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite storage: %v", err)
	}

	stores := map[string]audit.Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func seed(t *testing.T, s audit.Storage) {
	t.Helper()
	recs := []*audit.Record{
		testRecord("a", 0, "registry-1.docker.io", 200),
		testRecord("b", time.Minute, "ghcr.io", 200),
		testRecord("c", 2*time.Minute, "registry-1.docker.io", 404),
		testRecord("d", 3*time.Minute, "quay.io", 500),
	}
	recs[3].Error = "Error fetching from quay.io"
	recs[3].Kind = "blob"
	for _, rec := range recs {
		if err := s.Store(context.Background(), rec); err != nil {
			t.Fatalf("failed to store record %s: %v", rec.ID, err)
		}
	}
}

func ids(recs []*audit.Record) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.ID
	}
	return out
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := testRecord("x", 0, "ghcr.io", 200)
			want.Digest = "sha256:4bcff63911fcb4448bd4fdacec207030997caf25e9bea4045fa6c8c44de311d1"
			if err := s.Store(context.Background(), want); err != nil {
				t.Fatalf("Store failed: %v", err)
			}

			got, err := s.Query(context.Background(), &audit.Query{})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 record, got %d", len(got))
			}
			if diff := cmp.Diff(want, got[0]); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStorage_Query(t *testing.T) {
	end := baseTime.Add(2 * time.Minute)
	start := baseTime.Add(time.Minute)

	tests := []struct {
		name  string
		query audit.Query
		want  []string
	}{
		{"all newest first", audit.Query{}, []string{"d", "c", "b", "a"}},
		{"ascending", audit.Query{SortOrder: "asc"}, []string{"a", "b", "c", "d"}},
		{"host", audit.Query{Host: "registry-1.docker.io"}, []string{"c", "a"}},
		{"kind", audit.Query{Kind: "blob"}, []string{"d"}},
		{"status", audit.Query{Status: 200, SortOrder: "asc"}, []string{"a", "b"}},
		{"min status", audit.Query{MinStatus: 400}, []string{"d", "c"}},
		{"errors only", audit.Query{ErrorsOnly: true}, []string{"d"}},
		{"time range inclusive", audit.Query{StartTime: &start, EndTime: &end}, []string{"c", "b"}},
		{"limit", audit.Query{Limit: 2}, []string{"d", "c"}},
		{"offset", audit.Query{Limit: 2, Offset: 1}, []string{"c", "b"}},
		{"offset past end", audit.Query{Offset: 10}, []string{}},
	}

	for name, s := range backends(t) {
		seed(t, s)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := s.Query(context.Background(), &tt.query)
				if err != nil {
					t.Fatalf("Query failed: %v", err)
				}
				if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
					t.Errorf("unexpected ids (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestStorage_CountAndDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			n, err := s.Count(ctx, &audit.Query{})
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != 4 {
				t.Errorf("expected 4 records, got %d", n)
			}

			cutoff := baseTime.Add(time.Minute)
			deleted, err := s.Delete(ctx, &audit.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("expected 2 deleted, got %d", deleted)
			}

			remaining, err := s.Query(ctx, &audit.Query{SortOrder: "asc"})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if diff := cmp.Diff([]string{"c", "d"}, ids(remaining)); diff != "" {
				t.Errorf("unexpected remaining ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew(t *testing.T) {
	s, err := New(&config.AuditConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("expected *MemoryStorage, got %T", s)
	}

	if _, err := New(&config.AuditConfig{Backend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Store(ctx, testRecord("a", 0, "ghcr.io", 200))
	var storageErr *audit.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if storageErr.Backend != BackendMemory {
		t.Errorf("expected backend %q, got %q", BackendMemory, storageErr.Backend)
	}
	if s.Size() != 0 {
		t.Errorf("expected empty store, got %d records", s.Size())
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SQLiteConfig
		want string
	}{
		{"pure go", config.SQLiteConfig{Path: "a.db", Driver: DriverPureGo, BusyTimeout: 5 * time.Second}, "a.db?_pragma=busy_timeout(5000)"},
		{"cgo", config.SQLiteConfig{Path: "a.db", Driver: DriverCgo, BusyTimeout: 5 * time.Second}, "a.db?_busy_timeout=5000"},
		{"existing query", config.SQLiteConfig{Path: "a.db?cache=shared", Driver: DriverCgo, BusyTimeout: time.Second}, "a.db?cache=shared&_busy_timeout=1000"},
		{"no timeout", config.SQLiteConfig{Path: "a.db", Driver: DriverPureGo}, "a.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dsn(&tt.cfg); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
