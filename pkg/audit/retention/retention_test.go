package retention

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/audit/storage"
	"mercator-hq/gantry/pkg/config"
)

var now = time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(t *testing.T, ages ...time.Duration) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage()
	for i, age := range ages {
		rec := &audit.Record{
			ID:        string(rune('a' + i)),
			Timestamp: now.Add(-age),
			Status:    200,
		}
		if err := store.Store(context.Background(), rec); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	return store
}

func remainingIDs(t *testing.T, store audit.Storage) []string {
	t.Helper()
	recs, err := store.Query(context.Background(), &audit.Query{SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.ID
	}
	return out
}

func TestPruner_Prune(t *testing.T) {
	day := 24 * time.Hour

	tests := []struct {
		name        string
		cfg         config.RetentionConfig
		ages        []time.Duration
		wantDeleted int64
		wantIDs     []string
	}{
		{
			name:        "by age",
			cfg:         config.RetentionConfig{Days: 30},
			ages:        []time.Duration{40 * day, 31 * day, 10 * day, time.Hour},
			wantDeleted: 2,
			wantIDs:     []string{"c", "d"},
		},
		{
			name:        "by count",
			cfg:         config.RetentionConfig{MaxRecords: 2},
			ages:        []time.Duration{4 * day, 3 * day, 2 * day, day},
			wantDeleted: 2,
			wantIDs:     []string{"c", "d"},
		},
		{
			name:        "age then count",
			cfg:         config.RetentionConfig{Days: 30, MaxRecords: 1},
			ages:        []time.Duration{40 * day, 3 * day, 2 * day, day},
			wantDeleted: 3,
			wantIDs:     []string{"d"},
		},
		{
			name:        "under limits",
			cfg:         config.RetentionConfig{Days: 30, MaxRecords: 10},
			ages:        []time.Duration{day, 2 * day},
			wantDeleted: 0,
			wantIDs:     []string{"b", "a"},
		},
		{
			name:        "disabled",
			cfg:         config.RetentionConfig{},
			ages:        []time.Duration{400 * day},
			wantDeleted: 0,
			wantIDs:     []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seeded(t, tt.ages...)
			p := NewPruner(store, &tt.cfg, testLogger())
			p.now = func() time.Time { return now }

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("expected %d deleted, got %d", tt.wantDeleted, deleted)
			}
			if diff := cmp.Diff(tt.wantIDs, remainingIDs(t, store)); diff != "" {
				t.Errorf("unexpected remaining records (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{"valid daily schedule", "0 3 * * *", true, false},
		{"valid hourly schedule", "0 * * * *", true, false},
		{"empty schedule", "", false, false},
		{"invalid schedule", "invalid cron", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPruner(storage.NewMemoryStorage(), &config.RetentionConfig{Days: 30}, testLogger())
			s := NewScheduler(p, tt.schedule)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := s.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("expected error %v, got %v", tt.wantError, err)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("expected running %v, got %v", tt.wantRunning, s.IsRunning())
			}
			if tt.wantRunning && s.NextRun() == nil {
				t.Error("expected next run for running scheduler")
			}

			s.Stop()
			if s.IsRunning() {
				t.Error("expected scheduler to be stopped")
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &config.RetentionConfig{Days: 30}, testLogger())
	s := NewScheduler(p, "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("expected scheduler to stop after context cancellation")
	}
}
