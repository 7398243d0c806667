package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/gantry/pkg/audit"
)

// MemoryStorage implements audit.Storage in process memory. Records are
// lost on restart.
type MemoryStorage struct {
	records []*audit.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store stores a copy of rec.
func (s *MemoryStorage) Store(ctx context.Context, rec *audit.Record) error {
	if err := ctx.Err(); err != nil {
		return audit.NewStorageError(BackendMemory, "store", err)
	}

	cp := *rec

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, &cp)
	return nil
}

// Query retrieves records matching q.
func (s *MemoryStorage) Query(ctx context.Context, q *audit.Query) ([]*audit.Record, error) {
	matched := s.matching(q)

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Ascending() {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []*audit.Record{}, nil
		}
		matched = matched[q.Offset:]
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the number of records matching q.
func (s *MemoryStorage) Count(ctx context.Context, q *audit.Query) (int64, error) {
	return int64(len(s.matching(q))), nil
}

// Delete removes records matching q.
func (s *MemoryStorage) Delete(ctx context.Context, q *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if q.Matches(rec) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return deleted, nil
}

// Close clears the store.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// matching returns copies of the records that satisfy q.
func (s *MemoryStorage) matching(q *audit.Query) []*audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*audit.Record, 0, len(s.records))
	for _, rec := range s.records {
		if q.Matches(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out
}
