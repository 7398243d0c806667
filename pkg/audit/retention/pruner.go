package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/config"
)

// Pruner enforces the retention policy on stored audit records.
type Pruner struct {
	storage audit.Storage
	config  config.RetentionConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(storage audit.Storage, cfg *config.RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		config:  *cfg,
		logger:  logger.With("component", "audit.retention"),
		now:     time.Now,
	}
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		n, err := p.pruneByAge(ctx)
		if err != nil {
			return total, &audit.RetentionError{RetentionDays: p.config.Days, Cause: err}
		}
		total += n
	}

	if p.config.MaxRecords > 0 {
		n, err := p.pruneByCount(ctx)
		if err != nil {
			return total, &audit.RetentionError{RetentionDays: p.config.Days, Cause: err}
		}
		total += n
	}

	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.Days)

	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("failed to delete records older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted > 0 {
		p.logger.Info("pruned audit records by age",
			"deleted", deleted,
			"cutoff", cutoff,
			"retention_days", p.config.Days,
		)
	}
	return deleted, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	excess := count - p.config.MaxRecords
	if excess <= 0 {
		return 0, nil
	}

	oldest, err := p.storage.Query(ctx, &audit.Query{
		SortOrder: "asc",
		Limit:     int(excess),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query oldest records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	cutoff := oldest[len(oldest)-1].Timestamp
	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("failed to delete oldest records: %w", err)
	}

	p.logger.Info("pruned audit records by count",
		"deleted", deleted,
		"max_records", p.config.MaxRecords,
	)
	return deleted, nil
}
