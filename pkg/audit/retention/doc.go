// Package retention prunes the audit log.
//
// A Pruner deletes records older than audit.retention.days and then the
// oldest records beyond audit.retention.max_records. A Scheduler runs the
// pruner on the cron expression in audit.retention.prune_schedule:
//
//	pruner := retention.NewPruner(store, &cfg.Audit.Retention, logger)
//	scheduler := retention.NewScheduler(pruner, cfg.Audit.Retention.PruneSchedule)
//	if err := scheduler.Start(ctx); err != nil {
//	    return err
//	}
package retention
