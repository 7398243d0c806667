// Package audit defines the pull audit log: one Record per proxied
// request, the Storage interface its backends implement and the Query
// used to read it back.
//
// The log is off by default. When enabled, the proxy hands records to
// recorder.Recorder, which writes them asynchronously; a full buffer drops
// records rather than delaying a pull. Backends live in audit/storage and
// age/count based pruning in audit/retention.
//
// # Example
//
//	store, err := storage.New(&cfg.Audit)
//	if err != nil {
//	    return err
//	}
//	rec := recorder.New(store, &cfg.Audit, logger)
//	defer rec.Close()
//
//	since := time.Now().Add(-time.Hour)
//	records, err := store.Query(ctx, &audit.Query{StartTime: &since, MinStatus: 500})
package audit
