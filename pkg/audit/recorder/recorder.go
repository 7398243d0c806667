package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/config"
)

// Recorder writes audit records to storage from a background worker so the
// request path never waits on the database.
type Recorder struct {
	storage    audit.Storage
	config     config.AuditConfig
	recordChan chan *audit.Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	dropped atomic.Int64
	written atomic.Int64
	failed  atomic.Int64
}

// New creates a recorder for storage and starts its worker.
func New(storage audit.Storage, cfg *config.AuditConfig, logger *slog.Logger) *Recorder {
	c := *cfg
	if c.AsyncBuffer <= 0 {
		c.AsyncBuffer = config.DefaultAuditAsyncBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = config.DefaultAuditWriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     c,
		recordChan: make(chan *audit.Record, c.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", c.AsyncBuffer,
		"write_timeout", c.WriteTimeout,
	)

	return r
}

// Record enqueues rec for writing. It never blocks: when the queue is full
// or the recorder is closed the record is dropped and counted.
func (r *Recorder) Record(rec *audit.Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	select {
	case <-r.done:
		r.dropped.Add(1)
		r.logger.Debug("recorder closed, dropping record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
		)
		return
	default:
	}

	select {
	case r.recordChan <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit queue full, dropping record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
	}
}

// Close stops accepting records, drains the queue and waits for pending
// writes. It does not close the storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder shut down complete",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
			"failed", r.failed.Load(),
		)
	})
	return nil
}

// Dropped returns the number of records discarded without being written.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Written returns the number of records stored successfully.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Failed returns the number of records whose write returned an error.
func (r *Recorder) Failed() int64 { return r.failed.Load() }

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.writeRecord(rec)

		case <-r.done:
			r.logger.Debug("draining audit queue before shutdown",
				"pending_count", len(r.recordChan),
			)
			for {
				select {
				case rec := <-r.recordChan:
					r.writeRecord(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(rec *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, rec); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to store audit record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"error", err,
		)
		return
	}
	r.written.Add(1)

	duration := time.Since(start)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", rec.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
