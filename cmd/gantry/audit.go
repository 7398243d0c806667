package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/audit/retention"
	"mercator-hq/gantry/pkg/audit/storage"
	"mercator-hq/gantry/pkg/cli"
	"mercator-hq/gantry/pkg/config"
)

var auditFlags struct {
	host       string
	status     int
	minStatus  int
	errorsOnly bool
	since      time.Duration
	limit      int
	asc        bool
	output     string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and prune the pull audit log",
	Long: `Inspect and prune the pull audit log written by "gantry run".

The audit log must use the sqlite backend to be readable from another process.`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List recorded requests",
	Long: `List recorded requests, newest first.

Examples:
  # Last hour of failures from Docker Hub
  gantry audit query --host registry-1.docker.io --min-status 400 --since 1h

  # Proxy errors as CSV
  gantry audit query --errors-only --output csv`,
	Args: cobra.NoArgs,
	RunE: queryAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy once",
	Args:  cobra.NoArgs,
	RunE:  pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)
	auditCmd.AddCommand(auditPruneCmd)

	f := auditQueryCmd.Flags()
	f.StringVar(&auditFlags.host, "host", "", "only records for this upstream host")
	f.IntVar(&auditFlags.status, "status", 0, "only records with this status")
	f.IntVar(&auditFlags.minStatus, "min-status", 0, "only records with at least this status")
	f.BoolVar(&auditFlags.errorsOnly, "errors-only", false, "only records that failed inside the proxy")
	f.DurationVar(&auditFlags.since, "since", 0, "only records newer than this (e.g. 30m, 24h)")
	f.IntVar(&auditFlags.limit, "limit", 50, "maximum number of records")
	f.BoolVar(&auditFlags.asc, "asc", false, "oldest first")
	f.StringVarP(&auditFlags.output, "output", "o", "text", "output format: text, json, csv")
}

// auditRecords renders records as a table.
type auditRecords []*audit.Record

func (r auditRecords) Header() []string {
	return []string{"TIME", "METHOD", "STATUS", "HOST", "PATH", "HOPS", "AUTH", "BYTES", "DURATION", "ERROR"}
}

func (r auditRecords) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, rec := range r {
		rows = append(rows, []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Method,
			strconv.Itoa(rec.Status),
			rec.Host,
			rec.Path,
			strconv.Itoa(rec.Hops),
			rec.Auth,
			strconv.FormatInt(rec.Bytes, 10),
			rec.Duration.Round(time.Millisecond).String(),
			rec.Error,
		})
	}
	return rows
}

// auditQuery builds the storage query from the command flags.
func auditQuery(now time.Time) *audit.Query {
	q := &audit.Query{
		Host:       auditFlags.host,
		Status:     auditFlags.status,
		MinStatus:  auditFlags.minStatus,
		ErrorsOnly: auditFlags.errorsOnly,
		Limit:      auditFlags.limit,
	}
	if auditFlags.since > 0 {
		start := now.Add(-auditFlags.since)
		q.StartTime = &start
	}
	if auditFlags.asc {
		q.SortOrder = "asc"
	}
	return q
}

// openAuditStorage opens the configured audit backend for offline use.
func openAuditStorage(cfg *config.Config) (audit.Storage, error) {
	if cfg.Audit.Backend != storage.BackendSQLite {
		return nil, errors.New("audit backend is not sqlite; records are only held by the running server")
	}
	return storage.New(&cfg.Audit)
}

func queryAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(auditFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	defer store.Close()

	return runAuditQuery(cmd.Context(), store, auditQuery(time.Now()), format, cmd.OutOrStdout())
}

func runAuditQuery(ctx context.Context, store audit.Storage, q *audit.Query, format cli.OutputFormat, w io.Writer) error {
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	return cli.NewFormatter(format).FormatTo(w, auditRecords(records))
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	defer store.Close()

	return runAuditPrune(cmd.Context(), store, &cfg.Audit.Retention, cmd.OutOrStdout())
}

func runAuditPrune(ctx context.Context, store audit.Storage, cfg *config.RetentionConfig, w io.Writer) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.Default()
	}

	deleted, err := retention.NewPruner(store, cfg, logger).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	fmt.Fprintf(w, "Pruned %d records\n", deleted)
	return nil
}
