// Package logging builds the process logger on log/slog.
//
// New returns a *slog.Logger configured from config.LoggingConfig with a
// JSON or text handler. Secret redaction, when enabled, runs as a
// ReplaceAttr hook so that bearer tokens, Authorization values and
// pre-signed S3 credentials never reach the log output:
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	logger.InfoContext(ctx, "upstream redirect", "location", loc)
//
// Records logged with a context that carries a request ID (see
// WithRequestID) include a request_id attribute.
package logging
