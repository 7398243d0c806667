// Package telemetry groups the observability packages used by Gantry.
//
// # Components
//
//   - logging: log/slog setup, request ID context and secret redaction
//   - metrics: Prometheus collectors for requests, upstream hops, tokens
//     and policy denials
//   - tracing: OpenTelemetry spans for requests, upstream dispatches and
//     token exchanges
//   - health: liveness, readiness and version handlers plus the scheduled
//     registry probe
//
// # Usage
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	checker := health.New(cfg.Telemetry.Health.ProbeTimeout)
//	prober := health.NewProber(client, cfg.Access.RegistryHosts, cfg.Telemetry.Health.ProbeTimeout, collector)
//	checker.RegisterCheck("registries", prober.Check)
//
// Each subpackage can be used on its own.
package telemetry
