// Package tracing provides OpenTelemetry tracing for the proxy pipeline.
//
// Each inbound request gets a server span ("proxy.request") that continues
// any W3C traceparent sent by the client. Every upstream dispatch is a
// client span ("upstream.dispatch") and each registry token exchange a
// "registry.token" span, so a redirect chain shows up as a row of sibling
// spans under the request.
//
// Spans are exported over OTLP gRPC:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// When telemetry.tracing.enabled is false New returns a no-op tracer and
// spans cost next to nothing.
//
// # Sampling
//
//   - always: sample every trace
//   - never: sample nothing
//   - ratio: sample sample_ratio of new traces
//
// Samplers are parent based: a sampled inbound trace stays sampled.
//
// Span attributes never include upstream query strings, which may carry
// pre-signed storage credentials.
package tracing
