package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. HTTP keys follow the OpenTelemetry semantic
// conventions; the rest live under "gantry.".
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrServerAddr = "server.address"
	AttrURLPath    = "url.path"

	AttrRequestID = "gantry.request_id"
	AttrHost      = "gantry.target.host"
	AttrKind      = "gantry.target.kind"
	AttrRegistry  = "gantry.target.registry"
	AttrReference = "gantry.target.reference"
	AttrHops      = "gantry.hops"
	AttrAuth      = "gantry.auth"
	AttrBytes     = "gantry.bytes"
	AttrErrorKind = "gantry.error.kind"
)

// SetTargetAttributes records the resolved upstream target on a span.
func SetTargetAttributes(span trace.Span, host, kind string, registry bool, reference string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrHost, host),
		attribute.String(AttrKind, kind),
		attribute.Bool(AttrRegistry, registry),
	}
	if reference != "" {
		attrs = append(attrs, attribute.String(AttrReference, reference))
	}
	span.SetAttributes(attrs...)
}

// SetOutcomeAttributes records how a proxied request finished. Statuses of
// 500 and above mark the span as failed.
func SetOutcomeAttributes(span trace.Span, status, hops int, auth string, bytes int64) {
	span.SetAttributes(
		attribute.Int(AttrHTTPStatus, status),
		attribute.Int(AttrHops, hops),
		attribute.String(AttrAuth, auth),
		attribute.Int64(AttrBytes, bytes),
	)
	if status >= 500 {
		span.SetStatus(codes.Error, "")
	}
}

// SetErrorAttributes records err on a span and marks it failed.
func SetErrorAttributes(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorKind, kind))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
