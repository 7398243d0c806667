package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey struct{}

// WithRequestID returns ctx carrying requestID. Records logged with the
// returned context get a request_id attribute.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// GetRequestID returns the request ID stored by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// contextAttrs returns the request_id and trace_id attributes found in ctx.
func contextAttrs(ctx context.Context) []any {
	var attrs []any
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && sc.IsSampled() {
		attrs = append(attrs, "trace_id", sc.TraceID().String())
	}
	return attrs
}
