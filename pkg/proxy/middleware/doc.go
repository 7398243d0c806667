// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
//	handler = Recovery(RequestID(Logging(handler)))
//
// Order (innermost to outermost):
//  1. Logging: log request/response details, including bytes streamed
//  2. RequestID: generate and propagate the request ID
//  3. Recovery: recover from panics
//
// CORS headers are not added here: the proxy sets them on every upstream
// response as part of header sanitization, and local endpoints do not need
// them. There is no per-request timeout middleware either, because layer
// downloads are long-lived streams; the proxy bounds the upstream dispatch
// chain itself.
package middleware
