// Package proxy implements the request pipeline that turns a client
// request into one or more upstream requests and streams the final
// response back.
//
// # Pipeline
//
// Every request passes through the same stages in order:
//
//  1. Resolve: target.Resolver maps the inbound path to a host and path.
//  2. Policy: access.Policy rejects hosts outside the allow-list (400) and,
//     when path restriction is on, paths without a keyword (403).
//  3. Dispatch: the first upstream request is sent with a header derived
//     by OutboundHeader.
//  4. Authenticate: a 401 from a registry host carrying a Bearer challenge
//     triggers one token exchange and exactly one retry.
//  5. Redirect: 301, 302, 307 and 308 responses with a Location are
//     followed internally, up to the configured limit (508 beyond it).
//  6. Sanitize and stream: SanitizeHeader produces the client header and
//     the body is copied through without buffering.
//
// # Outbound headers
//
// Each hop gets a fresh header built from the client's original header.
// The x-amz-* signing headers are always stripped, and the two headers S3
// requires for unsigned reads are added only when the hop's host belongs to
// the S3 domain family. Pre-signed blob URLs therefore keep working no
// matter what the client sent.
//
// # Errors
//
// Failures produced by the proxy itself are reported as *Error and written
// with WriteError. Upstream error statuses are forwarded unchanged.
//
// # Basic Usage
//
//	client := proxy.NewClient(&cfg.Upstream)
//	handler := proxy.NewFromConfig(cfg, client, collector, recorder, tracer, logger)
//	http.ListenAndServe(":8080", handler)
package proxy
