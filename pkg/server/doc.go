// Package server provides the inbound HTTP server.
//
// The server ties the proxy, the static landing page and the operational
// endpoints together behind one listener and owns the lifecycle: start,
// graceful shutdown and handler replacement on configuration reload.
//
// # Routing
//
// Requests are routed without path cleaning so that embedded URLs such as
// /https://github.com/owner/repo reach the proxy untouched:
//
//   - /health, /ready and /version: operational endpoints
//   - the metrics path (default /metrics) when metrics are enabled
//   - GET or HEAD /v2 and /v2/: answered locally with {} and the registry
//     API version header
//   - other GET or HEAD requests that do not look like proxy routes (see
//     IsAPIRequest): static assets
//   - everything else: the proxy
//
// # Middleware
//
// Recovery is outermost, followed by the optional gorilla/handlers
// ProxyHeaders when server.trust_forwarded_headers is set, request ID
// assignment and access logging.
//
// # Basic Usage
//
//	srv := server.New(cfg, server.Options{
//	    Proxy:        orchestrator,
//	    AllowedHosts: cfg.Access.AllowedHosts,
//	    Assets:       store,
//	    Health:       checker,
//	    Metrics:      collector,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// On reload, SetProxy swaps the proxy handler atomically.
package server
