// Package health provides the liveness, readiness and version endpoints
// and the scheduled upstream registry prober.
//
// # Endpoints
//
//   - /health: liveness, always 200 while the process serves requests
//   - /ready: readiness, 503 when any registered check fails
//   - /version: build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("config", func(ctx context.Context) error {
//	    if config.GetConfig() == nil {
//	        return errors.New("configuration not loaded")
//	    }
//	    return nil
//	})
//
//	prober := health.NewProber(client, cfg.Access.RegistryHosts, 10*time.Second, collector)
//	checker.RegisterCheck("upstreams", prober.Check)
//	_ = prober.Start(ctx, "@every 5m")
//
// The prober issues GET https://<host>/v2/ and treats any status below 500
// as reachable. Readiness only fails when every probed registry failed
// its last probe.
package health
