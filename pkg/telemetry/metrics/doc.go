// Package metrics exposes Gantry's Prometheus metrics.
//
// A Collector owns a private prometheus.Registry and a small set of metric
// groups (requests, upstream hops, policy). Upstream host labels pass
// through a CardinalityLimiter because redirect targets such as S3 bucket
// hosts form an open set; hosts beyond the limit are reported as "other".
//
// Every recording method is a no-op on a nil *Collector or when metrics
// are disabled.
package metrics
