package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gantry/pkg/config"
)

// PolicyMetrics tracks requests rejected before any upstream contact.
//
// Metrics:
//   - gantry_policy_denials_total: access policy rejections by reason
//   - gantry_resolve_failures_total: paths that did not resolve to a target
type PolicyMetrics struct {
	denials         *prometheus.CounterVec
	resolveFailures prometheus.Counter
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_denials_total",
				Help:      "Total number of requests rejected by the access policy",
			},
			[]string{"reason"},
		),
		resolveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resolve_failures_total",
				Help:      "Total number of requests whose path did not resolve to a target",
			},
		),
	}

	registry.MustRegister(pm.denials, pm.resolveFailures)
	return pm
}

// RecordDenial records a policy rejection.
func (pm *PolicyMetrics) RecordDenial(reason string) {
	pm.denials.WithLabelValues(reason).Inc()
}

// RecordResolveFailure records an unresolvable path.
func (pm *PolicyMetrics) RecordResolveFailure() {
	pm.resolveFailures.Inc()
}
