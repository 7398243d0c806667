package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gantry/pkg/config"
)

// UpstreamMetrics tracks outbound traffic.
//
// Metrics:
//   - gantry_upstream_requests_total: hops by host and status ("error" for transport failures)
//   - gantry_upstream_duration_seconds: time to response headers per hop
//   - gantry_redirects_total: redirect hops followed, by redirecting host
//   - gantry_redirect_limit_total: chains abandoned with 508
//   - gantry_token_fetches_total: token exchanges by host and result
//   - gantry_upstream_up: last probe result per registry host
type UpstreamMetrics struct {
	hopsTotal     *prometheus.CounterVec
	hopDuration   *prometheus.HistogramVec
	redirects     *prometheus.CounterVec
	redirectLimit prometheus.Counter
	tokenFetches  *prometheus.CounterVec
	up            *prometheus.GaugeVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		hopsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of outbound requests by host and status",
			},
			[]string{"host", "status"},
		),

		hopDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_duration_seconds",
				Help:      "Time until upstream response headers arrived",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"host"},
		),

		redirects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "redirects_total",
				Help:      "Total number of redirect hops followed",
			},
			[]string{"host"},
		),

		redirectLimit: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "redirect_limit_total",
				Help:      "Total number of redirect chains abandoned at the hop limit",
			},
		),

		tokenFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "token_fetches_total",
				Help:      "Total number of registry token exchanges by result",
			},
			[]string{"host", "result"},
		),

		up: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_up",
				Help:      "Whether the last probe of a registry host succeeded (1) or not (0)",
			},
			[]string{"host"},
		),
	}

	registry.MustRegister(
		um.hopsTotal,
		um.hopDuration,
		um.redirects,
		um.redirectLimit,
		um.tokenFetches,
		um.up,
	)

	return um
}

// RecordHop records one outbound request. A zero status means the request
// failed before any response arrived.
func (um *UpstreamMetrics) RecordHop(host string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	um.hopsTotal.WithLabelValues(host, label).Inc()
	um.hopDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// RecordRedirect records a followed redirect.
func (um *UpstreamMetrics) RecordRedirect(host string) {
	um.redirects.WithLabelValues(host).Inc()
}

// RecordRedirectLimit records a chain that hit the hop limit.
func (um *UpstreamMetrics) RecordRedirectLimit() {
	um.redirectLimit.Inc()
}

// RecordTokenFetch records a token exchange outcome.
func (um *UpstreamMetrics) RecordTokenFetch(host string, obtained bool) {
	result := "absent"
	if obtained {
		result = "obtained"
	}
	um.tokenFetches.WithLabelValues(host, result).Inc()
}

// SetUp records a probe result.
func (um *UpstreamMetrics) SetUp(host string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	um.up.WithLabelValues(host).Set(v)
}
