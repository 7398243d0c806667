package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gantry/pkg/config"
)

// RequestMetrics tracks proxied client requests.
//
// Metrics:
//   - gantry_requests_total: requests by API kind and final status
//   - gantry_request_duration_seconds: end-to-end request duration
//   - gantry_response_bytes_total: body bytes streamed to clients
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bytesTotal      *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of proxied requests by API kind and final status code",
			},
			[]string{"kind", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied requests including body streaming",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"kind"},
		),

		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "response_bytes_total",
				Help:      "Total response body bytes streamed to clients",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.bytesTotal,
	)

	return rm
}

// Record records one completed request.
func (rm *RequestMetrics) Record(kind string, status int, duration time.Duration, bytes int64) {
	rm.requestsTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
	rm.requestDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if bytes > 0 {
		rm.bytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}
