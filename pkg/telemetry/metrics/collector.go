package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gantry/pkg/config"
)

// maxHostCardinality bounds the number of distinct upstream host labels.
// Pre-signed storage hosts are per bucket, so the set is open ended.
const maxHostCardinality = 256

// otherHost is the label used once the host cardinality limit is reached.
const otherHost = "other"

// Collector owns every Gantry metric and the registry they live in.
// All methods are safe on a nil *Collector, which records nothing; this
// keeps call sites free of enabled checks.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	policyMetrics   *PolicyMetrics

	hosts *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh one is created. The config is copied; the
// caller's value is not modified.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if len(c.DurationBuckets) == 0 {
		c.DurationBuckets = config.DefaultDurationBuckets
	}

	return &Collector{
		config:          &c,
		registry:        registry,
		requestMetrics:  NewRequestMetrics(&c, registry),
		upstreamMetrics: NewUpstreamMetrics(&c, registry),
		policyMetrics:   NewPolicyMetrics(&c, registry),
		hosts:           NewCardinalityLimiter(maxHostCardinality),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

func (c *Collector) hostLabel(host string) string {
	if c.hosts.Allow(host) {
		return host
	}
	return otherHost
}

// RecordRequest records a completed proxied request.
//
// Parameters:
//   - kind: API kind of the target ("manifest", "blob", "none")
//   - status: final HTTP status returned to the client
//   - duration: time from receipt until the body was fully streamed
//   - bytes: body bytes streamed to the client
func (c *Collector) RecordRequest(kind string, status int, duration time.Duration, bytes int64) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.Record(kind, status, duration, bytes)
}

// RecordUpstream records one outbound hop.
//
// Parameters:
//   - host: destination host of the hop
//   - status: upstream status, or 0 for a transport failure
//   - duration: time until response headers arrived
func (c *Collector) RecordUpstream(host string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordHop(c.hostLabel(host), status, duration)
}

// RecordRedirect records a followed redirect hop.
func (c *Collector) RecordRedirect(fromHost string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordRedirect(c.hostLabel(fromHost))
}

// RecordRedirectLimit records a chain abandoned with 508.
func (c *Collector) RecordRedirectLimit() {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordRedirectLimit()
}

// RecordTokenFetch records a registry token exchange.
//
// Parameters:
//   - host: registry host that issued the challenge
//   - obtained: true if a usable token was returned
func (c *Collector) RecordTokenFetch(host string, obtained bool) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordTokenFetch(c.hostLabel(host), obtained)
}

// RecordPolicyDenial records a request rejected by the access policy.
//
// Parameters:
//   - reason: "host" or "path"
func (c *Collector) RecordPolicyDenial(reason string) {
	if !c.enabled() {
		return
	}
	c.policyMetrics.RecordDenial(reason)
}

// RecordResolveFailure records a request whose path could not be resolved.
func (c *Collector) RecordResolveFailure() {
	if !c.enabled() {
		return
	}
	c.policyMetrics.RecordResolveFailure()
}

// SetUpstreamUp records the latest probe result for a registry host.
func (c *Collector) SetUpstreamUp(host string, up bool) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.SetUp(c.hostLabel(host), up)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it either has been seen
// before or there is still room for it.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
