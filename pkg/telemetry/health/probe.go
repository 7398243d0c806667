package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleOff disables scheduled probing.
const ScheduleOff = "off"

// ErrNoUpstreamReachable is reported by the readiness check when every
// probed registry failed its last probe.
var ErrNoUpstreamReachable = errors.New("no registry reachable")

// UpRecorder receives probe results. *metrics.Collector satisfies it.
type UpRecorder interface {
	SetUpstreamUp(host string, up bool)
}

// ProbeResult is the outcome of the last probe of one host.
type ProbeResult struct {
	Host      string        `json:"host"`
	Reachable bool          `json:"reachable"`
	Status    int           `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Prober periodically checks that registry hosts answer their /v2/
// version endpoint. Any response below 500 counts as reachable; a 401
// from an authenticated registry is the normal answer.
type Prober struct {
	client   *http.Client
	hosts    []string
	timeout  time.Duration
	recorder UpRecorder
	logger   *slog.Logger

	mu      sync.RWMutex
	results map[string]ProbeResult

	cronMu  sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewProber creates a prober for hosts. client and recorder may be nil.
func NewProber(client *http.Client, hosts []string, timeout time.Duration, recorder UpRecorder) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{
		client:   client,
		hosts:    append([]string(nil), hosts...),
		timeout:  timeout,
		recorder: recorder,
		logger:   slog.Default().With("component", "health.prober"),
		results:  make(map[string]ProbeResult, len(hosts)),
	}
}

// ProbeAll probes every host once, sequentially, and stores the results.
func (p *Prober) ProbeAll(ctx context.Context) []ProbeResult {
	out := make([]ProbeResult, 0, len(p.hosts))
	for _, host := range p.hosts {
		res := p.probe(ctx, host)

		p.mu.Lock()
		p.results[host] = res
		p.mu.Unlock()

		if p.recorder != nil {
			p.recorder.SetUpstreamUp(host, res.Reachable)
		}
		if !res.Reachable {
			p.logger.Warn("registry probe failed",
				"host", host,
				"status", res.Status,
				"error", res.Error,
			)
		}
		out = append(out, res)
	}
	return out
}

func (p *Prober) probe(ctx context.Context, host string) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res := ProbeResult{Host: host, CheckedAt: time.Now()}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+host+"/v2/", nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	resp, err := p.client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp.Body.Close()

	res.Status = resp.StatusCode
	res.Reachable = resp.StatusCode < http.StatusInternalServerError
	if !res.Reachable {
		res.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return res
}

// Results returns the stored results sorted by host.
func (p *Prober) Results() []ProbeResult {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ProbeResult, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}

// Check is a readiness CheckFunc. It passes before the first probe and
// while at least one host was reachable on its last probe.
func (p *Prober) Check(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.results) == 0 {
		return nil
	}
	for _, r := range p.results {
		if r.Reachable {
			return nil
		}
	}
	return ErrNoUpstreamReachable
}

// Start runs an initial probe in the background and then probes on the
// cron schedule until ctx is cancelled. ScheduleOff disables probing.
//
// Common schedules:
//   - "@every 5m"   - every five minutes
//   - "*/15 * * * *" - every quarter hour
func (p *Prober) Start(ctx context.Context, schedule string) error {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if schedule == ScheduleOff || schedule == "" || len(p.hosts) == 0 {
		p.logger.Info("registry probing disabled")
		return nil
	}
	if p.running {
		return errors.New("prober already running")
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid probe schedule %q: %w", schedule, err)
	}

	p.cron = cron.New()
	if _, err := p.cron.AddFunc(schedule, func() { p.ProbeAll(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule probes: %w", err)
	}
	p.cron.Start()
	p.running = true

	p.logger.Info("registry prober started",
		"schedule", schedule,
		"hosts", len(p.hosts),
	)

	go p.ProbeAll(ctx)
	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Stop stops the schedule and waits for a running probe to finish.
func (p *Prober) Stop() {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if p.cron != nil && p.running {
		done := p.cron.Stop()
		<-done.Done()
		p.running = false
		p.logger.Info("registry prober stopped")
	}
}

// IsRunning reports whether the schedule is active.
func (p *Prober) IsRunning() bool {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()
	return p.running
}
