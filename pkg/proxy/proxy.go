package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/gantry/pkg/access"
	"mercator-hq/gantry/pkg/audit"
	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/proxy/middleware"
	"mercator-hq/gantry/pkg/registryauth"
	"mercator-hq/gantry/pkg/target"
	"mercator-hq/gantry/pkg/telemetry/metrics"
	"mercator-hq/gantry/pkg/telemetry/tracing"
)

// AuditRecorder receives one record per proxied request. It must not
// block. *audit.Recorder satisfies it.
type AuditRecorder interface {
	Record(rec *audit.Record)
}

// Options configures an Orchestrator.
type Options struct {
	Resolver   *target.Resolver
	Policy     *access.Policy
	Client     Doer
	Negotiator *registryauth.Negotiator

	// MaxRedirects is the number of redirect hops followed before 508.
	MaxRedirects int
	S3Domains    []string

	// ResolveTimeout bounds the whole chain until the final response
	// headers arrive. Zero disables it.
	ResolveTimeout time.Duration

	// Metrics, Audit and Tracer may be nil.
	Metrics *metrics.Collector
	Audit   AuditRecorder
	Tracer  *tracing.Tracer
	Logger  *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator is the proxy handler: resolve, check policy, dispatch,
// negotiate auth, chase redirects, sanitize and stream.
type Orchestrator struct {
	resolver       *target.Resolver
	policy         *access.Policy
	client         Doer
	negotiator     *registryauth.Negotiator
	maxRedirects   int
	s3Domains      []string
	resolveTimeout time.Duration
	metrics        *metrics.Collector
	audit          AuditRecorder
	tracer         *tracing.Tracer
	logger         *slog.Logger
	now            func() time.Time
}

// New creates an Orchestrator. Resolver, Policy and Client are required.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = config.DefaultMaxRedirects
	}
	negotiator := opts.Negotiator
	if negotiator == nil {
		negotiator = registryauth.NewNegotiator(opts.Client, 0, "", logger)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}

	return &Orchestrator{
		resolver:       opts.Resolver,
		policy:         opts.Policy,
		client:         opts.Client,
		negotiator:     negotiator,
		maxRedirects:   maxRedirects,
		s3Domains:      append([]string(nil), opts.S3Domains...),
		resolveTimeout: opts.ResolveTimeout,
		metrics:        opts.Metrics,
		audit:          opts.Audit,
		tracer:         tracer,
		logger:         logger.With("component", "proxy"),
		now:            now,
	}
}

// NewFromConfig wires an Orchestrator from a configuration snapshot.
func NewFromConfig(cfg *config.Config, client Doer, m *metrics.Collector, rec AuditRecorder, tr *tracing.Tracer, logger *slog.Logger) *Orchestrator {
	return New(Options{
		Resolver:       target.NewResolverFromConfig(cfg),
		Policy:         access.NewPolicyFromConfig(&cfg.Access),
		Client:         client,
		Negotiator:     registryauth.NewNegotiator(client, cfg.Upstream.TokenTimeout, cfg.Upstream.UserAgent, logger),
		MaxRedirects:   cfg.Registry.MaxRedirects,
		S3Domains:      cfg.Registry.S3Domains,
		ResolveTimeout: cfg.Upstream.ResolveTimeout,
		Metrics:        m,
		Audit:          rec,
		Tracer:         tr,
		Logger:         logger,
	})
}

// outcome accumulates what is reported about one request.
type outcome struct {
	target *target.Target
	status int
	hops   int
	auth   string
	bytes  int64
	host   string
	err    error
}

// ServeHTTP implements http.Handler.
func (o *Orchestrator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := o.tracer.Start(tracing.Extract(r.Context(), r.Header), "proxy.request",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()
	r = r.WithContext(ctx)

	out := &outcome{auth: AuthNone}
	defer func() { o.report(r, start, out) }()

	t, err := o.resolver.ResolveURL(r.URL)
	if err != nil {
		o.metrics.RecordResolveFailure()
		o.fail(r.Context(), w, out, malformed(err))
		return
	}
	out.target = t
	out.host = t.Host

	if d := o.policy.Check(t, r.URL.Path); !d.Allowed {
		o.metrics.RecordPolicyDenial(d.Reason)
		o.logger.InfoContext(r.Context(), "request denied by policy",
			"host", t.Host,
			"path", r.URL.Path,
			"reason", d.Reason,
		)
		o.fail(r.Context(), w, out, denied(d.Status, t.Host, d.Reason))
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The deadline covers the chain only; streaming the body afterwards is
	// bounded by the client connection.
	var deadline *time.Timer
	if o.resolveTimeout > 0 {
		deadline = time.AfterFunc(o.resolveTimeout, cancel)
	}

	c := &chain{
		o:       o,
		inbound: r.Header,
		body:    newBodySource(r),
		auth:    AuthNone,
	}
	u := t.URL()
	resp, err := c.run(ctx, hop{
		method: r.Method,
		url:    u,
		header: OutboundHeader(r.Header, u.Hostname(), o.now(), o.s3Domains),
	})
	if deadline != nil && !deadline.Stop() && err == nil {
		discard(resp)
		err = transport(c.lastHost, context.DeadlineExceeded)
	}
	out.hops, out.auth, out.host = c.hops, c.auth, c.lastHost
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			perr = transport(c.lastHost, err)
		}
		o.fail(r.Context(), w, out, perr)
		return
	}
	defer resp.Body.Close()

	header := SanitizeHeader(resp.Header, t.Registry)
	if resp.ContentLength >= 0 && header.Get("Content-Length") == "" && r.Method != http.MethodHead {
		header.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	dst := w.Header()
	for k, vv := range header {
		dst[k] = vv
	}
	w.WriteHeader(resp.StatusCode)
	out.status = resp.StatusCode

	n, err := io.Copy(w, resp.Body)
	out.bytes = n
	if err != nil && !errors.Is(err, context.Canceled) {
		out.err = err
		o.logger.WarnContext(r.Context(), "response stream interrupted",
			"host", c.lastHost,
			"bytes", n,
			"error", err,
		)
	}
}

func (o *Orchestrator) fail(ctx context.Context, w http.ResponseWriter, out *outcome, e *Error) {
	out.status = e.Status
	out.err = e
	if e.Kind == KindUpstreamTransport || e.Kind == KindRedirectLimit {
		o.logger.WarnContext(ctx, "upstream request failed",
			"kind", e.Kind.String(),
			"host", e.Host,
			"error", e.Err,
		)
	}
	WriteError(w, e)
}

func (o *Orchestrator) report(r *http.Request, start time.Time, out *outcome) {
	duration := time.Since(start)

	kind := target.KindNone
	if out.target != nil {
		kind = out.target.Kind
	}
	o.metrics.RecordRequest(kind.String(), out.status, duration, out.bytes)

	span := trace.SpanFromContext(r.Context())
	if t := out.target; t != nil {
		tracing.SetTargetAttributes(span, t.Host, kind.String(), t.Registry, t.Reference)
	}
	tracing.SetOutcomeAttributes(span, out.status, out.hops, out.auth, out.bytes)
	var perr *Error
	if errors.As(out.err, &perr) {
		tracing.SetErrorAttributes(span, perr, perr.Kind.String())
	}

	if o.audit == nil {
		return
	}

	rec := &audit.Record{
		RequestID:  middleware.GetRequestID(r.Context()),
		Timestamp:  start,
		Method:     r.Method,
		Path:       r.URL.Path,
		ClientAddr: r.RemoteAddr,
		FinalHost:  out.host,
		Kind:       kind.String(),
		Status:     out.status,
		Hops:       out.hops,
		Auth:       out.auth,
		Bytes:      out.bytes,
		Duration:   duration,
	}
	if t := out.target; t != nil {
		rec.Host = t.Host
		rec.UpstreamPath = t.UpstreamPath()
		rec.Registry = t.Registry
		rec.Reference = t.Reference
		rec.Digest = t.Digest.String()
	}
	if out.err != nil {
		rec.Error = out.err.Error()
	}
	o.audit.Record(rec)
}
