package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/gantry/pkg/registryauth"
	"mercator-hq/gantry/pkg/telemetry/tracing"
)

// Authentication outcomes recorded per request.
const (
	AuthNone      = "none"
	AuthBearer    = "bearer"
	AuthAnonymous = "anonymous"
)

// maxDrainBytes bounds how much of an intermediate response body is read
// so its connection can be reused.
const maxDrainBytes = 64 << 10

// hop is one outbound request of a chain.
type hop struct {
	method string
	url    *url.URL
	header http.Header
}

// bodySource hands the inbound body to the first dispatch that needs it.
type bodySource struct {
	body   io.ReadCloser
	length int64
	used   bool
}

func newBodySource(r *http.Request) *bodySource {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return &bodySource{}
	}
	return &bodySource{body: r.Body, length: r.ContentLength}
}

func (b *bodySource) next() (io.ReadCloser, int64, error) {
	if b.body == nil {
		return nil, 0, nil
	}
	if b.used {
		return nil, 0, ErrBodyConsumed
	}
	b.used = true
	return b.body, b.length, nil
}

// chain is the state of one request's dispatch loop.
type chain struct {
	o       *Orchestrator
	inbound http.Header
	body    *bodySource
	hops    int
	auth    string
	// lastHost is the destination of the most recent dispatch.
	lastHost string
}

// run dispatches first and then absorbs auth challenges and redirects
// until a terminal response arrives. The caller owns the returned body.
func (c *chain) run(ctx context.Context, first hop) (*http.Response, error) {
	cur := first
	for {
		resp, err := c.dispatch(ctx, cur)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && c.o.resolver.IsRegistry(cur.url.Hostname()) {
			resp, err = c.authenticate(ctx, cur, resp)
			if err != nil {
				return nil, err
			}
		}

		if !isRedirect(resp.StatusCode) {
			return resp, nil
		}
		loc := resp.Header.Get("Location")
		if loc == "" {
			return resp, nil
		}

		next, err := cur.url.Parse(loc)
		if err != nil {
			discard(resp)
			return nil, transport(cur.url.Hostname(), err)
		}
		if c.hops >= c.o.maxRedirects {
			discard(resp)
			c.o.metrics.RecordRedirectLimit()
			return nil, redirectLimit(next.Hostname(), c.o.maxRedirects)
		}

		echoed := resp.Header.Get("Authorization")
		discard(resp)
		c.hops++
		c.o.metrics.RecordRedirect(cur.url.Hostname())

		header := OutboundHeader(c.inbound, next.Hostname(), c.o.now(), c.o.s3Domains)
		if echoed != "" {
			header.Set("Authorization", echoed)
		}
		c.o.logger.DebugContext(ctx, "following redirect",
			"from", cur.url.Hostname(),
			"to", next.Hostname(),
			"hop", c.hops,
		)
		cur = hop{method: cur.method, url: next, header: header}
	}
}

// authenticate handles a 401 from a registry. Without a parsable Bearer
// challenge the 401 is returned as is. Otherwise exactly one token
// exchange and one retry happen; the retry carries the token or, when
// none was issued, no Authorization at all.
func (c *chain) authenticate(ctx context.Context, cur hop, resp *http.Response) (*http.Response, error) {
	ch, ok := registryauth.ParseChallenge(resp.Header.Get("WWW-Authenticate"))
	if !ok {
		return resp, nil
	}
	discard(resp)

	host := cur.url.Hostname()
	tctx, span := c.o.tracer.Start(ctx, "registry.token",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(tracing.AttrHost, host)),
	)
	token, ok := c.o.negotiator.Token(tctx, ch, host)
	span.SetAttributes(attribute.Bool("gantry.token.issued", ok))
	span.End()
	c.o.metrics.RecordTokenFetch(host, ok)

	header := OutboundHeader(cur.header, host, c.o.now(), c.o.s3Domains)
	if ok {
		c.auth = AuthBearer
		header.Set("Authorization", "Bearer "+token)
	} else {
		c.auth = AuthAnonymous
		header.Del("Authorization")
		c.o.logger.InfoContext(ctx, "no bearer credential issued, retrying anonymously", "host", host)
	}

	return c.dispatch(ctx, hop{method: cur.method, url: cur.url, header: header})
}

func (c *chain) dispatch(ctx context.Context, h hop) (*http.Response, error) {
	host := h.url.Hostname()
	c.lastHost = host

	body, length, err := c.body.next()
	if err != nil {
		return nil, transport(host, err)
	}

	req, err := http.NewRequestWithContext(ctx, h.method, h.url.String(), body)
	if err != nil {
		return nil, transport(host, err)
	}
	req.Header = h.header
	req.Host = h.url.Host
	if body != nil {
		req.ContentLength = length
	}

	_, span := c.o.tracer.Start(ctx, "upstream.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrHTTPMethod, h.method),
			attribute.String(tracing.AttrServerAddr, host),
			attribute.String(tracing.AttrURLPath, h.url.Path),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.o.client.Do(req)
	if err != nil {
		c.o.metrics.RecordUpstream(host, 0, time.Since(start))
		err = unwrapURLError(err)
		tracing.SetErrorAttributes(span, err, KindUpstreamTransport.String())
		return nil, transport(host, err)
	}
	c.o.metrics.RecordUpstream(host, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))
	return resp, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// discard drains a bounded amount of an unused body and closes it.
func discard(resp *http.Response) {
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)
	_ = resp.Body.Close()
}

// unwrapURLError drops the *url.Error wrapper, whose message repeats the
// full upstream URL including any pre-signed query.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
