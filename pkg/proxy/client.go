package proxy

import (
	"net"
	"net/http"
	"time"

	"mercator-hq/gantry/pkg/config"
)

// Doer issues a single HTTP request. It must not follow redirects; the
// proxy chases them itself.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient builds the outbound client from the upstream section. The
// per-hop bounds are enforced by the transport; redirects are returned
// to the caller unfollowed.
func NewClient(cfg *config.UpstreamConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		// Layers are already compressed; pass encodings through untouched.
		DisableCompression: true,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
