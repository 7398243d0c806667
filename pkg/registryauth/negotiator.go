package registryauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxTokenResponseBytes bounds the token endpoint body that is decoded.
const maxTokenResponseBytes = 1 << 20

// Doer issues a single HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// tokenResponse accepts both field names used by token endpoints.
type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

func (r tokenResponse) value() (string, bool) {
	if r.Token != "" {
		return r.Token, true
	}
	if r.AccessToken != "" {
		return r.AccessToken, true
	}
	return "", false
}

// Negotiator exchanges Bearer challenges for tokens. Tokens are not
// cached; every challenge results in one exchange.
type Negotiator struct {
	client    Doer
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewNegotiator creates a negotiator. A zero timeout leaves the exchange
// bounded only by ctx.
func NewNegotiator(client Doer, timeout time.Duration, userAgent string, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Negotiator{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logger.With("component", "registryauth"),
	}
}

// Token fetches a token for ch. An empty service is replaced by
// originHost. Any failure returns ("", false); the caller then retries
// anonymously.
func (n *Negotiator) Token(ctx context.Context, ch Challenge, originHost string) (string, bool) {
	tok, err := n.fetch(ctx, ch, originHost)
	if err != nil {
		n.logger.DebugContext(ctx, "bearer exchange failed",
			"realm", ch.Realm,
			"service", ch.Service,
			"scope", ch.Scope,
			"error", err,
		)
		return "", false
	}
	return tok, true
}

func (n *Negotiator) fetch(ctx context.Context, ch Challenge, originHost string) (string, error) {
	realm, err := url.Parse(ch.Realm)
	if err != nil {
		return "", fmt.Errorf("invalid realm: %w", err)
	}
	if realm.Scheme != "https" && realm.Scheme != "http" {
		return "", fmt.Errorf("unsupported realm scheme %q", realm.Scheme)
	}

	service := ch.Service
	if service == "" {
		service = originHost
	}
	q := realm.Query()
	q.Set("service", service)
	if ch.Scope != "" {
		q.Set("scope", ch.Scope)
	}
	realm.RawQuery = q.Encode()

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, realm.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	tok, ok := tr.value()
	if !ok {
		return "", fmt.Errorf("response carried no token")
	}
	return tok, nil
}
