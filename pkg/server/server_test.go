package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/proxy/middleware"
	"mercator-hq/gantry/pkg/telemetry/health"
	"mercator-hq/gantry/pkg/telemetry/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func marker(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", name)
		w.Header().Set("X-Seen-Path", r.URL.Path)
		w.Header().Set("X-Seen-Remote", r.RemoteAddr)
		w.Header().Set("X-Seen-Request-Id", middleware.GetRequestID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	return New(&cfg, Options{
		Proxy:        marker("proxy"),
		AllowedHosts: []string{"github.com", "ghcr.io"},
		Assets:       marker("assets"),
		Health:       health.New(time.Second),
		Metrics:      collector,
		Version:      health.VersionInfo{Version: "1.2.3"},
		Logger:       testLogger(),
	})
}

func TestIsAPIRequest(t *testing.T) {
	allowed := []string{"github.com", "ghcr.io"}

	tests := []struct {
		path string
		want bool
	}{
		{"/", false},
		{"/index.html", false},
		{"/style.css", false},
		{"/nginx", false},
		{"/library/nginx", true},
		{"/v2/", true},
		{"/v2/library/nginx/manifests/latest", true},
		{"/https://github.com/owner/repo", true},
		{"/http:/example.com", true},
		{"/github.com", true},
		{"/ghcr.io", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAPIRequest(tt.path, allowed); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestServer_Routing(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	tests := []struct {
		name        string
		method      string
		path        string
		wantHandler string
		wantStatus  int
	}{
		{"index", http.MethodGet, "/", "assets", http.StatusOK},
		{"static file", http.MethodGet, "/style.css", "assets", http.StatusOK},
		{"single segment image", http.MethodGet, "/nginx", "assets", http.StatusOK},
		{"post single segment", http.MethodPost, "/nginx", "proxy", http.StatusOK},
		{"v2 manifest", http.MethodGet, "/v2/library/nginx/manifests/latest", "proxy", http.StatusOK},
		{"embedded url", http.MethodGet, "/https://github.com/owner/repo/archive/main.tar.gz", "proxy", http.StatusOK},
		{"allowed host", http.MethodGet, "/ghcr.io", "proxy", http.StatusOK},
		{"two segments", http.MethodGet, "/library/nginx", "proxy", http.StatusOK},
		{"liveness", http.MethodGet, "/health", "", http.StatusOK},
		{"version", http.MethodGet, "/version", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"head version", http.MethodHead, "/version", "", http.StatusOK},
		{"post version", http.MethodPost, "/version", "proxy", http.StatusOK},
		{"put liveness", http.MethodPut, "/health", "proxy", http.StatusOK},
		{"delete readiness", http.MethodDelete, "/ready", "proxy", http.StatusOK},
		{"post metrics", http.MethodPost, "/metrics", "proxy", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("X-Handler"); got != tt.wantHandler {
				t.Errorf("expected handler %q, got %q", tt.wantHandler, got)
			}
			if tt.wantHandler == "proxy" && rec.Header().Get("X-Seen-Path") != tt.path {
				t.Errorf("expected path %q to reach the proxy unmodified, got %q", tt.path, rec.Header().Get("X-Seen-Path"))
			}
		})
	}
}

func TestServer_VersionCheck(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for _, path := range []string{"/v2", "/v2/"} {
		for _, method := range []string{http.MethodGet, http.MethodHead} {
			t.Run(method+" "+path, func(t *testing.T) {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

				if rec.Code != http.StatusOK {
					t.Errorf("expected status 200, got %d", rec.Code)
				}
				if got := rec.Header().Get("Docker-Distribution-API-Version"); got != "registry/2.0" {
					t.Errorf("expected registry/2.0, got %q", got)
				}
				if rec.Header().Get("X-Handler") != "" {
					t.Error("expected version check to be answered locally")
				}
				wantBody := "{}"
				if method == http.MethodHead {
					wantBody = ""
				}
				if rec.Body.String() != wantBody {
					t.Errorf("expected body %q, got %q", wantBody, rec.Body.String())
				}
			})
		}
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Telemetry.Metrics.Enabled = false
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Header().Get("X-Handler") != "assets" {
		t.Errorf("expected /metrics to fall through to assets, got %q", rec.Header().Get("X-Handler"))
	}
}

func TestServer_SetProxy(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	s.SetProxy(marker("proxy-v2"), []string{"quay.io"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quay.io", nil))
	if got := rec.Header().Get("X-Handler"); got != "proxy-v2" {
		t.Errorf("expected replaced proxy handler, got %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ghcr.io", nil))
	if got := rec.Header().Get("X-Handler"); got != "assets" {
		t.Errorf("expected old allow-list to be replaced, got %q", got)
	}
}

func TestServer_Middleware(t *testing.T) {
	t.Run("request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(t, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/library/nginx", nil))
		if rec.Header().Get("X-Seen-Request-Id") == "" {
			t.Error("expected request ID in handler context")
		}
	})

	t.Run("forwarded headers trusted", func(t *testing.T) {
		s := newTestServer(t, func(cfg *config.Config) {
			cfg.Server.TrustForwardedHeaders = true
		})
		req := httptest.NewRequest(http.MethodGet, "/library/nginx", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Seen-Remote"); got != "203.0.113.7" {
			t.Errorf("expected remote 203.0.113.7, got %q", got)
		}
	})

	t.Run("forwarded headers ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/library/nginx", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")

		rec := httptest.NewRecorder()
		newTestServer(t, nil).Handler().ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Seen-Remote"); strings.HasPrefix(got, "203.0.113.7") {
			t.Errorf("expected forwarded header to be ignored, got %q", got)
		}
	})
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	deadline := time.Now().Add(2 * time.Second)
	for !s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if s.IsRunning() {
		t.Error("expected server to be stopped")
	}
}
