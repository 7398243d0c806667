package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/handlers"

	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/proxy/middleware"
	"mercator-hq/gantry/pkg/telemetry/health"
	"mercator-hq/gantry/pkg/telemetry/metrics"
)

// Options holds the components served by a Server.
type Options struct {
	// Proxy handles every proxied route. Required.
	Proxy http.Handler

	// AllowedHosts feed the static-versus-proxy routing decision.
	AllowedHosts []string

	// Assets serves non-proxy GET requests. Required.
	Assets http.Handler

	Health  *health.Checker
	Metrics *metrics.Collector
	Version health.VersionInfo
	Logger  *slog.Logger
}

// routes is the part of the routing table replaced on reload.
type routes struct {
	proxy        http.Handler
	allowedHosts []string
}

// Server is the inbound HTTP server.
type Server struct {
	config         config.ServerConfig
	httpServer     *http.Server
	routes         atomic.Pointer[routes]
	liveness       http.HandlerFunc
	readiness      http.HandlerFunc
	assets         http.Handler
	metricsPath    string
	metricsHandler http.Handler
	versionHandler http.HandlerFunc
	logger         *slog.Logger

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates a server for cfg. Metrics are exposed on
// cfg.Telemetry.Metrics.Path when enabled.
func New(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checker := opts.Health
	if checker == nil {
		checker = health.New(0)
	}

	s := &Server{
		config:         cfg.Server,
		liveness:       checker.LivenessHandler(),
		readiness:      checker.ReadinessHandler(),
		assets:         opts.Assets,
		versionHandler: health.VersionHandler(opts.Version.Version, opts.Version.Commit, opts.Version.BuildTime),
		logger:         logger.With("component", "server"),
	}
	if opts.Metrics != nil && cfg.Telemetry.Metrics.Enabled {
		s.metricsPath = cfg.Telemetry.Metrics.Path
		s.metricsHandler = opts.Metrics.Handler()
	}
	s.SetProxy(opts.Proxy, opts.AllowedHosts)
	return s
}

// SetProxy atomically replaces the proxy handler and allow-list. Requests
// already in flight finish on the handler they started with.
func (s *Server) SetProxy(h http.Handler, allowedHosts []string) {
	s.routes.Store(&routes{
		proxy:        h,
		allowedHosts: append([]string(nil), allowedHosts...),
	})
}

// Handler returns the full handler including the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = http.HandlerFunc(s.dispatch)

	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	if s.config.TrustForwardedHeaders {
		handler = handlers.ProxyHeaders(handler)
	}
	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", ln.Addr().String(),
			"trust_forwarded_headers", s.config.TrustForwardedHeaders,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to
// ShutdownTimeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running, srv := s.isRunning, s.httpServer
		s.mu.RUnlock()
		if !running || srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address once the server has started.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
