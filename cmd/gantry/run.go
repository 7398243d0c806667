package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/gantry/pkg/assets"
	"mercator-hq/gantry/pkg/audit/recorder"
	"mercator-hq/gantry/pkg/audit/retention"
	"mercator-hq/gantry/pkg/audit/storage"
	"mercator-hq/gantry/pkg/cli"
	"mercator-hq/gantry/pkg/config"
	"mercator-hq/gantry/pkg/proxy"
	"mercator-hq/gantry/pkg/server"
	"mercator-hq/gantry/pkg/telemetry/health"
	"mercator-hq/gantry/pkg/telemetry/logging"
	"mercator-hq/gantry/pkg/telemetry/metrics"
	"mercator-hq/gantry/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Gantry proxy server",
	Long: `Start the Gantry proxy server with the specified configuration.

The server listens on the configured address, serves the landing page and
proxies registry and download requests to the allow-listed origins.

Examples:
  # Start with defaults and GANTRY_* environment overrides
  gantry run

  # Start with a config file
  gantry run --config /etc/gantry/gantry.yaml

  # Override listen address
  gantry run --listen 0.0.0.0:8080

  # Validate config without starting server
  gantry run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

// applyRunOverrides returns a copy of cfg with the command line flags
// applied, validated again.
func applyRunOverrides(cfg *config.Config) (*config.Config, error) {
	c := *cfg
	if runFlags.listenAddress != "" {
		c.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		c.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return err
	}
	cfg, err := applyRunOverrides(config.GetConfig())
	if err != nil {
		return err
	}
	config.SetConfig(cfg)

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	client := proxy.NewClient(&cfg.Upstream)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := tracer.Shutdown(sctx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	var auditRec proxy.AuditRecorder
	var scheduler *retention.Scheduler
	if cfg.Audit.Enabled {
		store, err := storage.New(&cfg.Audit)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open audit storage: %w", err))
		}
		defer store.Close()

		rec := recorder.New(store, &cfg.Audit, logger)
		defer rec.Close()
		auditRec = rec

		pruner := retention.NewPruner(store, &cfg.Audit.Retention, logger)
		scheduler = retention.NewScheduler(pruner, cfg.Audit.Retention.PruneSchedule)
		logger.Info("audit log enabled", "backend", cfg.Audit.Backend)
	}

	checker := health.New(cfg.Telemetry.Health.ProbeTimeout)
	prober := health.NewProber(client, cfg.Access.RegistryHosts, cfg.Telemetry.Health.ProbeTimeout, collector)
	checker.RegisterCheck("registries", prober.Check)

	store, err := assets.New(cfg.Server.AssetsDir, logger)
	if err != nil {
		return cli.NewConfigError("server.assets_dir", err.Error())
	}

	buildProxy := func(c *config.Config) *proxy.Orchestrator {
		return proxy.NewFromConfig(c, client, collector, auditRec, tracer, logger)
	}

	srv := server.New(cfg, server.Options{
		Proxy:        buildProxy(cfg),
		AllowedHosts: cfg.Access.AllowedHosts,
		Assets:       store,
		Health:       checker,
		Metrics:      collector,
		Version:      versionInfo(),
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	if err := prober.Start(gctx, cfg.Telemetry.Health.ProbeSchedule); err != nil {
		logger.Warn("failed to start registry prober", "error", err)
	}

	if scheduler != nil {
		if err := scheduler.Start(gctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		} else if next := scheduler.NextRun(); next != nil {
			logger.Debug("audit retention scheduler started", "next_run", next)
		}
	}

	if cfg.Server.WatchConfig && cfgFile != "" {
		watcher := config.NewWatcher(cfgFile, reloadProxy(srv, buildProxy, logger), logger)
		g.Go(func() error {
			return watcher.Watch(gctx)
		})
	}

	printBanner(cmd, cfg)

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

// reloadProxy rebuilds the proxy handler from each reloaded snapshot.
// Listener settings only take effect on restart.
func reloadProxy(srv *server.Server, build func(*config.Config) *proxy.Orchestrator, logger *slog.Logger) func(*config.Config) {
	return func(cfg *config.Config) {
		srv.SetProxy(build(cfg), cfg.Access.AllowedHosts)
		logger.Info("proxy handler rebuilt",
			"allowed_hosts", len(cfg.Access.AllowedHosts),
			"restrict_paths", cfg.Access.RestrictPaths,
		)
	}
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	addr := cfg.Server.ListenAddress
	fmt.Fprintf(out, "Gantry v%s\n", Version)
	fmt.Fprintf(out, "✓ Server listening on %s\n", addr)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", addr)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
