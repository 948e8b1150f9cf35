package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/dpsmeter/internal/adapters/chartpng"
	"github.com/okian/dpsmeter/internal/adapters/http/api"
	"github.com/okian/dpsmeter/internal/adapters/http/site"
	"github.com/okian/dpsmeter/internal/adapters/http/swagger"
	"github.com/okian/dpsmeter/internal/adapters/ingest"
	app "github.com/okian/dpsmeter/internal/app"
	"github.com/okian/dpsmeter/internal/config"
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/pkg/logger"
	"github.com/okian/dpsmeter/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	loggerInstance := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "invalid configuration", logger.Error(err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	preload(ctx, svc, cfg.Preload, loggerInstance)

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the session service from cfg.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithParser(parser.New(
			parser.WithLocation(loc),
			parser.WithEventTag(cfg.EventTag),
			parser.WithCommentPrefix(cfg.CommentPrefix),
		)),
		app.WithReader(ingest.New(
			ingest.WithConcurrency(cfg.ReadConcurrency),
			ingest.WithCommentPrefix(cfg.CommentPrefix),
			ingest.WithMaxBytes(cfg.MaxUploadBytes),
		)),
		app.WithRenderer(chartpng.New()),
		app.WithDefaults(cfg.DefaultNormalize, cfg.DefaultIntervalSeconds),
	), nil
}

// newHandler registers every route and wraps the mux with request ids and CORS.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// API docs at /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	// Business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxUploadBytes)
	apiServer.Register(ctx, mux)

	// Browser UI at /
	site.Register(ctx, mux)

	return api.CORS(cfg.CORSAllowedOrigins)(api.RequestID(log)(mux))
}

// preload loads the configured log files. Failures are logged and the server
// starts with whatever was read.
func preload(ctx context.Context, svc *app.Service, patterns []string, log logger.Logger) {
	if len(patterns) == 0 {
		return
	}
	paths, err := ingest.ExpandGlobs(patterns)
	if err != nil {
		log.Warn(ctx, "preload skipped", logger.Error(err))
		return
	}
	files, err := svc.Preload(ctx, paths)
	if err != nil {
		log.Warn(ctx, "preload failed", logger.Int("loaded", len(files)), logger.Error(err))
		return
	}
	log.Info(ctx, "preloaded log files", logger.Int("files", len(files)))
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
