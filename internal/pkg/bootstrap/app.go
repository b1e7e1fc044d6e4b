// Package bootstrap carries the shared startup and graceful shutdown
// sequence for every service in this repo.
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fraudengine/internal/pkg/config"
	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/metrics"
	"fraudengine/internal/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// AppCtx is handed to each service's RegisterHandlers hook. Background
// workers started through Go are waited on during shutdown.
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config

	ctx   context.Context
	group *errgroup.Group
}

// Ctx is the application lifetime context; it is cancelled on SIGINT or
// SIGTERM.
func (a AppCtx) Ctx() context.Context { return a.ctx }

// Go runs fn as a supervised background worker. A non-nil return tears the
// whole service down.
func (a AppCtx) Go(fn func(ctx context.Context) error) {
	a.group.Go(func() error { return fn(a.ctx) })
}

// AppInfo describes one service to StartService.
type AppInfo struct {
	ServiceName string
	// Port overrides the configured HTTP port when non-zero.
	Port             int
	RegisterHandlers func(appCtx AppCtx) error
}

// StartService loads configuration, initializes logging and tracing, exposes
// /metrics and /healthz, runs the service's handlers and workers, and blocks
// until a termination signal, then shuts everything down in reverse order.
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	log := logger.Ctx(context.Background())

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load configuration")
	}

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	group, gctx := errgroup.WithContext(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg, ctx: gctx, group: group}); err != nil {
			log.Fatal().Err(err).Msg("failed to register handlers")
		}
	}

	port := info.Port
	if port == 0 {
		port = cfg.HTTP.Port
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: mux}
	group.Go(func() error {
		log.Info().Int("port", port).Msg("✅ " + info.ServiceName + " listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Block until a signal arrives or a supervised worker fails.
	<-gctx.Done()
	log.Info().Msg("🛑 shutting down " + info.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("background worker exited with error")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer provider shutdown failed")
	}
	log.Info().Msg("✅ " + info.ServiceName + " shut down cleanly")
}
