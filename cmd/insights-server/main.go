package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"hms-analytics/internal/alerts"
	"hms-analytics/internal/api"
	"hms-analytics/internal/bootstrap"
	"hms-analytics/internal/common/config"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/common/observability"
	"hms-analytics/internal/insights"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting insights server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("source", cfg.Source.Kind),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conns := bootstrap.NewConnections(cfg, zapLog)
	defer conns.Close()

	base, err := conns.ServingStore(ctx)
	if err != nil {
		zapLog.Fatal("insight store setup failed", zap.Error(err))
	}
	var store insights.Store = insights.NewTracedStore(base, obs)

	cached, err := conns.Cache(ctx, store, log)
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	if cached != nil {
		store = cached
		zapLog.Info("Redis insight cache enabled", zap.String("key", cfg.Cache.Key))
	}

	handlerOpts := []api.HandlerOption{api.WithReadyTimeout(cfg.SourceTimeout())}
	notifier, err := alerts.New(ctx, cfg.Alerts, cfg.App.Name, log)
	if err != nil {
		zapLog.Fatal("alert notifier setup failed", zap.Error(err))
	}
	if notifier.Enabled() {
		handlerOpts = append(handlerOpts, api.WithNotifier(notifier))
		zapLog.Info("data unavailable alerts enabled",
			zap.Bool("sns", cfg.Alerts.SNS.Enabled),
			zap.Bool("ses", cfg.Alerts.SES.Enabled),
		)
	}

	// A bad collection at startup is not fatal: requests report it and the
	// regeneration worker can repair it.
	if _, err := store.Load(ctx); err != nil {
		zapLog.Warn("insight collection is not loadable at startup", zap.Error(err))
	}

	var workers *bootstrap.Workers
	if cfg.AnyWorkerEnabled() {
		workers, err = bootstrap.StartWorkers(ctx, cfg, conns, cached, log, zapLog)
		if err != nil {
			zapLog.Fatal("job workers failed to start", zap.Error(err))
		}
	}

	router := api.NewRouter(api.NewHandler(store, cfg.App, log, handlerOpts...), cfg.Server, log)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	if err := workers.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Insights server stopped gracefully")
}
