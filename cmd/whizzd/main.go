// whizzd is the conversion daemon: it exposes the survey ingestion
// pipeline over HTTP, with a progress WebSocket and Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"whizzcli/internal/config"
	"whizzcli/internal/infrastructure"
	transport "whizzcli/internal/transport/http"
	"whizzcli/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Daemon error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("failed to initialize paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create required directories: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("whizzd.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.CreateConversionMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create conversion metrics: %w", err)
	}

	hub := websocket.NewHub(logger)
	hub.Start()

	service := transport.NewConversionService(cfg, paths, hub, metrics, logger)
	router := transport.NewRouter(transport.RouterDeps{
		Config:    cfg,
		Logger:    logger,
		Providers: providers,
		Hub:       hub,
		Service:   service,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.InfoContext(ctx, "Daemon listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("surveys_dir", paths.SurveysDir),
			slog.String("datasets_dir", paths.DatasetsDir))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	select {
	case <-sigChan:
		logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "Server shutdown error", slog.String("error", err.Error()))
	}
	hub.Stop()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "Error shutting down telemetry", slog.String("error", err.Error()))
	}

	logger.Info("Daemon shutdown complete")
	return nil
}
