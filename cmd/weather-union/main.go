package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/DSBisht13/Weather-Union/internal/api/http"
	"github.com/DSBisht13/Weather-Union/internal/config"
	"github.com/DSBisht13/Weather-Union/internal/logging"
	"github.com/DSBisht13/Weather-Union/internal/output"
	"github.com/DSBisht13/Weather-Union/internal/reference"
	"github.com/DSBisht13/Weather-Union/internal/scheduler"
	"github.com/DSBisht13/Weather-Union/internal/store"
	"github.com/DSBisht13/Weather-Union/internal/weather"
	"github.com/DSBisht13/Weather-Union/internal/weather/weatherunion"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	// Per-call timeout; requests are never retried.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := weatherunion.NewClient(httpClient, weatherunion.Config{
		BaseURL:       cfg.BaseURL,
		KeyHeader:     cfg.KeyHeader,
		LocalityParam: cfg.LocalityParam,
		Breaker: weatherunion.BreakerConfig{
			MaxConsecutiveFailures: uint32(cfg.BreakerMaxFailures),
		},
	}, logger)

	var sinks []weather.RecordSink
	if cfg.SQLitePath != "" {
		sqlite, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer func() {
			if err := sqlite.Close(); err != nil {
				logger.Error("db close", "error", err)
			}
		}()
		sinks = append(sinks, sqlite)
	}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	service := weather.NewService(
		reference.NewLoader(cfg.LocationsCSV, cfg.APIKeysCSV, logger),
		weather.NewCollector(client, cfg.MaxCallsPerKey, logger),
		output.NewCSVWriter(cfg.OutputBaseDir),
		memStore,
		logger,
		sinks...,
	)

	if !cfg.Scheduled() {
		_, err := service.Run(ctx)
		return err
	}

	return serve(ctx, cfg, service, logger)
}

// serve runs the job on an interval and exposes run summaries until ctx is done.
func serve(ctx context.Context, cfg *config.AppConfig, service *weather.Service, logger *slog.Logger) error {
	sched := scheduler.New(ctx, cfg.FetchInterval, service, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	return nil
}
