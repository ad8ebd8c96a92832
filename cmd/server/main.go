package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/api"
	"github.com/ndewijer/wealth-tracker/internal/app"
	"github.com/ndewijer/wealth-tracker/internal/config"
	"github.com/ndewijer/wealth-tracker/internal/logging"
	"github.com/ndewijer/wealth-tracker/internal/scheduler"
	"github.com/ndewijer/wealth-tracker/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wealth-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are not actionable
	zap.ReplaceGlobals(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close application", zap.Error(err))
		}
	}()

	logger.Info("connected to database",
		zap.String("path", cfg.Database.Path),
		zap.String("version", version.Version),
		zap.Strings("providers", a.Prices.Providers()),
	)

	sched := scheduler.New(logger.Named("scheduler"))
	if cfg.Price.RefreshCron != "" {
		if err := sched.ScheduleRefresh(cfg.Price.RefreshCron, cfg.Portfolio.BaseCurrency, cfg.Price.StaleAfter, a.Prices); err != nil {
			return err
		}
		sched.Start()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(a.Services(), cfg, logger.Named("http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(ctx); err != nil {
		logger.Warn("scheduled refresh did not finish", zap.Error(err))
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
