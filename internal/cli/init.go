// Package cli provides common process initialization shared by
// cmd/ledger-server, cmd/ledger-worker and cmd/ledger.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expenses/internal/config"
	applog "expenses/internal/log"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and
// installs it as the default logger.
func SetupLogger(level string) *slog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger.Logger
}

// LoadEnvFile reads .env from the working directory when present. A missing
// file is normal outside local development.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and checks it with validate,
// falling back to Config.Validate. Failure exits the process.
func LoadAndValidateConfig(logger *slog.Logger, configFile string, validate func(*config.Config) error) *config.Config {
	if validate == nil {
		validate = (*config.Config).Validate
	}
	cfg, err := config.Load(configFile)
	if err == nil {
		err = validate(cfg)
	}
	if err != nil {
		logger.Error("Invalid configuration", "config_file", configFile, "error", err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown returns a context that ends after SIGINT or SIGTERM.
// cleanup gets timeout to finish before the returned context is cancelled.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) context.Context {
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer cancel()
		<-sigCtx.Done()
		stopSignals()
		logger.Info("Shutdown signal received")

		if cleanup == nil {
			return
		}
		deadline, done := context.WithTimeout(context.Background(), timeout)
		defer done()
		cleanup(deadline)
		if errors.Is(deadline.Err(), context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
		}
	}()
	return ctx
}
