package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cache"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/palette"
	"expenses/internal/services"
)

const (
	dashboardCacheSize = 128
	dashboardCacheTTL  = 10 * time.Minute
	shutdownTimeout    = 30 * time.Second
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, *configFile, nil)
	logger = cli.SetupLogger(cfg.LogLevel)

	ctx := context.Background()

	colors, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		logger.Error("Failed to load palette", "error", err, "path", cfg.PaletteFile)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg, cfg.DataBackend)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	store, err := ledger.Open(ctx, result.Backend, ledger.WithDefaultCurrency(cfg.DefaultCurrency))
	if err != nil {
		logger.Error("Failed to load ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Ledger loaded",
		"backend", cfg.DataBackend,
		"entries", len(store.List()),
		"currency", store.Currency())

	// Change events are optional; without a broker the server runs standalone.
	var ledgerSvc *services.LedgerService
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		ledgerSvc = services.NewLedgerService(store, client)
		logger.Info("Publishing ledger changes", "exchange", cfg.AMQPExchange)
	} else {
		ledgerSvc = services.NewLedgerService(store, nil)
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}
	defer ledgerSvc.Close()

	dashCache := cache.NewLRUCache[*services.Dashboard](dashboardCacheSize, dashboardCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(dashCache)
	dashboards := services.NewDashboardService(store, colors, dashCache)

	httpLogger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentHTTP,
	})
	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, dashboards, httpLogger)

	ctx = cli.GracefulShutdown(logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})
	cacheManager.StartCleanup(ctx, time.Minute)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cacheManager.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
