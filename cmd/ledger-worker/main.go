package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/services"
	"expenses/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, *configFile, (*config.Config).ValidateWorker)
	logger = cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting ledger-worker",
		"primary", cfg.DataBackend,
		"mirror", cfg.MirrorBackend,
		"interval", cfg.SyncInterval)

	ctx := context.Background()
	factory := backend.NewFactory(logger)

	primary, err := openBackend(ctx, factory, cfg, cfg.DataBackend)
	if err != nil {
		logger.Error("Failed to initialize primary backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer primary.Close()

	mirror, err := openBackend(ctx, factory, cfg, cfg.MirrorBackend)
	if err != nil {
		logger.Error("Failed to initialize mirror backend", "error", err, "backend", cfg.MirrorBackend)
		os.Exit(1)
	}
	defer mirror.Close()

	processor := services.NewSyncProcessor(primary.Backend, mirror.Backend, services.SyncProcessorConfig{
		Interval: cfg.SyncInterval,
	})
	mirrorWorker := worker.NewMirrorWorker(processor)

	// Change messages are optional; without a broker the periodic copy still runs.
	var client *amqp.Client
	if cfg.AMQPURL != "" {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
	} else {
		logger.Info("AMQP disabled - relying on periodic sync only")
	}

	ctx = cli.GracefulShutdown(logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Sync processor stop error", "error", err)
		}
	})

	if err := mirrorWorker.StartupSync(ctx); err != nil {
		// Keep running; the periodic copy retries.
		logger.Error("Failed startup sync", "error", err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	if client != nil {
		g.Go(func() error {
			err := client.Consume(gctx, mirrorWorker.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = processor.Stop(stopCtx)
		os.Exit(1)
	}

	stats := processor.Stats()
	logger.Info("Worker shutdown complete",
		"syncs", stats.Syncs,
		"failures", stats.Failures)
}

func openBackend(ctx context.Context, factory backend.Factory, cfg *config.Config, name string) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg, name)
	if err != nil {
		return nil, err
	}
	return factory.CreateBackend(ctx, backendCfg)
}
