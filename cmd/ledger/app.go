package main

import (
	"context"
	"errors"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/palette"
	"expenses/internal/services"
)

// app holds what a single command invocation works with.
type app struct {
	ledger  *services.LedgerService
	palette core.Palette
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// opener builds the app for a config file path.
type opener func(ctx context.Context, configFile string) (*app, error)

// openApp loads configuration, opens the configured backend and, when a
// broker is configured, publishes changes so the mirror worker follows CLI
// edits too.
func openApp(ctx context.Context, configFile string) (*app, error) {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("warn")
	cfg := cli.LoadAndValidateConfig(logger, configFile, nil)
	cli.SetupLogger(cfg.LogLevel)

	colors, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg, cfg.DataBackend)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	a := &app{palette: colors, closers: []func() error{result.Close}}

	store, err := ledger.Open(ctx, result.Backend, ledger.WithDefaultCurrency(cfg.DefaultCurrency))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.AMQPURL == "" {
		a.ledger = services.NewLedgerService(store, nil)
		return a, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Warn("Change events disabled", "error", err)
		a.ledger = services.NewLedgerService(store, nil)
		return a, nil
	}
	a.ledger = services.NewLedgerService(store, client)
	a.closers = append(a.closers, a.ledger.Close)
	return a, nil
}
