package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyclaw/config"
	"github.com/alejandrodnm/polyclaw/internal/adapters/notify"
	"github.com/alejandrodnm/polyclaw/internal/application/engine"
	"github.com/alejandrodnm/polyclaw/internal/metrics"
	"github.com/alejandrodnm/polyclaw/internal/server"
)

// errStopFile marca una parada pedida con el archivo STOP.
var errStopFile = errors.New("stop file detected")

// runTrader ejecuta un ciclo por intervalo hasta una señal o el archivo STOP.
// Con serve, la API HTTP corre en paralelo y termina con el loop.
func runTrader(ctx context.Context, eng *engine.Engine, console *notify.Console, m *metrics.Metrics, cfg *config.Config, serve bool) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return tradeLoop(gctx, eng, console, cfg.Interval(), cfg.Trader.StopFile)
	})
	if serve {
		srv := server.New(cfg.Server.Addr, server.NewRouter(eng, m))
		g.Go(func() error {
			return server.Run(gctx, srv)
		})
	}

	err := g.Wait()
	if errors.Is(err, errStopFile) {
		return nil
	}
	return err
}

func tradeLoop(ctx context.Context, eng *engine.Engine, console *notify.Console, interval time.Duration, stopFile string) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("trading started, press Ctrl+C or create the stop file to exit", "stop_file", stopFile, "interval", interval)
	cycle := 1
	runLoggedCycle(ctx, eng, console, cycle)

	for {
		select {
		case <-ctx.Done():
			slog.Info("trading stopped (signal)", "cycles", cycle)
			return nil
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("stop file detected, shutting down", "cycles", cycle)
				_ = os.Remove(stopFile)
				return errStopFile
			}
			cycle++
			runLoggedCycle(ctx, eng, console, cycle)
		}
	}
}

// runLoggedCycle no aborta el loop: un ciclo fallido se reintenta en el siguiente tick.
func runLoggedCycle(ctx context.Context, eng *engine.Engine, console *notify.Console, cycle int) {
	if err := runCycle(ctx, eng, console); err != nil {
		slog.Error("cycle failed", "cycle", cycle, "err", err)
	}
}

func runCycle(ctx context.Context, eng *engine.Engine, console *notify.Console) error {
	res, err := eng.RunCycle(ctx)
	if err != nil {
		return err
	}
	return console.NotifyCycle(ctx, res.Actions, res.Report)
}
