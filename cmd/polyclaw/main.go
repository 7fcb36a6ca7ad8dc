package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyclaw/config"
	"github.com/alejandrodnm/polyclaw/internal/adapters/notify"
	"github.com/alejandrodnm/polyclaw/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyclaw/internal/application/engine"
	"github.com/alejandrodnm/polyclaw/internal/classify"
	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/metrics"
	"github.com/alejandrodnm/polyclaw/internal/risk"
	"github.com/alejandrodnm/polyclaw/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	report := flag.Bool("report", false, "print the portfolio report and exit")
	weekly := flag.Bool("weekly", false, "print the weekly summary and exit")
	snapshot := flag.Bool("snapshot", false, "record today's snapshot and exit")
	reset := flag.Bool("reset", false, "reset the ledger to the starting balance and exit")
	triggerFile := flag.String("trigger", "", "publish the alerts in this JSON file as a momentum trigger and exit")
	serve := flag.Bool("serve", false, "serve the HTTP API alongside the trading loop")
	verbose := flag.Bool("verbose", false, "set log level to debug and print positions every cycle")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	output := flag.String("output", "table", "console output: table|json")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "driver", cfg.Storage.Driver, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer st.Close()

	classifier, err := newClassifier(cfg.Classifier)
	if err != nil {
		slog.Error("failed to build classifier", "err", err)
		os.Exit(1)
	}

	params := cfg.StrategyParams()
	m := metrics.New()
	eng := engine.New(engine.Deps{
		Markets:    polymarket.NewClient(cfg.API.GammaBase, cfg.APITimeout()),
		Ledgers:    st.ledgers,
		Triggers:   st.triggers,
		Classifier: classifier,
		Gate:       risk.NewGate(cfg.RiskLimits(), classifier),
		Scorers:    strategy.NewRegistry(params),
		Params:     params,
		Metrics:    m,
	}, engine.Config{
		StartingBalance:  cfg.Trader.StartingBalance,
		MarketLimit:      cfg.Trader.MarketLimit,
		Order:            cfg.StrategyOrder(),
		TriggerStaleness: cfg.TriggerStaleness(),
		AutoSnapshot:     cfg.AutoSnapshot(),
	})

	console := notify.NewConsole(notify.Format(*output), *verbose)

	switch {
	case *report:
		err = runReport(ctx, eng, console)
	case *weekly:
		err = runWeekly(ctx, eng, console)
	case *snapshot:
		err = runSnapshot(ctx, eng, console)
	case *reset:
		err = runReset(ctx, eng)
	case *triggerFile != "":
		err = runPublishTrigger(ctx, eng, *triggerFile)
	case *once:
		err = runCycle(ctx, eng, console)
	default:
		slog.Info("polyclaw starting",
			"config", *configPath,
			"interval", cfg.Interval(),
			"storage", cfg.Storage.Driver,
			"triggers", cfg.Triggers.Driver,
			"serve", *serve,
		)
		err = runTrader(ctx, eng, console, m, cfg, *serve)
	}
	if err != nil {
		slog.Error("polyclaw exited with error", "err", err)
		os.Exit(1)
	}
}

// loadConfig usa los valores por defecto si el archivo no existe.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func newClassifier(cfg config.ClassifierConfig) (*classify.Keyword, error) {
	if cfg.VocabularyFile == "" {
		return classify.NewDefault(), nil
	}
	v, err := classify.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return nil, err
	}
	return classify.New(v)
}

func runReport(ctx context.Context, eng *engine.Engine, console *notify.Console) error {
	r, err := eng.Report(ctx)
	if err != nil {
		return err
	}
	return console.PrintReport(r)
}

func runWeekly(ctx context.Context, eng *engine.Engine, console *notify.Console) error {
	w, err := eng.Weekly(ctx)
	if err != nil {
		return err
	}
	return console.PrintWeekly(w)
}

func runSnapshot(ctx context.Context, eng *engine.Engine, console *notify.Console) error {
	s, err := eng.TakeSnapshot(ctx)
	if err != nil {
		return err
	}
	return console.PrintSnapshot(s)
}

func runReset(ctx context.Context, eng *engine.Engine) error {
	l, err := eng.Reset(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("ledger reset: balance $%.2f\n", l.Balance)
	return nil
}

// runPublishTrigger acepta un array de alertas o un objeto {"alerts": [...]}.
func runPublishTrigger(ctx context.Context, eng *engine.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read trigger file: %w", err)
	}
	var alerts []domain.PriceAlert
	if err := json.Unmarshal(data, &alerts); err != nil {
		var doc struct {
			Alerts []domain.PriceAlert `json:"alerts"`
		}
		if err2 := json.Unmarshal(data, &doc); err2 != nil {
			return fmt.Errorf("parse trigger file: %w", err)
		}
		alerts = doc.Alerts
	}
	if len(alerts) == 0 {
		return fmt.Errorf("trigger file %s has no alerts", path)
	}

	t, err := eng.PublishTrigger(ctx, alerts)
	if err != nil {
		return err
	}
	slog.Info("trigger published", "id", t.ID, "alerts", len(t.Alerts))
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
