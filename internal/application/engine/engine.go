// Package engine runs the paper-trading cycle: fetch markets, close positions
// that hit an exit rule, then let each strategy open new ones under the risk gate.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyclaw/internal/application/report"
	"github.com/alejandrodnm/polyclaw/internal/classify"
	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/ports"
	"github.com/alejandrodnm/polyclaw/internal/risk"
	"github.com/alejandrodnm/polyclaw/internal/strategy"
)

const (
	DefaultStartingBalance = 10000
	DefaultMarketLimit     = 100
)

// Config holds the cycle settings that are not strategy parameters.
type Config struct {
	StartingBalance  float64
	MarketLimit      int
	Order            []domain.StrategyTag
	TriggerStaleness time.Duration
	AutoSnapshot     bool
	ClassifyWorkers  int // <= 0 uses runtime.NumCPU()
}

// Recorder receives cycle outcomes. internal/metrics implements it.
type Recorder interface {
	ObserveCycle(res *CycleResult, took time.Duration)
	CycleFailed(stage string)
}

// Deps are the collaborators of an Engine. Triggers and Metrics are optional.
type Deps struct {
	Markets    ports.MarketProvider
	Ledgers    ports.LedgerStore
	Triggers   ports.TriggerStore
	Classifier ports.Classifier
	Gate       *risk.Gate
	Scorers    strategy.Registry
	Params     strategy.ParamsTable
	Metrics    Recorder
	Now        func() time.Time
	NewID      func() string
}

// Engine runs one cycle at a time against a single ledger.
type Engine struct {
	d   Deps
	cfg Config
}

// New creates an engine, filling unset config and deps with defaults.
func New(d Deps, cfg Config) *Engine {
	if cfg.StartingBalance <= 0 {
		cfg.StartingBalance = DefaultStartingBalance
	}
	if cfg.MarketLimit <= 0 {
		cfg.MarketLimit = DefaultMarketLimit
	}
	if len(cfg.Order) == 0 {
		cfg.Order = domain.AllStrategies
	}
	if cfg.TriggerStaleness <= 0 {
		cfg.TriggerStaleness = domain.DefaultTriggerStaleness
	}
	if d.Params == nil {
		d.Params = strategy.DefaultParams()
	}
	if d.Scorers == nil {
		d.Scorers = strategy.NewRegistry(d.Params)
	}
	if d.Classifier == nil {
		d.Classifier = classify.NewDefault()
	}
	if d.Gate == nil {
		d.Gate = risk.NewGate(risk.DefaultLimits(), d.Classifier)
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return &Engine{d: d, cfg: cfg}
}

// CycleResult contains everything produced by one cycle.
type CycleResult struct {
	StartedAt        time.Time
	Markets          int
	Actions          []domain.Action
	Exits            int
	Entries          int
	Balance          float64
	PositionCount    int
	Rejections       map[string]int
	TriggerProcessed bool
	SnapshotTaken    bool
	Report           domain.Report
}

// RunCycle executes a single cycle. A market fetch failure aborts before the
// ledger is loaded, so nothing is mutated or persisted.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	now := e.d.Now()
	res := &CycleResult{StartedAt: now}

	markets, err := e.fetch(ctx)
	if err != nil {
		e.failed("fetch")
		return nil, fmt.Errorf("engine.RunCycle: %w", err)
	}
	res.Markets = len(markets)

	ledger := e.loadLedger(ctx, now)
	byID := domain.IndexMarkets(markets)

	classified := classifyAll(e.d.Classifier, markets, now, e.cfg.ClassifyWorkers)

	exits := e.evaluateExits(ledger, byID, now)
	res.Actions = append(res.Actions, exits...)
	res.Exits = len(exits)

	alerts, trigger := e.liveTrigger(ctx, now)

	for _, tag := range e.cfg.Order {
		scorer, ok := e.d.Scorers.Get(tag)
		if !ok {
			slog.Warn("engine: unknown strategy in order", "strategy", tag)
			continue
		}
		var tagAlerts map[string]domain.PriceAlert
		if tag == domain.StrategyMomentum {
			if trigger == nil {
				continue
			}
			tagAlerts = alerts
		}

		candidates := strategy.Rank(scorer, classified, ledger, tagAlerts, now)
		if tag == domain.StrategyMomentum {
			res.TriggerProcessed = e.markProcessed(ctx, trigger)
		}

		e.enter(res, tag, candidates, ledger, now)
	}

	rep := report.Build(ledger, byID, now)
	if e.cfg.AutoSnapshot && !ledger.HasSnapshot(now.Format("2006-01-02")) {
		ledger.PutSnapshot(report.Snapshot(rep, now))
		res.SnapshotTaken = true
	}

	if err := e.d.Ledgers.Save(ctx, ledger); err != nil {
		e.failed("save")
		return nil, fmt.Errorf("engine.RunCycle: save ledger: %w", err)
	}

	res.Balance = domain.RoundCents(ledger.Balance)
	res.PositionCount = len(ledger.Positions)
	res.Report = rep

	slog.Info("engine: cycle complete",
		"markets", res.Markets,
		"exits", res.Exits,
		"entries", res.Entries,
		"balance", res.Balance,
		"positions", res.PositionCount,
	)
	if e.d.Metrics != nil {
		e.d.Metrics.ObserveCycle(res, time.Since(start))
	}
	return res, nil
}

func (e *Engine) fetch(ctx context.Context) ([]domain.Market, error) {
	markets, err := e.d.Markets.FetchMarkets(ctx, e.cfg.MarketLimit)
	if err != nil {
		if !errors.Is(err, domain.ErrMarketFetch) {
			err = fmt.Errorf("%w: %v", domain.ErrMarketFetch, err)
		}
		return nil, err
	}
	return markets, nil
}

// loadLedger never fails: a missing or unreadable ledger starts fresh.
func (e *Engine) loadLedger(ctx context.Context, now time.Time) *domain.Ledger {
	l, err := e.d.Ledgers.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrLedgerNotFound):
		slog.Info("engine: no ledger found, starting fresh", "balance", e.cfg.StartingBalance)
		return domain.NewLedger(e.cfg.StartingBalance, now)
	case err != nil:
		slog.Warn("engine: ledger unreadable, starting fresh", "err", err)
		return domain.NewLedger(e.cfg.StartingBalance, now)
	}
	if l.Positions == nil {
		l.Positions = make(map[string]*domain.Position)
	}
	if l.StartingBalance <= 0 {
		l.StartingBalance = e.cfg.StartingBalance
	}
	return l
}

func (e *Engine) failed(stage string) {
	if e.d.Metrics != nil {
		e.d.Metrics.CycleFailed(stage)
	}
}
