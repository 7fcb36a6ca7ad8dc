package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/application/report"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Report values the persisted ledger. When the market fetch fails positions
// are valued at their average price instead of failing the report.
func (e *Engine) Report(ctx context.Context) (domain.Report, error) {
	l, byID, now := e.snapshotInputs(ctx)
	if err := ctx.Err(); err != nil {
		return domain.Report{}, fmt.Errorf("engine.Report: %w", err)
	}
	return report.Build(l, byID, now), nil
}

// Weekly returns the realized-performance summary.
func (e *Engine) Weekly(ctx context.Context) (domain.WeeklySummary, error) {
	l, byID, now := e.snapshotInputs(ctx)
	if err := ctx.Err(); err != nil {
		return domain.WeeklySummary{}, fmt.Errorf("engine.Weekly: %w", err)
	}
	return report.Weekly(l, report.Build(l, byID, now)), nil
}

// TakeSnapshot records today's value in the ledger, replacing an earlier
// snapshot for the same date, and persists it.
func (e *Engine) TakeSnapshot(ctx context.Context) (domain.DailySnapshot, error) {
	l, byID, now := e.snapshotInputs(ctx)
	snap := report.Snapshot(report.Build(l, byID, now), now)
	l.PutSnapshot(snap)
	if err := e.d.Ledgers.Save(ctx, l); err != nil {
		return domain.DailySnapshot{}, fmt.Errorf("engine.TakeSnapshot: %w", err)
	}
	slog.Info("engine: snapshot taken", "date", snap.Date, "total_value", snap.TotalValue)
	return snap, nil
}

// Reset replaces the persisted ledger with a fresh one at the starting balance.
func (e *Engine) Reset(ctx context.Context) (*domain.Ledger, error) {
	l := domain.NewLedger(e.cfg.StartingBalance, e.d.Now())
	if err := e.d.Ledgers.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("engine.Reset: %w", err)
	}
	slog.Warn("engine: ledger reset", "balance", l.Balance)
	return l, nil
}

func (e *Engine) snapshotInputs(ctx context.Context) (*domain.Ledger, map[string]domain.Market, time.Time) {
	now := e.d.Now()
	l := e.loadLedger(ctx, now)
	markets, err := e.fetch(ctx)
	if err != nil {
		slog.Warn("engine: valuing at average prices", "err", err)
		return l, nil, now
	}
	return l, domain.IndexMarkets(markets), now
}
