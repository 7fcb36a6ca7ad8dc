package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// liveTrigger returns the alerts of the latest trigger when it is pending and
// fresh. Any other state yields nil and leaves the trigger untouched.
func (e *Engine) liveTrigger(ctx context.Context, now time.Time) (map[string]domain.PriceAlert, *domain.Trigger) {
	if e.d.Triggers == nil {
		return nil, nil
	}
	t, err := e.d.Triggers.Latest(ctx)
	switch {
	case errors.Is(err, domain.ErrTriggerNotFound):
		return nil, nil
	case err != nil:
		slog.Warn("engine: trigger store unavailable", "err", err)
		return nil, nil
	}
	if !t.Actionable(now, e.cfg.TriggerStaleness) {
		slog.Debug("engine: trigger ignored", "id", t.ID, "status", t.Status, "age", now.Sub(t.TriggeredAt).Round(time.Second))
		return nil, nil
	}
	return t.AlertsByMarket(), t
}

func (e *Engine) markProcessed(ctx context.Context, t *domain.Trigger) bool {
	if err := e.d.Triggers.MarkProcessed(ctx, t.ID); err != nil {
		slog.Warn("engine: could not mark trigger processed", "id", t.ID, "err", err)
		return false
	}
	slog.Info("engine: trigger processed", "id", t.ID, "alerts", len(t.Alerts))
	return true
}

// PublishTrigger stores a new pending trigger built from alerts.
func (e *Engine) PublishTrigger(ctx context.Context, alerts []domain.PriceAlert) (domain.Trigger, error) {
	if e.d.Triggers == nil {
		return domain.Trigger{}, errors.New("engine.PublishTrigger: no trigger store configured")
	}
	t := domain.Trigger{
		ID:          e.d.NewID(),
		Alerts:      alerts,
		TriggeredAt: e.d.Now(),
		Status:      domain.TriggerPending,
	}
	if err := e.d.Triggers.Publish(ctx, t); err != nil {
		return domain.Trigger{}, err
	}
	return t, nil
}
