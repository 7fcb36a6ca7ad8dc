package engine

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/strategy"
)

// evaluateExits closes every position whose side price hit its strategy's
// settlement band, take-profit or stop-loss. Positions are visited in key order.
func (e *Engine) evaluateExits(l *domain.Ledger, byID map[string]domain.Market, now time.Time) []domain.Action {
	var actions []domain.Action
	for _, key := range l.SortedKeys() {
		pos := l.Positions[key]
		m, ok := byID[pos.MarketID]
		if !ok {
			continue
		}
		price := m.PriceFor(pos.Side)
		if !domain.ValidPrice(price) {
			slog.Debug("engine: skipping exit on pricing anomaly", "key", key, "price", price)
			continue
		}

		p := e.d.Params.For(pos.Strategy)
		pnlPct := pnlFraction(price, pos.AvgPrice)
		reason, exit := exitReason(price, pnlPct, p)
		if !exit {
			continue
		}

		question, strat := pos.Question, pos.Strategy
		rec, err := l.Sell(domain.SellOrder{
			ID:       e.d.NewID(),
			MarketID: pos.MarketID,
			Side:     pos.Side,
			Price:    price,
			Reason:   reason,
			At:       now,
		})
		if err != nil {
			slog.Warn("engine: exit failed", "key", key, "err", err)
			continue
		}

		slog.Info("engine: exit",
			"strategy", strat,
			"market", domain.TruncateQuestion(question, pos.MarketID, 50),
			"side", pos.Side,
			"reason", reason,
			"price", price,
			"profit", domain.RoundCents(rec.Profit),
		)
		actions = append(actions, domain.Action{
			Kind:     domain.ActionExit,
			Strategy: strat,
			MarketID: rec.MarketID,
			Question: question,
			Side:     rec.Side,
			Price:    price,
			Amount:   domain.RoundCents(rec.Proceeds),
			Shares:   rec.Shares,
			Reason:   reason,
			PnLPct:   domain.Round(pnlPct*100, 1),
			Profit:   domain.RoundCents(rec.Profit),
		})
	}
	return actions
}

func pnlFraction(price, avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	return (price - avg) / avg
}

// exitReason applies the rules in priority order: settlement, take-profit, stop-loss.
func exitReason(price, pnlPct float64, p strategy.Params) (domain.ExitReason, bool) {
	switch {
	case price <= p.SettleLow || price >= p.SettleHigh:
		return domain.ExitSettled, true
	case pnlPct >= p.TakeProfit:
		return domain.ExitTakeProfit, true
	case pnlPct <= p.StopLoss:
		return domain.ExitStopLoss, true
	}
	return "", false
}
