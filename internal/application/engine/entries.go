package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/risk"
)

// enter opens up to PerCycle positions from the ranked candidates of one
// strategy. Gate rejections skip the candidate; a ticket below the minimum
// ends the strategy's batch because later candidates would size the same.
func (e *Engine) enter(res *CycleResult, tag domain.StrategyTag, candidates []domain.Candidate, l *domain.Ledger, now time.Time) {
	p := e.d.Params.For(tag)
	opened := 0

	for _, c := range candidates {
		if opened >= p.PerCycle {
			break
		}
		if err := e.d.Gate.Check(c, p, l, now); err != nil {
			res.reject(err)
			slog.Debug("engine: candidate rejected", "strategy", tag, "market", c.Market.ID, "err", err)
			continue
		}
		amount, err := e.d.Gate.Size(p, l.Balance)
		if err != nil {
			res.reject(err)
			slog.Info("engine: ticket below minimum, stopping strategy", "strategy", tag, "amount", amount, "min", p.MinTicket)
			break
		}

		_, err = l.Buy(domain.BuyOrder{
			ID:       e.d.NewID(),
			MarketID: c.Market.ID,
			Question: c.Market.Question,
			Side:     c.Side,
			Price:    c.Price,
			Amount:   amount,
			Strategy: tag,
			Score:    c.Score,
			At:       now,
		})
		switch {
		case errors.Is(err, domain.ErrInvalidPrice):
			slog.Debug("engine: skipping candidate on pricing anomaly", "market", c.Market.ID, "price", c.Price)
			continue
		case err != nil:
			slog.Warn("engine: entry failed", "strategy", tag, "market", c.Market.ID, "err", err)
			continue
		}

		slog.Info("engine: entry",
			"strategy", tag,
			"market", domain.TruncateQuestion(c.Market.Question, c.Market.ID, 50),
			"side", c.Side,
			"price", c.Price,
			"amount", amount,
			"score", c.Score,
		)
		opened++
		res.Entries++
		res.Actions = append(res.Actions, domain.Action{
			Kind:     domain.ActionEntry,
			Strategy: tag,
			MarketID: c.Market.ID,
			Question: c.Market.Question,
			Side:     c.Side,
			Price:    c.Price,
			Amount:   amount,
			Shares:   amount / c.Price,
			Score:    c.Score,
		})
	}
}

// rejectionReason maps a gate error to a short label for counters.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, risk.ErrMaxPositions):
		return "max_positions"
	case errors.Is(err, risk.ErrStrategyCap):
		return "strategy_cap"
	case errors.Is(err, risk.ErrTopicCap):
		return "topic_cap"
	case errors.Is(err, risk.ErrTopicSideConflict):
		return "topic_side_conflict"
	case errors.Is(err, risk.ErrBelowMinTicket):
		return "below_min_ticket"
	}
	return "other"
}

func (r *CycleResult) reject(err error) {
	if r.Rejections == nil {
		r.Rejections = make(map[string]int)
	}
	r.Rejections[rejectionReason(err)]++
}
