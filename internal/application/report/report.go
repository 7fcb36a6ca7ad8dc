// Package report values a ledger against a market snapshot. Every function
// here is pure: the same ledger, prices and clock always give the same output.
package report

import (
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

const (
	recentTradesShown = 5
	weeklySnapshots   = 7
	recentWindow      = 24 * time.Hour
)

// Build values every open position at its current side price. Positions whose
// market is absent from markets are valued at their average price.
func Build(l *domain.Ledger, markets map[string]domain.Market, now time.Time) domain.Report {
	rep := domain.Report{
		GeneratedAt: now,
		Balance:     domain.RoundCents(l.Balance),
		Positions:   make([]domain.PositionDetail, 0, len(l.Positions)),
	}

	var positionsValue float64
	for _, key := range l.SortedKeys() {
		pos := l.Positions[key]
		d := valuePosition(key, pos, markets)
		positionsValue += pos.Shares * d.CurrentPrice
		rep.Positions = append(rep.Positions, d)
	}

	totalValue := l.Balance + positionsValue
	totalPnL := totalValue - l.StartingBalance

	rep.PositionsValue = domain.RoundCents(positionsValue)
	rep.TotalValue = domain.RoundCents(totalValue)
	rep.TotalPnL = domain.RoundCents(totalPnL)
	if l.StartingBalance > 0 {
		rep.TotalPnLPct = domain.Round(totalPnL/l.StartingBalance*100, 2)
	}
	rep.PositionCount = len(rep.Positions)
	rep.TotalTrades = len(l.History)
	rep.RecentTrades = recentTrades(l.History, now)
	rep.RecentTrades24h = countSince(l.History, now.Add(-recentWindow))
	return rep
}

func valuePosition(key string, pos *domain.Position, markets map[string]domain.Market) domain.PositionDetail {
	current, stale := pos.AvgPrice, true
	if m, ok := markets[pos.MarketID]; ok {
		current, stale = m.PriceFor(pos.Side), false
	}

	value := pos.Shares * current
	cost := pos.CostBasis()
	pnl := value - cost
	var pnlPct float64
	if cost > 0 {
		pnlPct = domain.Round(pnl/cost*100, 1)
	}

	return domain.PositionDetail{
		Key:          key,
		MarketID:     pos.MarketID,
		Question:     pos.Question,
		Side:         pos.Side,
		Shares:       domain.RoundCents(pos.Shares),
		AvgPrice:     domain.Round(pos.AvgPrice, 4),
		CurrentPrice: domain.Round(current, 4),
		Value:        domain.RoundCents(value),
		PnL:          domain.RoundCents(pnl),
		PnLPct:       pnlPct,
		Strategy:     pos.Strategy,
		Stale:        stale,
	}
}

func countSince(history []domain.TradeRecord, since time.Time) int {
	n := 0
	for _, t := range history {
		if t.At.After(since) {
			n++
		}
	}
	return n
}

// recentTrades returns the last recentTradesShown trades of the past 24h, oldest first.
func recentTrades(history []domain.TradeRecord, now time.Time) []domain.TradeSummary {
	since := now.Add(-recentWindow)
	var recent []domain.TradeRecord
	for _, t := range history {
		if t.At.After(since) {
			recent = append(recent, t)
		}
	}
	if len(recent) > recentTradesShown {
		recent = recent[len(recent)-recentTradesShown:]
	}

	out := make([]domain.TradeSummary, 0, len(recent))
	for _, t := range recent {
		out = append(out, domain.TradeSummary{
			ID:         t.ID,
			Action:     t.Action,
			MarketID:   t.MarketID,
			Question:   t.Question,
			Side:       t.Side,
			Price:      t.Price,
			Amount:     domain.RoundCents(t.Amount),
			Strategy:   t.Strategy,
			Profit:     domain.RoundCents(t.Profit),
			ExitReason: t.ExitReason,
			At:         t.At,
		})
	}
	return out
}

// Weekly aggregates realized results over every sell in the history.
// A sell with profit > 0 is a win, < 0 a loss; break-even counts as neither.
func Weekly(l *domain.Ledger, rep domain.Report) domain.WeeklySummary {
	ws := domain.WeeklySummary{
		Report:        rep,
		StrategyStats: make(map[domain.StrategyTag]domain.StrategyStats),
	}

	var realized float64
	for _, t := range l.History {
		if !t.IsSell() {
			continue
		}
		st := ws.StrategyStats[t.Strategy]
		st.Trades++
		switch {
		case t.Profit > 0:
			ws.Wins++
			st.Wins++
		case t.Profit < 0:
			ws.Losses++
			st.Losses++
		}
		st.Profit += t.Profit
		realized += t.Profit
		ws.StrategyStats[t.Strategy] = st
	}

	for tag, st := range ws.StrategyStats {
		st.Profit = domain.RoundCents(st.Profit)
		ws.StrategyStats[tag] = st
	}
	ws.RealizedProfit = domain.RoundCents(realized)
	if decided := ws.Wins + ws.Losses; decided > 0 {
		ws.WinRate = domain.Round(float64(ws.Wins)/float64(decided)*100, 1)
	}

	snaps := l.Snapshots
	if len(snaps) > weeklySnapshots {
		snaps = snaps[len(snaps)-weeklySnapshots:]
	}
	ws.Snapshots = append([]domain.DailySnapshot{}, snaps...)
	return ws
}

// Snapshot returns the daily snapshot for the report's date.
func Snapshot(rep domain.Report, now time.Time) domain.DailySnapshot {
	return domain.DailySnapshot{
		Date:       now.Format("2006-01-02"),
		TotalValue: rep.TotalValue,
		PnL:        rep.TotalPnL,
		Positions:  rep.PositionCount,
	}
}
