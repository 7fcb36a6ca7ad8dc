package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/adapters/notify"
	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var genAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleReport() domain.Report {
	return domain.Report{
		GeneratedAt:    genAt,
		Balance:        8800,
		PositionsValue: 1266.67,
		TotalValue:     10066.67,
		TotalPnL:       66.67,
		TotalPnLPct:    0.67,
		Positions: []domain.PositionDetail{{
			Key: "m1_no", MarketID: "m1", Question: "Will the US strike Iran by March 31?",
			Side: domain.SideNo, Shares: 2666.67, AvgPrice: 0.45, CurrentPrice: 0.475,
			Value: 1266.67, PnL: 66.67, PnLPct: 5.6, Strategy: domain.StrategyFear,
		}},
		PositionCount: 1,
		TotalTrades:   1,
	}
}

func TestConsole_NotifyCycle_NoActions(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, notify.FormatTable, false)

	require.NoError(t, c.NotifyCycle(context.Background(), nil, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "no trades")
	assert.Contains(t, out, "$10066.67")
	assert.NotContains(t, out, "Will the US strike Iran", "positions only in verbose mode")
}

func TestConsole_NotifyCycle_Actions(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, notify.FormatTable, true)

	actions := []domain.Action{
		{Kind: domain.ActionExit, Strategy: domain.StrategyHighProb, MarketID: "m2", Question: "Fed holds?", Side: domain.SideYes, Price: 0.99, Reason: domain.ExitSettled, PnLPct: 10, Profit: 90},
		{Kind: domain.ActionEntry, Strategy: domain.StrategyFear, MarketID: "m1", Question: "Will the US strike Iran by March 31?", Side: domain.SideNo, Price: 0.45, Amount: 1200, Score: 45},
	}
	require.NoError(t, c.NotifyCycle(context.Background(), actions, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "2 trades")
	assert.Contains(t, out, "SELL [hp] YES Fed holds?")
	assert.Contains(t, out, "settled, +10.0%")
	assert.Contains(t, out, "BUY  [fear] NO")
	assert.Contains(t, out, "$1200.00 score 45")
	assert.Contains(t, out, "Will the US strike Iran")
}

func TestConsole_PrintReport_StaleMarker(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, notify.FormatTable, false)

	r := sampleReport()
	r.Positions[0].Stale = true
	r.RecentTrades = []domain.TradeSummary{{Action: domain.ActionSell, MarketID: "m3", Question: "Old one", Side: domain.SideYes, Price: 0.2, Amount: 100, Strategy: domain.StrategyLongshot, Profit: -20, ExitReason: domain.ExitStopLoss, At: genAt}}
	require.NoError(t, c.PrintReport(r))

	out := buf.String()
	assert.Contains(t, out, "PORTFOLIO")
	assert.Contains(t, out, "0.475*")
	assert.Contains(t, out, "stop_loss -$20.00")
}

func TestConsole_PrintWeekly(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, notify.FormatTable, false)

	w := domain.WeeklySummary{
		Report:         sampleReport(),
		Wins:           3,
		Losses:         1,
		WinRate:        75,
		RealizedProfit: 120.5,
		StrategyStats: map[domain.StrategyTag]domain.StrategyStats{
			domain.StrategyFear:     {Trades: 3, Wins: 3, Profit: 150.5},
			domain.StrategyLongshot: {Trades: 1, Losses: 1, Profit: -30},
		},
		Snapshots: []domain.DailySnapshot{{Date: "2026-02-28", TotalValue: 10000, Positions: 0}},
	}
	require.NoError(t, c.PrintWeekly(w))

	out := buf.String()
	assert.Contains(t, out, "win rate 75.0%")
	assert.Contains(t, out, "+$120.50")
	assert.Contains(t, out, "-$30.00")
	assert.Contains(t, out, "2026-02-28")
}

func TestConsole_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, notify.FormatJSON, false)

	require.NoError(t, c.PrintReport(sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 8800.0, decoded["balance"])
	assert.Equal(t, 1.0, decoded["position_count"])
}
