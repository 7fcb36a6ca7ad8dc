package domain

import "time"

// PositionDetail is one valued open position inside a Report.
type PositionDetail struct {
	Key          string      `json:"key"`
	MarketID     string      `json:"market_id"`
	Question     string      `json:"question"`
	Side         Side        `json:"side"`
	Shares       float64     `json:"shares"`
	AvgPrice     float64     `json:"avg_price"`
	CurrentPrice float64     `json:"current_price"`
	Value        float64     `json:"value"`
	PnL          float64     `json:"pnl"`
	PnLPct       float64     `json:"pnl_pct"`
	Strategy     StrategyTag `json:"strategy"`
	Stale        bool        `json:"stale"` // valued at average price (market not in snapshot)
}

// TradeSummary is the compact trade view embedded in reports.
type TradeSummary struct {
	ID         string      `json:"id"`
	Action     TradeAction `json:"action"`
	MarketID   string      `json:"market_id"`
	Question   string      `json:"question"`
	Side       Side        `json:"side"`
	Price      float64     `json:"price"`
	Amount     float64     `json:"amount"`
	Strategy   StrategyTag `json:"strategy"`
	Profit     float64     `json:"profit,omitempty"`
	ExitReason ExitReason  `json:"exit_reason,omitempty"`
	At         time.Time   `json:"time"`
}

// Report is a point-in-time valuation of the ledger.
type Report struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Balance         float64          `json:"balance"`
	PositionsValue  float64          `json:"positions_value"`
	TotalValue      float64          `json:"total_value"`
	TotalPnL        float64          `json:"total_pnl"`
	TotalPnLPct     float64          `json:"total_pnl_pct"`
	Positions       []PositionDetail `json:"positions"`
	PositionCount   int              `json:"position_count"`
	TotalTrades     int              `json:"total_trades"`
	RecentTrades24h int              `json:"recent_trades_24h"`
	RecentTrades    []TradeSummary   `json:"recent_trades"`
}

// StrategyStats aggregates closed trades of one strategy.
type StrategyStats struct {
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Profit float64 `json:"profit"`
}

// WeeklySummary aggregates realized results and the latest snapshots.
type WeeklySummary struct {
	Report         Report                        `json:"report"`
	Wins           int                           `json:"wins"`
	Losses         int                           `json:"losses"`
	WinRate        float64                       `json:"win_rate"`
	RealizedProfit float64                       `json:"realized_profit"`
	StrategyStats  map[StrategyTag]StrategyStats `json:"strategy_stats"`
	Snapshots      []DailySnapshot               `json:"snapshots"`
}

// DailySnapshot records the portfolio value on a calendar date (YYYY-MM-DD).
type DailySnapshot struct {
	Date       string  `json:"date"`
	TotalValue float64 `json:"total_value"`
	PnL        float64 `json:"pnl"`
	Positions  int     `json:"positions"`
}
