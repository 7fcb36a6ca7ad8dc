package domain

// ActionKind distinguishes entries from exits in a cycle's action list.
type ActionKind string

const (
	ActionEntry ActionKind = "entry"
	ActionExit  ActionKind = "exit"
)

// Action is one executed step of a cycle, in execution order.
type Action struct {
	Kind     ActionKind  `json:"kind"`
	Strategy StrategyTag `json:"strategy"`
	MarketID string      `json:"market_id"`
	Question string      `json:"question"`
	Side     Side        `json:"side"`
	Price    float64     `json:"price"`
	Amount   float64     `json:"amount"`
	Shares   float64     `json:"shares"`
	Score    int         `json:"score,omitempty"`
	Reason   ExitReason  `json:"reason,omitempty"`
	PnLPct   float64     `json:"pnl_pct,omitempty"`
	Profit   float64     `json:"profit,omitempty"`
}
