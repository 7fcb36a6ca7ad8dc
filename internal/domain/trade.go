package domain

import "time"

// TradeAction indica si un registro es una compra o una venta simulada.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// ExitReason explica por qué se cerró una posición.
type ExitReason string

const (
	ExitSettled    ExitReason = "settled"
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitManual     ExitReason = "manual"
)

// TradeRecord es una entrada inmutable del historial del ledger.
// Proceeds, Profit y ExitReason solo se rellenan en ventas.
type TradeRecord struct {
	ID         string
	Action     TradeAction
	MarketID   string
	Question   string
	Side       Side
	Price      float64
	Amount     float64 // USDC gastados (buy) o recibidos (sell)
	Shares     float64
	Strategy   StrategyTag
	At         time.Time
	Proceeds   float64
	Profit     float64
	ExitReason ExitReason
}

// IsSell devuelve true si el registro es una venta.
func (t TradeRecord) IsSell() bool {
	return t.Action == ActionSell
}
