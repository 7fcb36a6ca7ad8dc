package strategy

import "github.com/alejandrodnm/polyclaw/internal/domain"

// Params are the tunable constants of one strategy. Zero MaxTicket means the
// ticket is PositionPct of the balance; zero MaxPositions means no sub-cap.
type Params struct {
	PositionPct  float64 // fraction of balance per ticket
	MaxTicket    float64 // fixed ticket size in USDC, overrides PositionPct
	MinTicket    float64
	TakeProfit   float64 // fractional P&L that triggers take_profit, e.g. 0.15
	StopLoss     float64 // negative fraction, e.g. -0.08
	MinVolume    float64 // 24h volume floor
	MaxPositions int
	SettleLow    float64 // price at or below which the position is settled
	SettleHigh   float64 // price at or above which the position is settled
	PerCycle     int     // max entries per cycle

	// Price window, interpreted per strategy (yes price for fear and ls,
	// higher-side price for hp).
	MinPrice float64
	MaxPrice float64

	MinDaysToExpiry int     // ls only; unknown expiry never disqualifies
	EntryDiscount   float64 // ls only: entry = max(yes*EntryDiscount, PriceFloor)
	PriceFloor      float64
}

// ParamsTable maps each strategy to its parameters.
type ParamsTable map[domain.StrategyTag]Params

// For devuelve los parámetros de tag. Un tag desconocido (p.ej. una
// posición abierta a mano) usa los umbrales de fear.
func (t ParamsTable) For(tag domain.StrategyTag) Params {
	if p, ok := t[tag]; ok {
		return p
	}
	if p, ok := DefaultParams()[tag]; ok {
		return p
	}
	if p, ok := t[domain.StrategyFear]; ok {
		return p
	}
	return DefaultParams()[domain.StrategyFear]
}

// DefaultParams returns the built-in table.
func DefaultParams() ParamsTable {
	return ParamsTable{
		domain.StrategyFear: {
			PositionPct: 0.12,
			MinTicket:   30,
			TakeProfit:  0.15,
			StopLoss:    -0.08,
			MinVolume:   100_000,
			SettleLow:   0.01,
			SettleHigh:  0.98,
			PerCycle:    2,
			MinPrice:    0.20,
			MaxPrice:    0.80,
		},
		domain.StrategyHighProb: {
			PositionPct:  0.10,
			MinTicket:    50,
			TakeProfit:   0.04,
			StopLoss:     -0.06,
			MinVolume:    200_000,
			MaxPositions: 5,
			SettleLow:    0.01,
			SettleHigh:   0.98,
			PerCycle:     2,
			MinPrice:     0.88,
			MaxPrice:     0.96,
		},
		domain.StrategyMomentum: {
			PositionPct: 0.10,
			MinTicket:   30,
			TakeProfit:  0.12,
			StopLoss:    -0.08,
			SettleLow:   0.01,
			SettleHigh:  0.98,
			PerCycle:    2,
		},
		domain.StrategyLongshot: {
			MaxTicket:       80,
			MinTicket:       5,
			TakeProfit:      2.0,
			StopLoss:        -0.60,
			MaxPositions:    8,
			SettleLow:       0.002,
			SettleHigh:      0.98,
			PerCycle:        2,
			MinPrice:        0.001,
			MaxPrice:        0.05,
			MinDaysToExpiry: 7,
			EntryDiscount:   0.75,
			PriceFloor:      0.001,
		},
	}
}
