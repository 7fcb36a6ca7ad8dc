package domain

import (
	"fmt"
	"sort"
	"time"
)

// DustShares is the remaining-share threshold below which a position is removed after a sell.
const DustShares = 0.01

// MaxSnapshots bounds the daily snapshot history kept in the ledger.
const MaxSnapshots = 90

// Position is an open simulated holding on one side of one market.
// Invariant: Shares * AvgPrice equals the cumulative cost basis of all buys.
type Position struct {
	MarketID   string
	Question   string
	Side       Side
	Shares     float64
	AvgPrice   float64
	OpenedAt   time.Time
	Strategy   StrategyTag
	EntryScore int
}

// Key returns the ledger key for this position.
func (p Position) Key() string {
	return PositionKey(p.MarketID, p.Side)
}

// CostBasis returns shares * average price.
func (p Position) CostBasis() float64 {
	return p.Shares * p.AvgPrice
}

// PositionKey builds the "<marketID>_<side>" key used to index positions.
func PositionKey(marketID string, side Side) string {
	return marketID + "_" + string(side)
}

// Ledger is the whole simulated portfolio. It is loaded, mutated and saved once per cycle.
type Ledger struct {
	StartingBalance float64
	Balance         float64
	Positions       map[string]*Position
	History         []TradeRecord
	Snapshots       []DailySnapshot
	CreatedAt       time.Time
	LastTradeAt     *time.Time
}

// NewLedger returns an empty ledger funded with startingBalance.
func NewLedger(startingBalance float64, now time.Time) *Ledger {
	return &Ledger{
		StartingBalance: startingBalance,
		Balance:         startingBalance,
		Positions:       make(map[string]*Position),
		CreatedAt:       now,
	}
}

// Get returns the position on (marketID, side), or nil.
func (l *Ledger) Get(marketID string, side Side) *Position {
	return l.Positions[PositionKey(marketID, side)]
}

// Holds reports whether the exact (marketID, side) position is open.
func (l *Ledger) Holds(marketID string, side Side) bool {
	_, ok := l.Positions[PositionKey(marketID, side)]
	return ok
}

// SortedKeys returns the position keys in lexical order.
func (l *Ledger) SortedKeys() []string {
	keys := make([]string, 0, len(l.Positions))
	for k := range l.Positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CountByStrategy returns how many open positions carry the given tag.
func (l *Ledger) CountByStrategy(tag StrategyTag) int {
	n := 0
	for _, p := range l.Positions {
		if p.Strategy == tag {
			n++
		}
	}
	return n
}

// BuyOrder describes a simulated purchase.
type BuyOrder struct {
	ID       string
	MarketID string
	Question string
	Side     Side
	Price    float64
	Amount   float64
	Strategy StrategyTag
	Score    int
	At       time.Time
}

// Buy debits Amount from the balance and opens or tops up the position.
// On top-up the average price is the share-weighted merge of both lots.
func (l *Ledger) Buy(o BuyOrder) (TradeRecord, error) {
	if !o.Side.Valid() {
		return TradeRecord{}, fmt.Errorf("ledger.Buy: side %q: %w", o.Side, ErrInvalidSide)
	}
	if !ValidPrice(o.Price) {
		return TradeRecord{}, fmt.Errorf("ledger.Buy: price %.4f: %w", o.Price, ErrInvalidPrice)
	}
	if o.Amount <= 0 {
		return TradeRecord{}, fmt.Errorf("ledger.Buy: amount %.2f: %w", o.Amount, ErrInvalidAmount)
	}
	if o.Amount > l.Balance {
		return TradeRecord{}, fmt.Errorf("ledger.Buy: need %.2f have %.2f: %w", o.Amount, l.Balance, ErrInsufficientFunds)
	}

	shares := o.Amount / o.Price
	l.Balance -= o.Amount

	key := PositionKey(o.MarketID, o.Side)
	if pos, ok := l.Positions[key]; ok {
		totalShares := pos.Shares + shares
		pos.AvgPrice = (pos.Shares*pos.AvgPrice + shares*o.Price) / totalShares
		pos.Shares = totalShares
	} else {
		l.Positions[key] = &Position{
			MarketID:   o.MarketID,
			Question:   o.Question,
			Side:       o.Side,
			Shares:     shares,
			AvgPrice:   o.Price,
			OpenedAt:   o.At,
			Strategy:   o.Strategy,
			EntryScore: o.Score,
		}
	}

	rec := TradeRecord{
		ID:       o.ID,
		Action:   ActionBuy,
		MarketID: o.MarketID,
		Question: o.Question,
		Side:     o.Side,
		Price:    o.Price,
		Amount:   o.Amount,
		Shares:   shares,
		Strategy: o.Strategy,
		At:       o.At,
	}
	l.record(rec)
	return rec, nil
}

// SellOrder describes a simulated sale. Shares <= 0 sells the whole position.
type SellOrder struct {
	ID       string
	MarketID string
	Side     Side
	Shares   float64
	Price    float64
	Reason   ExitReason
	At       time.Time
}

// Sell credits shares*price, records the realized profit against the average
// price and shrinks the position, removing it once fewer than DustShares remain.
func (l *Ledger) Sell(o SellOrder) (TradeRecord, error) {
	key := PositionKey(o.MarketID, o.Side)
	pos, ok := l.Positions[key]
	if !ok {
		return TradeRecord{}, fmt.Errorf("ledger.Sell: %s: %w", key, ErrPositionNotFound)
	}
	if o.Price < 0 || o.Price > 1 {
		return TradeRecord{}, fmt.Errorf("ledger.Sell: price %.4f: %w", o.Price, ErrInvalidPrice)
	}
	shares := o.Shares
	if shares <= 0 {
		shares = pos.Shares
	}
	if shares > pos.Shares {
		return TradeRecord{}, fmt.Errorf("ledger.Sell: want %.4f have %.4f: %w", shares, pos.Shares, ErrInsufficientShares)
	}

	proceeds := shares * o.Price
	profit := (o.Price - pos.AvgPrice) * shares
	l.Balance += proceeds

	pos.Shares -= shares
	if pos.Shares < DustShares {
		delete(l.Positions, key)
	}

	rec := TradeRecord{
		ID:         o.ID,
		Action:     ActionSell,
		MarketID:   o.MarketID,
		Question:   pos.Question,
		Side:       o.Side,
		Price:      o.Price,
		Amount:     proceeds,
		Shares:     shares,
		Strategy:   pos.Strategy,
		At:         o.At,
		Proceeds:   proceeds,
		Profit:     profit,
		ExitReason: o.Reason,
	}
	l.record(rec)
	return rec, nil
}

func (l *Ledger) record(rec TradeRecord) {
	l.History = append(l.History, rec)
	at := rec.At
	l.LastTradeAt = &at
}

// PutSnapshot stores s, replacing any snapshot for the same date, and keeps
// at most MaxSnapshots entries (oldest dropped first).
func (l *Ledger) PutSnapshot(s DailySnapshot) {
	for i := range l.Snapshots {
		if l.Snapshots[i].Date == s.Date {
			l.Snapshots[i] = s
			return
		}
	}
	l.Snapshots = append(l.Snapshots, s)
	if n := len(l.Snapshots); n > MaxSnapshots {
		l.Snapshots = append([]DailySnapshot(nil), l.Snapshots[n-MaxSnapshots:]...)
	}
}

// HasSnapshot reports whether a snapshot exists for date (YYYY-MM-DD).
func (l *Ledger) HasSnapshot(date string) bool {
	for _, s := range l.Snapshots {
		if s.Date == date {
			return true
		}
	}
	return false
}
