// Package risk filters strategy candidates against portfolio-wide limits
// and sizes the tickets that pass.
package risk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/ports"
	"github.com/alejandrodnm/polyclaw/internal/strategy"
)

var (
	ErrMaxPositions      = errors.New("global position cap reached")
	ErrStrategyCap       = errors.New("strategy position cap reached")
	ErrTopicCap          = errors.New("topic position cap reached")
	ErrTopicSideConflict = errors.New("opposite side already held on topic")
	ErrBelowMinTicket    = errors.New("ticket below strategy minimum")
)

// Limits are the portfolio-wide constraints.
type Limits struct {
	MaxPositions      int
	MinReserve        float64
	MaxTopicPositions int
}

// DefaultLimits returns 25 positions, a 200 USDC reserve and 2 positions per topic.
func DefaultLimits() Limits {
	return Limits{MaxPositions: 25, MinReserve: 200, MaxTopicPositions: 2}
}

// Gate evaluates candidates against the live ledger. It never mutates it.
type Gate struct {
	limits     Limits
	classifier ports.Classifier
}

func NewGate(limits Limits, classifier ports.Classifier) *Gate {
	return &Gate{limits: limits, classifier: classifier}
}

// Check returns nil when c may be opened, or one of the typed rejection errors.
func (g *Gate) Check(c domain.Candidate, p strategy.Params, l *domain.Ledger, now time.Time) error {
	if n := len(l.Positions); n >= g.limits.MaxPositions {
		return fmt.Errorf("risk.Check: %d open: %w", n, ErrMaxPositions)
	}
	if p.MaxPositions > 0 {
		if n := l.CountByStrategy(c.Strategy); n >= p.MaxPositions {
			return fmt.Errorf("risk.Check: %s has %d: %w", c.Strategy, n, ErrStrategyCap)
		}
	}
	return g.checkTopics(c, l, now)
}

func (g *Gate) checkTopics(c domain.Candidate, l *domain.Ledger, now time.Time) error {
	if len(c.Class.Topics) == 0 {
		return nil
	}

	type held struct {
		count int
		sides map[domain.Side]struct{}
	}
	byTopic := make(map[string]*held)
	for _, key := range l.SortedKeys() {
		pos := l.Positions[key]
		for _, t := range g.classifier.Classify(pos.Question, now).Topics {
			h, ok := byTopic[t]
			if !ok {
				h = &held{sides: make(map[domain.Side]struct{})}
				byTopic[t] = h
			}
			h.count++
			h.sides[pos.Side] = struct{}{}
		}
	}

	for _, t := range c.Class.Topics {
		h, ok := byTopic[t]
		if !ok {
			continue
		}
		if h.count >= g.limits.MaxTopicPositions {
			return fmt.Errorf("risk.Check: topic %s has %d: %w", t, h.count, ErrTopicCap)
		}
		if _, opp := h.sides[c.Side.Opposite()]; opp {
			return fmt.Errorf("risk.Check: topic %s side %s: %w", t, c.Side, ErrTopicSideConflict)
		}
	}
	return nil
}

// Size returns the ticket for a strategy given the current balance:
// min(pct*balance or MaxTicket, balance-reserve), rounded to cents.
// Below MinTicket it returns ErrBelowMinTicket.
func (g *Gate) Size(p strategy.Params, balance float64) (float64, error) {
	want := balance * p.PositionPct
	if p.MaxTicket > 0 {
		want = p.MaxTicket
	}
	amount := domain.RoundCents(math.Min(want, balance-g.limits.MinReserve))
	if amount < p.MinTicket || amount <= 0 {
		return amount, fmt.Errorf("risk.Size: %.2f < %.2f: %w", amount, p.MinTicket, ErrBelowMinTicket)
	}
	return amount, nil
}
