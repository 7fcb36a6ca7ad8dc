package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Longshot compra YES muy barato con una orden límite por debajo del mercado.
type Longshot struct {
	p Params
}

func NewLongshot(p Params) *Longshot { return &Longshot{p: p} }

func (l *Longshot) Tag() domain.StrategyTag { return domain.StrategyLongshot }

func (l *Longshot) Score(in Input) (domain.Candidate, bool) {
	yes := in.Market.YesPrice
	if yes <= l.p.MinPrice || yes > l.p.MaxPrice {
		return domain.Candidate{}, false
	}
	if excluded(in, domain.SideYes, l.p.MinVolume) {
		return domain.Candidate{}, false
	}
	if d := in.Class.DaysToExpiry; d != nil && *d < l.p.MinDaysToExpiry {
		return domain.Candidate{}, false
	}

	score := 20 + volumeBonus(in.Market.Volume24h, 50_000, 100_000)
	switch {
	case yes <= 0.01:
		score += 15
	case yes <= 0.03:
		score += 10
	}
	if in.Class.IsFear() {
		score += 10
	}

	entry := domain.Round(math.Max(yes*l.p.EntryDiscount, l.p.PriceFloor), 4)
	return candidate(in, l.Tag(), domain.SideYes, entry, score, fmt.Sprintf("yes=%.4f limit=%.4f", yes, entry)), true
}
