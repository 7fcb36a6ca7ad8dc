package strategy

import (
	"fmt"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Fear compra NO en mercados de miedo donde el YES está inflado.
type Fear struct {
	p Params
}

func NewFear(p Params) *Fear { return &Fear{p: p} }

func (f *Fear) Tag() domain.StrategyTag { return domain.StrategyFear }

func (f *Fear) Score(in Input) (domain.Candidate, bool) {
	if !in.Class.IsFear() || excluded(in, domain.SideNo, f.p.MinVolume) {
		return domain.Candidate{}, false
	}
	yes := in.Market.YesPrice
	if yes <= f.p.MinPrice || yes >= f.p.MaxPrice {
		return domain.Candidate{}, false
	}

	score := 10
	switch {
	case yes > 0.50:
		score = 30
	case yes > 0.35:
		score = 20
	}
	score += volumeBonus(in.Market.Volume24h, 200_000, 500_000)

	reason := fmt.Sprintf("fear=%s yes=%.2f", in.Class.Fear, yes)
	return candidate(in, f.Tag(), domain.SideNo, in.Market.NoPrice, score, reason), true
}

// volumeBonus devuelve +15 por encima de high, +10 por encima de low.
func volumeBonus(vol, low, high float64) int {
	switch {
	case vol > high:
		return 15
	case vol > low:
		return 10
	}
	return 0
}
