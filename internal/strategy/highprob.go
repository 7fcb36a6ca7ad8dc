package strategy

import (
	"fmt"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// HighProb compra el lado favorito cuando cotiza en la banda [MinPrice, MaxPrice].
// Cuanto más cerca del suelo de la banda, más margen queda hasta 1.
type HighProb struct {
	p Params
}

func NewHighProb(p Params) *HighProb { return &HighProb{p: p} }

func (h *HighProb) Tag() domain.StrategyTag { return domain.StrategyHighProb }

func (h *HighProb) Score(in Input) (domain.Candidate, bool) {
	side, price := in.Market.HigherSide()
	if excluded(in, side, h.p.MinVolume) {
		return domain.Candidate{}, false
	}
	if price < h.p.MinPrice || price > h.p.MaxPrice {
		return domain.Candidate{}, false
	}

	var score int
	switch {
	case price <= 0.90:
		score = 20
	case price <= 0.92:
		score = 15
	case price <= 0.94:
		score = 10
	default:
		score = 5
	}
	score += volumeBonus(in.Market.Volume24h, 300_000, 500_000)

	return candidate(in, h.Tag(), side, price, score, fmt.Sprintf("%s=%.3f", side, price)), true
}
