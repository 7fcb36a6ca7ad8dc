package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Momentum sigue la dirección de un movimiento brusco señalado por el monitor.
// Solo evalúa mercados que llegan con Alert.
type Momentum struct {
	p Params
}

func NewMomentum(p Params) *Momentum { return &Momentum{p: p} }

func (m *Momentum) Tag() domain.StrategyTag { return domain.StrategyMomentum }

func (m *Momentum) Score(in Input) (domain.Candidate, bool) {
	if in.Alert == nil {
		return domain.Candidate{}, false
	}
	a := in.Alert

	side, price := domain.SideNo, in.Market.NoPrice
	if a.NewPrice-a.OldPrice > 0 {
		side, price = domain.SideYes, a.NewPrice
	}
	if excluded(in, side, m.p.MinVolume) {
		return domain.Candidate{}, false
	}

	score := int(math.Abs(a.ChangePct) * 5)
	reason := fmt.Sprintf("%.3f→%.3f (%+.1f%%)", a.OldPrice, a.NewPrice, a.ChangePct)
	return candidate(in, m.Tag(), side, price, score, reason), true
}
