package polymarket

import (
	"encoding/json"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// mapGammaMarkets convierte los DTOs de Gamma a domain.Market, descartando los que no tienen id.
func mapGammaMarkets(raw []gammaMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		if r.ID.String() == "" {
			continue
		}
		markets = append(markets, mapGammaMarket(r))
	}
	return markets
}

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
// Precios ilegibles quedan a 0; el engine los trata como anomalía.
func mapGammaMarket(r gammaMarket) domain.Market {
	yes, no := parseOutcomePrices(r.OutcomePrices)
	return domain.Market{
		ID:          r.ID.String(),
		ConditionID: r.ConditionID,
		Question:    r.Question,
		YesPrice:    yes,
		NoPrice:     no,
		Volume24h:   number(r.Volume24hr),
		VolumeTotal: number(r.VolumeNum),
		Liquidity:   number(r.LiquidityNum),
		EndDate:     parseEndDate(r.EndDate),
		GroupSlug:   r.GroupSlug,
	}
}

// parseOutcomePrices decodifica el array serializado; [0] es YES y [1] es NO.
func parseOutcomePrices(raw string) (yes, no float64) {
	if raw == "" {
		return 0, 0
	}
	var prices []json.Number
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		return 0, 0
	}
	if len(prices) > 0 {
		yes = number(prices[0])
	}
	if len(prices) > 1 {
		no = number(prices[1])
	}
	return yes, no
}

func number(n json.Number) float64 {
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}

func parseEndDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// Polymarket usa varios formatos; intentamos los más comunes
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
