package domain

import "time"

// Side es el lado de un mercado binario sobre el que se compran shares.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Opposite devuelve el otro lado del mercado.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Valid devuelve true si el lado es yes o no.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Market representa un mercado de predicción binario tal como lo devuelve Gamma.
// Es inmutable durante un ciclo.
type Market struct {
	ID          string
	ConditionID string
	Question    string
	YesPrice    float64   // precio YES en (0,1)
	NoPrice     float64   // precio NO en (0,1); YES+NO no tiene por qué sumar 1
	Volume24h   float64   // volumen últimas 24h en USDC
	VolumeTotal float64
	Liquidity   float64
	EndDate     time.Time // fecha de resolución (zero si Gamma no la envía)
	GroupSlug   string
}

// PriceFor devuelve el precio actual del lado dado.
func (m Market) PriceFor(side Side) float64 {
	if side == SideYes {
		return m.YesPrice
	}
	return m.NoPrice
}

// HigherSide devuelve el lado con mayor precio y su precio. En empate gana YES.
func (m Market) HigherSide() (Side, float64) {
	if m.YesPrice >= m.NoPrice {
		return SideYes, m.YesPrice
	}
	return SideNo, m.NoPrice
}

// ValidPrice devuelve true si p es un precio operable, estrictamente dentro de (0,1).
func ValidPrice(p float64) bool {
	return p > 0 && p < 1
}

// IndexMarkets construye un índice id → Market.
func IndexMarkets(markets []Market) map[string]Market {
	byID := make(map[string]Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}
	return byID
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa el marketID como fallback.
func TruncateQuestion(question, marketID string, maxLen int) string {
	q := question
	if q == "" {
		q = marketID
	}
	r := []rune(q)
	if len(r) > maxLen {
		q = string(r[:maxLen-3]) + "..."
	}
	return q
}
