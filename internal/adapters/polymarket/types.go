package polymarket

import "encoding/json"

// DTOs raw de la Gamma API. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado tal como lo devuelve Gamma.
// Gamma devuelve algunos campos numéricos como strings JSON, usamos json.Number.
// OutcomePrices es un array JSON serializado dentro de un string: "[\"0.55\", \"0.45\"]".
type gammaMarket struct {
	ID            json.Number `json:"id"`
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	OutcomePrices string      `json:"outcomePrices"`
	Volume24hr    json.Number `json:"volume24hr"`
	VolumeNum     json.Number `json:"volumeNum"`
	LiquidityNum  json.Number `json:"liquidityNum"`
	EndDate       string      `json:"endDate"`
	GroupSlug     string      `json:"groupSlug"`
}
