package domain

import "time"

// TriggerStatus es el estado de procesamiento de un trigger del monitor de precios.
type TriggerStatus string

const (
	TriggerPending   TriggerStatus = "pending"
	TriggerProcessed TriggerStatus = "momentum_processed"
)

// DefaultTriggerStaleness es la edad a partir de la cual un trigger se ignora.
const DefaultTriggerStaleness = 10 * time.Minute

// PriceAlert es un movimiento brusco de precio detectado por el monitor externo.
type PriceAlert struct {
	MarketID  string  `json:"market_id"`
	Question  string  `json:"question"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
	ChangePct float64 `json:"change_pct"` // en puntos porcentuales, con signo
}

// Trigger agrupa las alertas de una pasada del monitor. ID es la clave de idempotencia.
type Trigger struct {
	ID          string
	Alerts      []PriceAlert
	TriggeredAt time.Time
	Status      TriggerStatus
}

// IsStale devuelve true si el trigger tiene maxAge o más de antigüedad.
func (t Trigger) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(t.TriggeredAt) >= maxAge
}

// Actionable devuelve true si el trigger está pendiente y no ha caducado.
func (t Trigger) Actionable(now time.Time, maxAge time.Duration) bool {
	return t.Status == TriggerPending && !t.IsStale(now, maxAge)
}

// AlertsByMarket indexa las alertas por marketID. Si un mercado aparece
// varias veces gana la última alerta.
func (t Trigger) AlertsByMarket() map[string]PriceAlert {
	out := make(map[string]PriceAlert, len(t.Alerts))
	for _, a := range t.Alerts {
		out[a.MarketID] = a
	}
	return out
}
