package ports

import (
	"context"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// MarketProvider obtiene la foto de mercados activos para un ciclo.
type MarketProvider interface {
	// FetchMarkets devuelve hasta limit mercados activos ordenados por volumen 24h.
	// Cualquier fallo se envuelve en domain.ErrMarketFetch.
	FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error)
}
