package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaMaxLimit    = 500
)

// FetchMarkets devuelve hasta limit mercados activos y abiertos ordenados por
// volumen 24h descendente. Cualquier fallo se envuelve en domain.ErrMarketFetch.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	if limit <= 0 || limit > gammaMaxLimit {
		limit = gammaMaxLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")

	var resp gammaMarketsResponse
	if err := c.getJSON(ctx, gammaMarketsPath+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("gamma.FetchMarkets: %w: %w", domain.ErrMarketFetch, err)
	}

	markets := mapGammaMarkets(resp)
	slog.Debug("gamma markets fetched",
		"requested", limit,
		"received", len(resp),
		"mapped", len(markets),
	)
	return markets, nil
}
