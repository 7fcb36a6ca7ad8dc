package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclaw/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

func newTestClient(srv *httptest.Server) *polymarket.Client {
	return polymarket.NewClient(srv.URL, 2*time.Second)
}

func TestFetchMarkets_Success(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/gamma_markets.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "volume24hr", q.Get("order"))
		assert.Equal(t, "false", q.Get("ascending"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	markets, err := newTestClient(srv).FetchMarkets(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, markets, 3)

	m := markets[0]
	assert.Equal(t, "531202", m.ID)
	assert.Equal(t, "0x9f2c1e7a4b", m.ConditionID)
	assert.InDelta(t, 0.555, m.YesPrice, 1e-9)
	assert.InDelta(t, 0.445, m.NoPrice, 1e-9)
	assert.InDelta(t, 612345.67, m.Volume24h, 1e-6)
	assert.InDelta(t, 8123456.12, m.VolumeTotal, 1e-6)
	assert.InDelta(t, 154321.5, m.Liquidity, 1e-6)
	assert.Equal(t, time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC), m.EndDate)
	assert.Equal(t, "us-iran", m.GroupSlug)

	// números como string
	assert.InDelta(t, 410000, markets[1].Volume24h, 1e-6)
	assert.InDelta(t, 88000.25, markets[1].Liquidity, 1e-6)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), markets[1].EndDate)

	// precios ilegibles → 0, el mercado se conserva
	assert.Equal(t, 0.0, markets[2].YesPrice)
	assert.Equal(t, 0.0, markets[2].NoPrice)
	assert.True(t, markets[2].EndDate.IsZero())
}

func TestFetchMarkets_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":"1","question":"Q","outcomePrices":"[\"0.2\",\"0.8\"]"}]`))
	}))
	defer srv.Close()

	markets, err := newTestClient(srv).FetchMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0.8, markets[0].NoPrice)
}

func TestFetchMarkets_ClientErrorWrapsFetchError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchMarkets(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMarketFetch)
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestFetchMarkets_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchMarkets(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrMarketFetch)
}

func TestFetchMarkets_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv).FetchMarkets(ctx, 10)
	assert.ErrorIs(t, err, domain.ErrMarketFetch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchMarkets_HonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	start := time.Now()
	markets, err := newTestClient(srv).FetchMarkets(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, markets)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestFetchMarkets_StatusErrorIsExposed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchMarkets(context.Background(), 10)
	var se *polymarket.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Body, "gone")
}
