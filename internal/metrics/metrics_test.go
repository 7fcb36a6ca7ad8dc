package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclaw/internal/application/engine"
	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/metrics"
)

func TestMetrics_ObserveCycle(t *testing.T) {
	m := metrics.New()
	res := &engine.CycleResult{
		Markets: 40,
		Actions: []domain.Action{
			{Kind: domain.ActionExit, Strategy: domain.StrategyHighProb, Reason: domain.ExitSettled},
			{Kind: domain.ActionEntry, Strategy: domain.StrategyFear},
			{Kind: domain.ActionEntry, Strategy: domain.StrategyFear},
		},
		Rejections:       map[string]int{"topic_cap": 2},
		TriggerProcessed: true,
		Balance:          7600,
		PositionCount:    3,
		Report:           domain.Report{TotalValue: 10123.45},
	}
	m.ObserveCycle(res, 200*time.Millisecond)
	m.CycleFailed("fetch")

	body := scrape(t, m)
	assert.Contains(t, body, `polyclaw_entries_total{strategy="fear"} 2`)
	assert.Contains(t, body, `polyclaw_exits_total{reason="settled",strategy="hp"} 1`)
	assert.Contains(t, body, `polyclaw_risk_rejections_total{reason="topic_cap"} 2`)
	assert.Contains(t, body, `polyclaw_cycle_failures_total{stage="fetch"} 1`)
	assert.Contains(t, body, "polyclaw_cycles_total 1")
	assert.Contains(t, body, "polyclaw_triggers_processed_total 1")
	assert.Contains(t, body, "polyclaw_balance_usd 7600")
	assert.Contains(t, body, "polyclaw_open_positions 3")
	assert.Contains(t, body, "polyclaw_markets_scanned 40")
}

func TestMetrics_Middleware(t *testing.T) {
	m := metrics.New()
	h := m.Middleware(func(*http.Request) string { return "/api/report" })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report?x=1", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	n, err := testutil.GatherAndCount(m.Registry(), "polyclaw_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, scrape(t, m), `polyclaw_http_requests_total{method="GET",path="/api/report",status="418"} 1`)
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return strings.TrimSpace(rec.Body.String())
}
