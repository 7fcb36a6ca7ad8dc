package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclaw/internal/adapters/storage"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

func TestJSONFileStorage_MissingIsNotFound(t *testing.T) {
	s := storage.NewJSONFileStorage(filepath.Join(t.TempDir(), "auto_portfolio.json"))
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
}

func TestJSONFileStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "auto_portfolio.json")
	s := storage.NewJSONFileStorage(path)
	ctx := context.Background()
	want := sampleLedger(t)

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)
	require.NoError(t, err)

	assert.InDelta(t, want.Balance, got.Balance, 1e-9)
	assert.Equal(t, want.StartingBalance, got.StartingBalance)
	require.Len(t, got.Positions, 1)
	assert.Equal(t, 45, got.Get("m1", domain.SideNo).EntryScore)
	require.Len(t, got.History, 3)
	assert.Equal(t, domain.ExitTakeProfit, got.History[2].ExitReason)
	assert.True(t, now.Equal(got.History[0].At))
	assert.Equal(t, want.Snapshots, got.Snapshots)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestJSONFileStorage_LoadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto_portfolio.json")
	legacy := `{
  "balance": 8800.0,
  "positions": {
    "fear_531202_no": {
      "market_id": "531202", "question": "US strike on Iran?", "side": "no",
      "shares": 2666.67, "avg_price": 0.45, "bought_at": "2026-03-01T09:15:02.123456",
      "strategy": "fear", "score": 45
    },
    "legacy_1_yes": {
      "market_id": "1", "question": "Old", "side": "yes",
      "shares": 10, "avg_price": 0.5, "bought_at": "2026-02-01T09:15:02"
    }
  },
  "history": [
    {"action": "buy", "question": "US strike on Iran?", "side": "no", "price": 0.45,
     "amount": 1200, "shares": 2666.67, "strategy": "fear", "time": "2026-03-01T09:15:02.123456"}
  ],
  "daily_snapshots": [{"date": "2026-02-28", "total_value": 10000, "pnl": 0, "positions": 0}],
  "created": "2026-02-01T08:00:00",
  "last_trade": null
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	l, err := storage.NewJSONFileStorage(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8800.0, l.Balance)
	assert.Zero(t, l.StartingBalance, "filled in by the engine")
	require.Len(t, l.Positions, 2)
	pos := l.Get("531202", domain.SideNo)
	require.NotNil(t, pos)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 15, 2, 123456000, time.Local), pos.OpenedAt)
	assert.Equal(t, domain.StrategyFear, l.Get("1", domain.SideYes).Strategy)
	require.Len(t, l.History, 1)
	assert.Equal(t, domain.ActionBuy, l.History[0].Action)
	assert.Nil(t, l.LastTradeAt)
	assert.Len(t, l.Snapshots, 1)
}

func TestJSONFileStorage_MalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto_portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := storage.NewJSONFileStorage(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLedgerNotFound)
}

func TestJSONTriggerFile_LegacyMonitorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trigger_trade.json")
	ctx := context.Background()
	store := storage.NewJSONTriggerFile(path)

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrTriggerNotFound)

	legacy := `{
  "triggered_at": "2026-03-01T11:55:00.000001",
  "alerts": [{"market_id": "m1", "question": "Q", "old_price": 0.3, "new_price": 0.4, "change_pct": 33.3, "direction": "UP"}],
  "summary": ["UP Q | 30¢→40¢ (+33.3%)"],
  "status": "pending"
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	tr, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T11:55:00.000001", tr.ID)
	assert.Equal(t, domain.TriggerPending, tr.Status)
	require.Len(t, tr.Alerts, 1)
	assert.Equal(t, 0.4, tr.Alerts[0].NewPrice)

	require.NoError(t, store.MarkProcessed(ctx, "some-other-id"))
	tr, err = store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerPending, tr.Status)

	require.NoError(t, store.MarkProcessed(ctx, tr.ID))
	tr, err = store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerProcessed, tr.Status)
}

func TestJSONTriggerFile_PublishReplacesLatest(t *testing.T) {
	store := storage.NewJSONTriggerFile(filepath.Join(t.TempDir(), "trigger_trade.json"))
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, domain.Trigger{ID: "a", TriggeredAt: now}))
	require.NoError(t, store.Publish(ctx, domain.Trigger{ID: "b", TriggeredAt: now.Add(time.Minute)}))

	tr, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", tr.ID)
	assert.Equal(t, domain.TriggerPending, tr.Status)
	assert.Empty(t, tr.Alerts)
}
