package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclaw/internal/adapters/storage"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)

func sampleLedger(t *testing.T) *domain.Ledger {
	t.Helper()
	l := domain.NewLedger(10000, now.Add(-24*time.Hour))
	_, err := l.Buy(domain.BuyOrder{ID: "b1", MarketID: "m1", Question: "Will Iran strike?", Side: domain.SideNo, Price: 0.45, Amount: 1200, Strategy: domain.StrategyFear, Score: 45, At: now})
	require.NoError(t, err)
	_, err = l.Buy(domain.BuyOrder{ID: "b2", MarketID: "m2", Question: "Fed holds?", Side: domain.SideYes, Price: 0.90, Amount: 900, Strategy: domain.StrategyHighProb, Score: 35, At: now})
	require.NoError(t, err)
	_, err = l.Sell(domain.SellOrder{ID: "s1", MarketID: "m2", Side: domain.SideYes, Price: 0.95, Reason: domain.ExitTakeProfit, At: now.Add(time.Hour)})
	require.NoError(t, err)
	l.PutSnapshot(domain.DailySnapshot{Date: "2026-03-01", TotalValue: 10050, PnL: 50, Positions: 1})
	return l
}

func newSQLite(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStorage_LoadEmptyIsNotFound(t *testing.T) {
	db := newSQLite(t)
	_, err := db.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
}

func TestSQLiteStorage_SaveAndLoadRoundTrip(t *testing.T) {
	db := newSQLite(t)
	ctx := context.Background()
	want := sampleLedger(t)

	require.NoError(t, db.Save(ctx, want))
	got, err := db.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.StartingBalance, got.StartingBalance)
	assert.InDelta(t, want.Balance, got.Balance, 1e-9)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.LastTradeAt)
	assert.True(t, want.LastTradeAt.Equal(*got.LastTradeAt))

	require.Len(t, got.Positions, 1)
	pos := got.Get("m1", domain.SideNo)
	require.NotNil(t, pos)
	assert.Equal(t, "Will Iran strike?", pos.Question)
	assert.InDelta(t, 1200/0.45, pos.Shares, 1e-9)
	assert.Equal(t, 0.45, pos.AvgPrice)
	assert.Equal(t, domain.StrategyFear, pos.Strategy)
	assert.Equal(t, 45, pos.EntryScore)
	assert.True(t, now.Equal(pos.OpenedAt))

	require.Len(t, got.History, 3)
	assert.Equal(t, []string{"b1", "b2", "s1"}, []string{got.History[0].ID, got.History[1].ID, got.History[2].ID})
	sell := got.History[2]
	assert.Equal(t, domain.ActionSell, sell.Action)
	assert.Equal(t, domain.ExitTakeProfit, sell.ExitReason)
	assert.InDelta(t, 50, sell.Profit, 1e-9)

	assert.Equal(t, want.Snapshots, got.Snapshots)
}

func TestSQLiteStorage_SaveAppendsOnlyNewTrades(t *testing.T) {
	db := newSQLite(t)
	ctx := context.Background()
	l := sampleLedger(t)
	require.NoError(t, db.Save(ctx, l))

	loaded, err := db.Load(ctx)
	require.NoError(t, err)
	_, err = loaded.Sell(domain.SellOrder{ID: "s2", MarketID: "m1", Side: domain.SideNo, Price: 0.50, Reason: domain.ExitTakeProfit, At: now.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, loaded))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.History, 4)
	assert.Equal(t, "s2", got.History[3].ID)
	assert.Empty(t, got.Positions)
}

func TestSQLiteStorage_ResetReplacesHistory(t *testing.T) {
	db := newSQLite(t)
	ctx := context.Background()
	require.NoError(t, db.Save(ctx, sampleLedger(t)))

	require.NoError(t, db.Save(ctx, domain.NewLedger(10000, now)))
	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, got.Balance)
	assert.Empty(t, got.History)
	assert.Empty(t, got.Positions)
	assert.Empty(t, got.Snapshots)
	assert.Nil(t, got.LastTradeAt)
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyclaw.db")
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, sampleLedger(t)))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.History, 3)
}

func TestSQLiteStorage_Triggers(t *testing.T) {
	db := newSQLite(t)
	ctx := context.Background()

	_, err := db.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrTriggerNotFound)

	alerts := []domain.PriceAlert{{MarketID: "m1", Question: "Q", OldPrice: 0.3, NewPrice: 0.4, ChangePct: 33.3}}
	require.NoError(t, db.Publish(ctx, domain.Trigger{ID: "t1", Alerts: alerts, TriggeredAt: now.Add(-time.Minute)}))
	require.NoError(t, db.Publish(ctx, domain.Trigger{ID: "t2", Alerts: alerts, TriggeredAt: now}))

	got, err := db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)
	assert.Equal(t, domain.TriggerPending, got.Status)
	assert.Equal(t, alerts, got.Alerts)
	assert.True(t, now.Equal(got.TriggeredAt))

	require.NoError(t, db.MarkProcessed(ctx, "t2"))
	require.NoError(t, db.MarkProcessed(ctx, "t2"))
	got, err = db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerProcessed, got.Status)

	// republishing the same id does not reset its status
	require.NoError(t, db.Publish(ctx, domain.Trigger{ID: "t2", Alerts: alerts, TriggeredAt: now}))
	got, err = db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerProcessed, got.Status)
}

func TestSQLiteStorage_LatestOrdersSubSecondTimestamps(t *testing.T) {
	db := newSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Publish(ctx, domain.Trigger{ID: "newer", TriggeredAt: base.Add(500 * time.Millisecond)}))
	require.NoError(t, db.Publish(ctx, domain.Trigger{ID: "older", TriggeredAt: base}))

	got, err := db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.ID)
	assert.True(t, base.Add(500*time.Millisecond).Equal(got.TriggeredAt))
}
