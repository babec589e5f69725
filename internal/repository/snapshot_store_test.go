package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockRank/internal/domain/models"
	"StockRank/pkg/sqlite"
)

func newTestStore(t *testing.T) *SQLiteSnapshotStore {
	t.Helper()
	pool, err := sqlite.NewPool(context.Background(), "file::memory:?cache=shared",
		sqlite.WithPoolSize(1), sqlite.WithMaxConnections(2))
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	store := NewSQLiteSnapshotStore(pool)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func snap(symbol string, price float64, updated time.Time) *models.Snapshot {
	return &models.Snapshot{
		Symbol:      symbol,
		CompanyName: symbol + " Inc",
		Sector:      "Technology",
		Price:       models.Float64Ptr(price),
		LastUpdated: updated,
	}
}

func TestUpsertAndGetLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := store.Upsert(ctx, snap("AAPL", 180, now)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetLatest(ctx, "AAPL")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got.Symbol != "AAPL" || got.Price == nil || *got.Price != 180 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestGetLatestNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetLatest(context.Background(), "NOPE")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestListLatestReturnsNewestPerSymbol(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	batch := []*models.Snapshot{
		snap("MSFT", 400, base.Add(-time.Hour)),
		snap("MSFT", 410, base),
		snap("AAPL", 180, base),
	}
	if err := store.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("batch: %v", err)
	}

	snaps, err := store.ListLatest(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(snaps))
	}
	// ordered by symbol
	if snaps[0].Symbol != "AAPL" || snaps[1].Symbol != "MSFT" {
		t.Fatalf("unexpected order %s, %s", snaps[0].Symbol, snaps[1].Symbol)
	}
	if *snaps[1].Price != 410 {
		t.Fatalf("expected newest MSFT row, got price %v", *snaps[1].Price)
	}
}

func TestUpsertBatchSkipsPricelessRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	noPrice := &models.Snapshot{Symbol: "GOOG", CompanyName: "Alphabet", LastUpdated: now}
	if err := store.UpsertBatch(ctx, []*models.Snapshot{noPrice, snap("AAPL", 180, now)}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	if _, err := store.GetLatest(ctx, "GOOG"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected priceless row skipped, got %v", err)
	}
	if _, err := store.GetLatest(ctx, "AAPL"); err != nil {
		t.Fatalf("expected AAPL stored: %v", err)
	}
}

func TestUpsertPreservesOptionalFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s := snap("TSLA", 250, now)
	s.ChangePercent = models.Float64Ptr(-3.2)
	s.Volume = models.Int64Ptr(90_000_000)
	s.MarketCap = nil

	if err := store.Upsert(ctx, s); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := store.GetLatest(ctx, "TSLA")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChangePercent == nil || *got.ChangePercent != -3.2 {
		t.Fatalf("change_percent lost: %+v", got)
	}
	if got.Volume == nil || *got.Volume != 90_000_000 {
		t.Fatalf("volume lost: %+v", got)
	}
	if got.MarketCap != nil {
		t.Fatalf("expected nil market cap, got %v", *got.MarketCap)
	}
}
