package repository

import (
	"context"
	"time"

	"StockRank/internal/domain/models"
)

// SnapshotStore persists market snapshots and serves the latest row per symbol.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables, indexes
	Upsert(ctx context.Context, s *models.Snapshot) error
	UpsertBatch(ctx context.Context, snaps []*models.Snapshot) error
	GetLatest(ctx context.Context, symbol string) (*models.Snapshot, error)
	ListLatest(ctx context.Context) ([]*models.Snapshot, error)
	Health(ctx context.Context) error
	Close() error
}

// Quoter fetches a current snapshot for one symbol from the upstream feed.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (*models.Snapshot, error)
}

// Archiver records snapshot history for offline analysis.
type Archiver interface {
	Archive(ctx context.Context, snaps []*models.Snapshot, at time.Time) error
	Close() error
}

// Publisher emits snapshot updates to downstream consumers.
type Publisher interface {
	PublishBatch(ctx context.Context, snaps []*models.Snapshot) error
	Close() error
}

// Metrics records application-level observations.
type Metrics interface {
	RecordSearch(result string)
	RecordCacheOp(cache, result string)
	RecordFetchCycle(result string)
	RecordLastPrice(symbol string, price float64)
	StreamClientConnected(delta int)
	RecordLatency(op string, seconds float64)
}
