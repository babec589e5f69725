package repository

import (
	"context"
	"fmt"
	"time"

	"StockRank/internal/domain/models"
	pkgch "StockRank/pkg/clickhouse"
	applogger "StockRank/pkg/logger"
)

var archiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS snapshot_history (
		symbol          String,
		company_name    String,
		sector          String,
		price           Nullable(Float64),
		market_cap      Nullable(Float64),
		change_percent  Nullable(Float64),
		volume          Nullable(Int64),
		average_volume  Nullable(Int64),
		archived_at     DateTime64(3)
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(archived_at)
	ORDER BY (symbol, archived_at)`,
}

// CHSnapshotArchive appends every fetch cycle's snapshots to ClickHouse so
// historical movement stays queryable after SQLite rows are superseded.
type CHSnapshotArchive struct {
	client *pkgch.Client
	logger *applogger.Logger
}

// NewCHSnapshotArchive creates the archive and ensures its schema.
func NewCHSnapshotArchive(ctx context.Context, client *pkgch.Client) (*CHSnapshotArchive, error) {
	if err := client.InitSchema(ctx, archiveSchema); err != nil {
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &CHSnapshotArchive{client: client}, nil
}

// SetLogger attaches a logger.
func (a *CHSnapshotArchive) SetLogger(l *applogger.Logger) { a.logger = l }

// Archive inserts one row per snapshot with the cycle timestamp.
func (a *CHSnapshotArchive) Archive(ctx context.Context, snaps []*models.Snapshot, at time.Time) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_history
		(symbol, company_name, sector, price, market_cap, change_percent, volume, average_volume, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("archive prepare: %w", err)
	}
	defer stmt.Close()

	for _, s := range snaps {
		if s == nil || s.Symbol == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			s.Symbol, s.CompanyName, s.Sector,
			nullFloat(s.Price), nullFloat(s.MarketCap), nullFloat(s.ChangePercent),
			nullInt(s.Volume), nullInt(s.AverageVolume),
			at,
		)
		if err != nil {
			return fmt.Errorf("archive %s: %w", s.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	if a.logger != nil {
		a.logger.Debug("snapshots archived", applogger.Int("count", len(snaps)))
	}
	return nil
}

// Close closes the underlying client.
func (a *CHSnapshotArchive) Close() error {
	return a.client.Close()
}
