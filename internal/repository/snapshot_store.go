package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"StockRank/internal/domain/models"
	applogger "StockRank/pkg/logger"
	"StockRank/pkg/sqlite"
)

// ErrSnapshotNotFound is returned when no row exists for a symbol.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS stock_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    company_name TEXT NOT NULL DEFAULT '',
    sector TEXT NOT NULL DEFAULT '',
    price REAL,
    market_cap REAL,
    change_percent REAL,
    volume INTEGER,
    average_volume INTEGER,
    summary TEXT NOT NULL DEFAULT '',
    last_updated TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_symbol ON stock_snapshots(symbol);
CREATE INDEX IF NOT EXISTS idx_snapshots_updated ON stock_snapshots(last_updated);
CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_updated ON stock_snapshots(symbol, last_updated);
`

// Rows accumulate per symbol; reads resolve the newest row so history stays
// queryable while the ranking path always sees current data.
const latestJoin = `
SELECT s.symbol, s.company_name, s.sector, s.price, s.market_cap,
       s.change_percent, s.volume, s.average_volume, s.summary, s.last_updated
FROM stock_snapshots s
INNER JOIN (
    SELECT symbol, MAX(last_updated) AS max_updated
    FROM stock_snapshots
    GROUP BY symbol
) latest ON s.symbol = latest.symbol AND s.last_updated = latest.max_updated
`

// SQLiteSnapshotStore persists snapshots through a bounded connection pool.
type SQLiteSnapshotStore struct {
	pool   *sqlite.Pool
	logger *applogger.Logger
}

// NewSQLiteSnapshotStore creates a store backed by the given pool.
func NewSQLiteSnapshotStore(pool *sqlite.Pool) *SQLiteSnapshotStore {
	return &SQLiteSnapshotStore{pool: pool}
}

// SetLogger attaches a logger for slow-path diagnostics.
func (r *SQLiteSnapshotStore) SetLogger(l *applogger.Logger) { r.logger = l }

// Init creates the schema.
func (r *SQLiteSnapshotStore) Init(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	if _, err := conn.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}
	return nil
}

// Upsert stores a single snapshot row.
func (r *SQLiteSnapshotStore) Upsert(ctx context.Context, s *models.Snapshot) error {
	return r.UpsertBatch(ctx, []*models.Snapshot{s})
}

// UpsertBatch writes snapshots in one transaction. Rows without a price are
// skipped: a missing price must never become the current view of a symbol.
func (r *SQLiteSnapshotStore) UpsertBatch(ctx context.Context, snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stock_snapshots
		(symbol, company_name, sector, price, market_cap, change_percent, volume, average_volume, summary, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, s := range snaps {
		if s == nil || !s.Valid() {
			continue
		}
		updated := s.LastUpdated
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			s.Symbol, s.CompanyName, s.Sector,
			nullFloat(s.Price), nullFloat(s.MarketCap), nullFloat(s.ChangePercent),
			nullInt(s.Volume), nullInt(s.AverageVolume),
			s.Summary, updated,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", s.Symbol, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if r.logger != nil {
		r.logger.Debug("snapshots written",
			applogger.Int("count", written),
			applogger.Int("skipped", len(snaps)-written),
		)
	}
	return nil
}

// GetLatest returns the newest snapshot for a symbol.
func (r *SQLiteSnapshotStore) GetLatest(ctx context.Context, symbol string) (*models.Snapshot, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(conn)

	row := conn.QueryRowContext(ctx, latestJoin+" WHERE s.symbol = ?", symbol)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	return s, err
}

// ListLatest returns the newest snapshot of every symbol, ordered by symbol.
func (r *SQLiteSnapshotStore) ListLatest(ctx context.Context) ([]*models.Snapshot, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(conn)

	rows, err := conn.QueryContext(ctx, latestJoin+" ORDER BY s.symbol ASC")
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// Health verifies the database responds.
func (r *SQLiteSnapshotStore) Health(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	var one int
	return conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Close releases the pool.
func (r *SQLiteSnapshotStore) Close() error {
	return r.pool.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var (
		s       models.Snapshot
		price   sql.NullFloat64
		mcap    sql.NullFloat64
		change  sql.NullFloat64
		volume  sql.NullInt64
		avgVol  sql.NullInt64
		updated time.Time
	)
	err := row.Scan(&s.Symbol, &s.CompanyName, &s.Sector,
		&price, &mcap, &change, &volume, &avgVol, &s.Summary, &updated)
	if err != nil {
		return nil, err
	}

	if price.Valid {
		s.Price = &price.Float64
	}
	if mcap.Valid {
		s.MarketCap = &mcap.Float64
	}
	if change.Valid {
		s.ChangePercent = &change.Float64
	}
	if volume.Valid {
		s.Volume = &volume.Int64
	}
	if avgVol.Valid {
		s.AverageVolume = &avgVol.Int64
	}
	s.LastUpdated = updated
	return &s, nil
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
