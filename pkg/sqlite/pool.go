// Package sqlite provides a bounded, pre-warmed SQLite connection pool.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrPoolExhausted is returned when no connection frees up within the
// acquire timeout.
var ErrPoolExhausted = errors.New("sqlite: connection pool exhausted")

// Option configures the pool.
type Option func(*Config)

// Config holds pool configuration.
type Config struct {
	PoolSize       int
	MaxConnections int
	AcquireTimeout time.Duration
}

// WithPoolSize sets the number of pre-warmed connections.
func WithPoolSize(n int) Option {
	return func(c *Config) {
		c.PoolSize = n
	}
}

// WithMaxConnections sets the hard cap on open connections.
func WithMaxConnections(n int) Option {
	return func(c *Config) {
		c.MaxConnections = n
	}
}

// WithAcquireTimeout sets how long Acquire waits for a free connection.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.AcquireTimeout = d
	}
}

// tuning applied to every connection before it joins the pool
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-32000",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA mmap_size=134217728",
	"PRAGMA busy_timeout=5000",
}

// Pool is a bounded pool of tuned SQLite connections. A fixed set is opened
// up front; under load it grows up to MaxConnections, after which Acquire
// fails with ErrPoolExhausted once the timeout elapses.
type Pool struct {
	db             *sql.DB
	free           chan *sql.Conn
	opened         atomic.Int32
	maxConnections int
	acquireTimeout time.Duration
}

// NewPool opens the database at path and pre-warms the pool.
func NewPool(ctx context.Context, path string, opts ...Option) (*Pool, error) {
	cfg := &Config{
		PoolSize:       5,
		MaxConnections: 20,
		AcquireTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxConnections < cfg.PoolSize {
		cfg.MaxConnections = cfg.PoolSize
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)

	p := &Pool{
		db:             db,
		free:           make(chan *sql.Conn, cfg.MaxConnections),
		maxConnections: cfg.MaxConnections,
		acquireTimeout: cfg.AcquireTimeout,
	}

	for i := 0; i < cfg.PoolSize; i++ {
		conn, err := p.openConn(ctx)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.free <- conn
	}

	return p, nil
}

// DB exposes the underlying handle for schema setup.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Acquire returns a tuned connection, growing the pool if every existing
// connection is busy and the cap allows it.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	select {
	case conn := <-p.free:
		return conn, nil
	default:
	}

	if int(p.opened.Load()) < p.maxConnections {
		conn, err := p.openConn(ctx)
		if err == nil {
			return conn, nil
		}
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case conn := <-p.free:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrPoolExhausted
	}
}

// Release returns a connection to the pool, closing it if the pool is full.
func (p *Pool) Release(conn *sql.Conn) {
	if conn == nil {
		return
	}
	select {
	case p.free <- conn:
	default:
		p.opened.Add(-1)
		_ = conn.Close()
	}
}

// Opened reports how many connections exist.
func (p *Pool) Opened() int {
	return int(p.opened.Load())
}

// Close drains and closes all connections and the database.
func (p *Pool) Close() error {
	for {
		select {
		case conn := <-p.free:
			_ = conn.Close()
		default:
			return p.db.Close()
		}
	}
}

func (p *Pool) openConn(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sqlite conn: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	p.opened.Add(1)
	return conn, nil
}
