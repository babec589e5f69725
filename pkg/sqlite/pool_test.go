package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func newTestPool(t *testing.T, opts ...Option) *Pool {
	t.Helper()
	p, err := NewPool(context.Background(), "file::memory:?cache=shared", opts...)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPoolPrewarm(t *testing.T) {
	p := newTestPool(t, WithPoolSize(3), WithMaxConnections(5))
	if got := p.Opened(); got != 3 {
		t.Fatalf("expected 3 pre-warmed connections, got %d", got)
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	p := newTestPool(t, WithPoolSize(1), WithMaxConnections(2))
	ctx := context.Background()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query: %v", err)
	}
	if one != 1 {
		t.Fatalf("unexpected result %d", one)
	}
	p.Release(conn)

	// Released connection is reusable.
	again, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	p.Release(again)
}

func TestPoolGrowsToCap(t *testing.T) {
	p := newTestPool(t, WithPoolSize(1), WithMaxConnections(3))
	ctx := context.Background()

	conns := make([]*sql.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, err := p.Acquire(ctx)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		conns = append(conns, conn)
	}
	if got := p.Opened(); got != 3 {
		t.Fatalf("expected 3 open connections, got %d", got)
	}
	for _, c := range conns {
		p.Release(c)
	}
}

func TestPoolExhausted(t *testing.T) {
	p := newTestPool(t, WithPoolSize(1), WithMaxConnections(1), WithAcquireTimeout(50*time.Millisecond))
	ctx := context.Background()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer p.Release(conn)

	_, err = p.Acquire(ctx)
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestPoolWALMode(t *testing.T) {
	p := newTestPool(t, WithPoolSize(1), WithMaxConnections(1))
	ctx := context.Background()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer p.Release(conn)

	var mode string
	if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	// in-memory databases report "memory"; file-backed report "wal"
	if mode != "wal" && mode != "memory" {
		t.Fatalf("unexpected journal mode %q", mode)
	}
}
