package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()

	ctx := context.Background()
	if err := mc.Set(ctx, "k", "hello", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got string
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hello" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got string
	err := mc.Get(context.Background(), "absent", &got)
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	if err := mc.Set(ctx, "k", 1, 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	var got int
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemoryCacheEvictLRU(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	ctx := context.Background()
	_ = mc.Set(ctx, "a", 1, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes least recently used.
	var v int
	_ = mc.Get(ctx, "a", &v)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", 3, time.Minute)

	if err := mc.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("expected a retained: %v", err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	_ = mc.Set(ctx, "snapshot:AAPL", 1, time.Minute)
	_ = mc.Set(ctx, "snapshot:MSFT", 2, time.Minute)
	_ = mc.Set(ctx, "search:abc", 3, time.Minute)

	if err := mc.DeleteByPattern(ctx, "snapshot:*"); err != nil {
		t.Fatalf("delete by pattern: %v", err)
	}

	var v int
	if err := mc.Get(ctx, "snapshot:AAPL", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected snapshot:AAPL deleted, got %v", err)
	}
	if err := mc.Get(ctx, "search:abc", &v); err != nil {
		t.Fatalf("expected search:abc retained: %v", err)
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	var calls int32
	compute := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "computed", nil
	}

	const workers = 16
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := mc.GetOrCompute(ctx, "hot", time.Minute, &results[i], compute); err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one compute call, got %d", n)
	}
	for i, r := range results {
		if r != "computed" {
			t.Fatalf("worker %d got %q", i, r)
		}
	}
}

func TestGetOrComputeError(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	wantErr := errors.New("upstream down")
	var got string
	err := mc.GetOrCompute(context.Background(), "k", time.Minute, &got, func(context.Context) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected compute error, got %v", err)
	}

	// Errors are not cached: a later compute should run.
	err = mc.GetOrCompute(context.Background(), "k", time.Minute, &got, func(context.Context) (interface{}, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected recovery, got %q err %v", got, err)
	}
}

func TestGetOrComputeTyped(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	got, err := GetOrComputeTyped(context.Background(), mc, "syms", time.Minute, func(context.Context) ([]string, error) {
		return []string{"AAPL", "MSFT"}, nil
	})
	if err != nil {
		t.Fatalf("typed compute: %v", err)
	}
	if len(got) != 2 || got[0] != "AAPL" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestHashKeyStable(t *testing.T) {
	a := HashKey("rising tech stocks|technology|10")
	b := HashKey("rising tech stocks|technology|10")
	if a != b {
		t.Fatalf("hash not stable: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected md5 hex, got %q", a)
	}
}
