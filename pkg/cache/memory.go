package cache

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// MemoryItem stores a cached value with its lifecycle timestamps.
type MemoryItem struct {
	Value     interface{}
	CreatedAt time.Time
	ExpireAt  time.Time
}

// IsExpired checks if the item has expired.
func (m *MemoryItem) IsExpired() bool {
	return time.Now().After(m.ExpireAt)
}

// MemoryCache implements Service with in-memory storage, LRU eviction and
// per-key compute locks for stampede prevention. Expired entries are removed
// lazily on access and swept periodically by a background cleaner.
type MemoryCache struct {
	data    map[string]*MemoryItem
	access  map[string]time.Time
	mutex   sync.RWMutex
	maxSize int

	keyLocks map[string]*sync.Mutex
	lockMu   sync.Mutex

	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:          make(map[string]*MemoryItem),
		access:        make(map[string]time.Time),
		maxSize:       cfg.MaxSize,
		keyLocks:      make(map[string]*sync.Mutex),
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	now := time.Now()
	expireAt := now.Add(ttl)
	if ttl <= 0 {
		expireAt = now.Add(24 * time.Hour)
	}

	mc.data[key] = &MemoryItem{Value: value, CreatedAt: now, ExpireAt: expireAt}
	mc.access[key] = now
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	item, exists := mc.data[key]
	if !exists || item.IsExpired() {
		if exists {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		return ErrCacheMiss
	}

	mc.access[key] = time.Now()
	return assign(dest, item.Value)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
	return nil
}

// DeleteByPattern removes keys matching a trailing-wildcard pattern
// ("prefix:*") or an exact key otherwise.
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	prefix, wildcard := strings.CutSuffix(pattern, "*")
	for key := range mc.data {
		if (wildcard && strings.HasPrefix(key, prefix)) || key == pattern {
			delete(mc.data, key)
			delete(mc.access, key)
		}
	}
	return nil
}

// GetOrCompute returns the cached value for key, computing and storing it on
// miss. Callers for the same missing key serialize on a per-key lock so the
// computation runs once; callers for different keys never block each other.
func (mc *MemoryCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute ComputeFunc) error {
	if err := mc.Get(ctx, key, dest); err == nil {
		return nil
	}

	lock := mc.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	// Double-check under the key lock: another caller may have filled it.
	if err := mc.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}
	if err := mc.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return assign(dest, value)
}

func (mc *MemoryCache) keyLock(key string) *sync.Mutex {
	mc.lockMu.Lock()
	defer mc.lockMu.Unlock()
	l, ok := mc.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		mc.keyLocks[key] = l
	}
	return l
}

// Len returns the number of live entries.
func (mc *MemoryCache) Len() int {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	if len(mc.data) == 0 {
		return
	}

	var oldestKey string
	oldestTime := time.Now()
	for key, accessTime := range mc.access {
		if accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
		}

		mc.mutex.Lock()
		now := time.Now()
		for key, item := range mc.data {
			if now.After(item.ExpireAt) {
				delete(mc.data, key)
				delete(mc.access, key)
			}
		}
		mc.mutex.Unlock()
	}
}

// Close stops the background cleaner.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanupTicker.Stop()
		close(mc.done)
	})
	return nil
}

// assign copies value into the pointer dest.
func assign(dest, value interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("cache: dest must be a non-nil pointer, got %T", dest)
	}
	if value == nil {
		dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(dv.Elem().Type()) {
		return fmt.Errorf("cache: cannot assign %T to %T", value, dest)
	}
	dv.Elem().Set(vv)
	return nil
}
