package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations. Implementations must be safe for
// concurrent use; GetOrCompute must guarantee that concurrent callers for the
// same missing key run the compute function exactly once.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute ComputeFunc) error
	Close() error
}

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// GetTyped retrieves a key into a typed value.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	return v, err
}

// GetOrComputeTyped memoizes a typed computation under the given key.
func GetOrComputeTyped[T any](ctx context.Context, c Service, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var v T
	err := c.GetOrCompute(ctx, key, ttl, &v, func(ctx context.Context) (interface{}, error) {
		return compute(ctx)
	})
	return v, err
}
