package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockRank/internal/domain/models"
	"StockRank/pkg/config"
)

type stubQuoter struct{}

func (stubQuoter) Quote(context.Context, string) (*models.Snapshot, error) {
	return nil, errors.New("upstream unavailable")
}

type stubStore struct{}

func (stubStore) Init(context.Context) error                            { return nil }
func (stubStore) Upsert(context.Context, *models.Snapshot) error        { return nil }
func (stubStore) UpsertBatch(context.Context, []*models.Snapshot) error { return nil }
func (stubStore) GetLatest(context.Context, string) (*models.Snapshot, error) {
	return nil, errors.New("not found")
}
func (stubStore) ListLatest(context.Context) ([]*models.Snapshot, error) { return nil, nil }
func (stubStore) Health(context.Context) error                           { return nil }
func (stubStore) Close() error                                           { return nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.Backend = "memory"
	cfg.Upstream.Symbols = []string{"AAPL"}
	cfg.Upstream.RatePerSecond = 10
	cfg.Upstream.RateBurst = 10
	cfg.Fetch.Interval = time.Minute
	cfg.Fetch.Workers = 2
	cfg.Fetch.RetryAttempts = 3
	cfg.Fetch.RetryDelay = 500 * time.Millisecond
	cfg.Fetch.MaxFailures = 5
	cfg.Stream.DefaultInterval = 10 * time.Second
	cfg.Stream.MinInterval = 5 * time.Second
	cfg.Stream.MaxInterval = time.Minute
	return cfg
}

func TestProvideFetchSchedulerWiresRetryPolicy(t *testing.T) {
	cfg := testConfig()
	c, err := ProvideCache(cfg)
	require.NoError(t, err)

	sched := ProvideFetchScheduler(stubQuoter{}, stubStore{}, c, nil, nil, nil, nil, cfg)
	require.NotNil(t, sched)
}

func TestProvideStreamManagerUsesConfiguredIntervals(t *testing.T) {
	cfg := testConfig()
	c, err := ProvideCache(cfg)
	require.NoError(t, err)

	m := ProvideStreamManager(stubStore{}, c, nil, nil, cfg)
	require.NotNil(t, m)
	t.Cleanup(func() { _ = m.Close() })

	require.Equal(t, 10*time.Second, m.ClampInterval(0))
	require.Equal(t, time.Minute, m.ClampInterval(3600))
}
