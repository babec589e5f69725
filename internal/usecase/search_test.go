package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockRank/internal/domain/models"
	"StockRank/pkg/cache"
)

type fakeStore struct {
	snaps   []*models.Snapshot
	listErr error
	lists   int
}

func (f *fakeStore) Init(context.Context) error                          { return nil }
func (f *fakeStore) Upsert(context.Context, *models.Snapshot) error      { return nil }
func (f *fakeStore) UpsertBatch(context.Context, []*models.Snapshot) error { return nil }
func (f *fakeStore) GetLatest(context.Context, string) (*models.Snapshot, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStore) ListLatest(context.Context) ([]*models.Snapshot, error) {
	f.lists++
	return f.snaps, f.listErr
}
func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

func testSnapshot(symbol, sector string, change float64) *models.Snapshot {
	return &models.Snapshot{
		Symbol:        symbol,
		CompanyName:   symbol + " Corp",
		Sector:        sector,
		Price:         models.Float64Ptr(100),
		ChangePercent: models.Float64Ptr(change),
		LastUpdated:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestSearch(t *testing.T, store *fakeStore) *Search {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return NewSearch(store, mc)
}

func TestSearchNoDataYet(t *testing.T) {
	s := newTestSearch(t, &fakeStore{})

	resp, err := s.Run(context.Background(), &models.SearchRequest{Query: "rising tech stocks", Limit: 10})
	require.NoError(t, err)
	require.Empty(t, resp.Results)
	require.Equal(t, "no data yet", resp.Message)
	require.False(t, resp.Cached)
}

func TestSearchRanksAndCaches(t *testing.T) {
	store := &fakeStore{snaps: []*models.Snapshot{
		testSnapshot("AAPL", "Technology", 3.1),
		testSnapshot("JPM", "Financial Services", 0.2),
		testSnapshot("XOM", "Energy", -2.5),
	}}
	s := newTestSearch(t, store)

	req := &models.SearchRequest{Query: "rising tech stocks", Limit: 10}
	first, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)
	require.Equal(t, "AAPL", first.Results[0].Symbol)
	require.False(t, first.Cached)

	// Second identical query is served from the response cache.
	second, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Results, second.Results)
	require.Equal(t, 1, store.lists, "store read once")
}

func TestSearchDeterministic(t *testing.T) {
	store := &fakeStore{snaps: []*models.Snapshot{
		testSnapshot("MSFT", "Technology", 2.5),
		testSnapshot("AAPL", "Technology", 2.5),
		testSnapshot("NVDA", "Technology", 2.5),
	}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := NewSearch(store, mc, WithSearchClock(func() time.Time { return fixed }))

	var symbols []string
	for i := 0; i < 5; i++ {
		// bypass the response cache with distinct limits mapping to same data
		_ = mc.DeleteByPattern(context.Background(), "search:*")
		resp, err := s.Run(context.Background(), &models.SearchRequest{Query: "rising tech stocks", Limit: 10})
		require.NoError(t, err)
		got := make([]string, 0, len(resp.Results))
		for _, r := range resp.Results {
			got = append(got, r.Symbol)
		}
		if symbols == nil {
			symbols = got
			// identical scores break ties by symbol ascending
			require.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, got)
		} else {
			require.Equal(t, symbols, got)
		}
	}
}

func TestSearchSectorParameterNarrows(t *testing.T) {
	store := &fakeStore{snaps: []*models.Snapshot{
		testSnapshot("AAPL", "Technology", 1.0),
		testSnapshot("JPM", "Financial Services", 1.0),
	}}
	s := newTestSearch(t, store)

	resp, err := s.Run(context.Background(), &models.SearchRequest{Query: "rising stocks", Sector: "technology", Limit: 10})
	require.NoError(t, err)
	for _, r := range resp.Results {
		require.Equal(t, "Technology", r.Sector)
	}
}

func TestListStocks(t *testing.T) {
	store := &fakeStore{snaps: []*models.Snapshot{
		testSnapshot("AAPL", "Technology", 1.0),
		testSnapshot("MSFT", "Technology", 1.0),
		testSnapshot("JPM", "Financial Services", 1.0),
	}}
	s := newTestSearch(t, store)

	all, err := s.ListStocks(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	tech, err := s.ListStocks(context.Background(), "Technology", 1)
	require.NoError(t, err)
	require.Len(t, tech, 1)
	require.Equal(t, "Technology", tech[0].Sector)
}

func TestSearchStoreError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	s := newTestSearch(t, store)

	_, err := s.Run(context.Background(), &models.SearchRequest{Query: "anything", Limit: 10})
	require.Error(t, err)
}
