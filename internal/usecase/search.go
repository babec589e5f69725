package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockRank/internal/domain/models"
	drepo "StockRank/internal/domain/repository"
	"StockRank/internal/rank"
	"StockRank/pkg/cache"
	applogger "StockRank/pkg/logger"
)

// Named cache TTLs. Snapshots churn every fetch cycle; token series and query
// responses survive longer and are invalidated on writes.
const (
	SnapshotTTL = 30 * time.Second
	SeriesTTL   = 300 * time.Second
	SearchTTL   = 120 * time.Second
)

// SearchOption configures Search.
type SearchOption func(*Search)

// Search serves ranked queries over the latest snapshot set. The ranking
// itself is pure; this layer adds storage access and caching.
type Search struct {
	store    drepo.SnapshotStore
	cache    cache.Service
	pipeline *rank.Pipeline
	metrics  drepo.Metrics
	logger   *applogger.Logger
	now      func() time.Time
}

// NewSearch creates the search usecase.
func NewSearch(store drepo.SnapshotStore, c cache.Service, opts ...SearchOption) *Search {
	s := &Search{
		store:    store,
		cache:    c,
		pipeline: rank.NewPipeline(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSearchLogger attaches a logger.
func WithSearchLogger(l *applogger.Logger) SearchOption {
	return func(s *Search) { s.logger = l }
}

// WithSearchMetrics attaches a metrics recorder.
func WithSearchMetrics(m drepo.Metrics) SearchOption {
	return func(s *Search) { s.metrics = m }
}

// WithSearchClock overrides the clock, for tests.
func WithSearchClock(now func() time.Time) SearchOption {
	return func(s *Search) { s.now = now }
}

// SearchKey derives the response cache key for a request.
func SearchKey(req *models.SearchRequest) string {
	raw := fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(req.Query)), strings.ToLower(req.Sector), req.Limit)
	return cache.GenerateKey("search", cache.HashKey(raw))
}

// Run answers a search request, serving from the response cache when possible.
func (s *Search) Run(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := s.now()
	key := SearchKey(req)

	var cached models.SearchResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		cached.Cached = true
		s.record("search", "hit")
		s.observe("search", start)
		if s.metrics != nil {
			s.metrics.RecordSearch("cached")
		}
		return &cached, nil
	}
	s.record("search", "miss")

	resp, err := s.compute(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSearch("error")
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, key, *resp, SearchTTL); err != nil && s.logger != nil {
		s.logger.Warn("search response cache write failed", applogger.Error(err))
	}
	s.observe("search", start)
	if s.metrics != nil {
		s.metrics.RecordSearch(outcome(resp))
	}
	return resp, nil
}

func (s *Search) compute(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	snaps, err := s.latestSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	now := s.now().UTC()
	if len(snaps) == 0 {
		return &models.SearchResponse{
			Metadata: models.SearchMetadata{
				Query:         req.Query,
				Timestamp:     now,
				TotalResults:  0,
				RankingMethod: rank.RankingMethod,
			},
			Results: []models.SearchResult{},
			Message: "no data yet",
		}, nil
	}

	tokenized := s.tokenizedSeries(ctx, snaps)
	return s.pipeline.Run(req.Query, req.Sector, req.Limit, tokenized, now), nil
}

// ListStocks returns the latest snapshots, optionally narrowed to a sector.
func (s *Search) ListStocks(ctx context.Context, sector string, limit int) ([]*models.Snapshot, error) {
	snaps, err := s.latestSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	if sector != "" {
		want := strings.ToLower(strings.TrimSpace(sector))
		filtered := snaps[:0:0]
		for _, snap := range snaps {
			if strings.ToLower(snap.Sector) == want {
				filtered = append(filtered, snap)
			}
		}
		snaps = filtered
	}

	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

// Health reports whether the store and cache respond.
func (s *Search) Health(ctx context.Context) error {
	if err := s.store.Health(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.cache.Set(ctx, "health:ping", "ok", time.Minute); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// latestSnapshots loads the current snapshot set through the snapshots cache.
// GetOrCompute collapses a thundering herd of queries into one store read.
func (s *Search) latestSnapshots(ctx context.Context) ([]*models.Snapshot, error) {
	snaps, err := cache.GetOrComputeTyped(ctx, s.cache, "snapshots:all", SnapshotTTL,
		func(ctx context.Context) ([]*models.Snapshot, error) {
			s.record("snapshots", "miss")
			return s.store.ListLatest(ctx)
		})
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

// tokenizedSeries tokenizes the snapshot set, reusing per-symbol token caches
// when a snapshot has not changed since the last cycle.
func (s *Search) tokenizedSeries(ctx context.Context, snaps []*models.Snapshot) []rank.TokenizedSnapshot {
	tokenizer := s.pipeline.SnapshotTokenizer()
	out := make([]rank.TokenizedSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Valid() {
			continue
		}

		key := cache.GenerateKey("tokens", snap.Symbol)
		var tokens []string
		if err := s.cache.Get(ctx, key, &tokens); err == nil {
			out = append(out, rank.TokenizedSnapshot{Snapshot: snap, Tokens: rank.NewTokenSet(tokens...)})
			continue
		}

		set := tokenizer.Tokenize(snap)
		_ = s.cache.Set(ctx, key, set.Sorted(), SeriesTTL)
		out = append(out, rank.TokenizedSnapshot{Snapshot: snap, Tokens: set})
	}
	return out
}

func (s *Search) record(cacheName, result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheOp(cacheName, result)
	}
}

func (s *Search) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordLatency(op, s.now().Sub(start).Seconds())
	}
}

func outcome(resp *models.SearchResponse) string {
	if resp.Message != "" {
		return "no_data"
	}
	if len(resp.Results) == 0 {
		return "empty"
	}
	return "ok"
}
