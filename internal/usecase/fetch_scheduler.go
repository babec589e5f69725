package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockRank/internal/domain/models"
	drepo "StockRank/internal/domain/repository"
	"StockRank/internal/service/ratelimit"
	"StockRank/pkg/cache"
	applogger "StockRank/pkg/logger"
	"StockRank/pkg/retry"
)

const upstreamLimiterKey = "upstream"

// FetchOption configures FetchScheduler.
type FetchOption func(*FetchScheduler)

// FetchScheduler refreshes the snapshot store from the upstream feed on a
// cron schedule. Cycles never overlap; after MaxFailures consecutive failed
// cycles the schedule stops until Restart.
type FetchScheduler struct {
	quoter    drepo.Quoter
	store     drepo.SnapshotStore
	cache     cache.Service
	archiver  drepo.Archiver
	publisher drepo.Publisher
	limiter   *ratelimit.Limiter
	metrics   drepo.Metrics
	logger    *applogger.Logger

	symbols     []string
	interval    time.Duration
	workers     int
	retryCfg    retry.Config
	maxFailures int
	ratePerSec  float64
	rateBurst   float64

	cron    *cron.Cron
	entryID cron.EntryID

	mu       sync.Mutex
	running  bool
	failures int
	tripped  bool
}

// NewFetchScheduler creates the scheduler.
func NewFetchScheduler(quoter drepo.Quoter, store drepo.SnapshotStore, c cache.Service, symbols []string, opts ...FetchOption) *FetchScheduler {
	fs := &FetchScheduler{
		quoter:      quoter,
		store:       store,
		cache:       c,
		limiter:     ratelimit.New(),
		symbols:     symbols,
		interval:    time.Minute,
		workers:     4,
		retryCfg:    retry.DefaultConfig(),
		maxFailures: 5,
		ratePerSec:  10,
		rateBurst:   10,
		cron:        cron.New(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// WithFetchInterval sets the cycle interval.
func WithFetchInterval(d time.Duration) FetchOption {
	return func(fs *FetchScheduler) {
		if d > 0 {
			fs.interval = d
		}
	}
}

// WithFetchWorkers sets the worker pool size.
func WithFetchWorkers(n int) FetchOption {
	return func(fs *FetchScheduler) {
		if n > 0 {
			fs.workers = n
		}
	}
}

// WithFetchRetry sets the per-symbol retry policy.
func WithFetchRetry(cfg retry.Config) FetchOption {
	return func(fs *FetchScheduler) { fs.retryCfg = cfg }
}

// WithFetchMaxFailures sets the circuit breaker threshold.
func WithFetchMaxFailures(n int) FetchOption {
	return func(fs *FetchScheduler) {
		if n > 0 {
			fs.maxFailures = n
		}
	}
}

// WithFetchRateLimit sets the upstream token bucket parameters.
func WithFetchRateLimit(perSecond float64, burst int) FetchOption {
	return func(fs *FetchScheduler) {
		if perSecond > 0 {
			fs.ratePerSec = perSecond
		}
		if burst > 0 {
			fs.rateBurst = float64(burst)
		}
	}
}

// WithFetchArchiver attaches an optional history archiver.
func WithFetchArchiver(a drepo.Archiver) FetchOption {
	return func(fs *FetchScheduler) { fs.archiver = a }
}

// WithFetchPublisher attaches an optional update publisher.
func WithFetchPublisher(p drepo.Publisher) FetchOption {
	return func(fs *FetchScheduler) { fs.publisher = p }
}

// WithFetchMetrics attaches a metrics recorder.
func WithFetchMetrics(m drepo.Metrics) FetchOption {
	return func(fs *FetchScheduler) { fs.metrics = m }
}

// WithFetchLogger attaches a logger.
func WithFetchLogger(l *applogger.Logger) FetchOption {
	return func(fs *FetchScheduler) { fs.logger = l }
}

// Start schedules fetch cycles and runs the first one immediately.
func (fs *FetchScheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", fs.interval)
	id, err := fs.cron.AddFunc(spec, func() {
		if err := fs.RunCycle(ctx); err != nil && fs.logger != nil {
			fs.logger.Error("fetch cycle failed", applogger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule fetch: %w", err)
	}
	fs.entryID = id
	fs.cron.Start()

	go func() {
		if err := fs.RunCycle(ctx); err != nil && fs.logger != nil {
			fs.logger.Error("initial fetch cycle failed", applogger.Error(err))
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (fs *FetchScheduler) Stop(ctx context.Context) error {
	done := fs.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tripped reports whether the circuit breaker is open.
func (fs *FetchScheduler) Tripped() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.tripped
}

// RunCycle fetches every configured symbol once. Overlapping calls are
// skipped rather than queued.
func (fs *FetchScheduler) RunCycle(ctx context.Context) error {
	fs.mu.Lock()
	if fs.running || fs.tripped {
		fs.mu.Unlock()
		return nil
	}
	fs.running = true
	fs.mu.Unlock()
	defer func() {
		fs.mu.Lock()
		fs.running = false
		fs.mu.Unlock()
	}()

	start := time.Now()
	snaps := fs.fetchAll(ctx)

	if len(snaps) == 0 {
		fs.noteFailure()
		if fs.metrics != nil {
			fs.metrics.RecordFetchCycle("failed")
		}
		return fmt.Errorf("fetch cycle: no symbol succeeded")
	}

	if err := fs.store.UpsertBatch(ctx, snaps); err != nil {
		fs.noteFailure()
		if fs.metrics != nil {
			fs.metrics.RecordFetchCycle("store_error")
		}
		return fmt.Errorf("store snapshots: %w", err)
	}

	fs.afterWrite(ctx, snaps)
	fs.noteSuccess()

	if fs.metrics != nil {
		fs.metrics.RecordFetchCycle("ok")
		fs.metrics.RecordLatency("fetch_cycle", time.Since(start).Seconds())
	}
	if fs.logger != nil {
		fs.logger.Info("fetch cycle complete",
			applogger.Int("symbols", len(fs.symbols)),
			applogger.Int("fetched", len(snaps)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return nil
}

// fetchAll runs the worker pool over the symbol list. Failed symbols are
// logged and skipped so one bad ticker cannot starve the rest.
func (fs *FetchScheduler) fetchAll(ctx context.Context) []*models.Snapshot {
	jobs := make(chan string)
	results := make(chan *models.Snapshot)

	var wg sync.WaitGroup
	for i := 0; i < fs.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				snap, err := fs.fetchOne(ctx, symbol)
				if err != nil {
					if fs.logger != nil {
						fs.logger.Warn("symbol fetch failed",
							applogger.String("symbol", symbol),
							applogger.Error(err),
						)
					}
					continue
				}
				results <- snap
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, symbol := range fs.symbols {
			select {
			case jobs <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var snaps []*models.Snapshot
	for snap := range results {
		snaps = append(snaps, snap)
	}
	return snaps
}

// fetchOne fetches a single symbol: fresh cache entries short-circuit the
// upstream call; otherwise rate-limit, then retry with backoff.
func (fs *FetchScheduler) fetchOne(ctx context.Context, symbol string) (*models.Snapshot, error) {
	key := cache.GenerateKey("snapshot", symbol)
	var cached models.Snapshot
	if err := fs.cache.Get(ctx, key, &cached); err == nil && cached.Valid() {
		if fs.metrics != nil {
			fs.metrics.RecordCacheOp("snapshot", "hit")
		}
		return &cached, nil
	}
	if fs.metrics != nil {
		fs.metrics.RecordCacheOp("snapshot", "miss")
	}

	if err := fs.limiter.Wait(ctx, upstreamLimiterKey, fs.rateBurst, fs.ratePerSec); err != nil {
		return nil, err
	}

	var snap *models.Snapshot
	err := retry.Do(ctx, fs.retryCfg, func(ctx context.Context) error {
		s, err := fs.quoter.Quote(ctx, symbol)
		if err != nil {
			return err
		}
		if !s.Valid() {
			return fmt.Errorf("quote %s: missing price", symbol)
		}
		snap = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = fs.cache.Set(ctx, key, *snap, SnapshotTTL)
	if fs.metrics != nil && snap.Price != nil {
		fs.metrics.RecordLastPrice(snap.Symbol, *snap.Price)
	}
	return snap, nil
}

// afterWrite archives, publishes and invalidates derived caches.
func (fs *FetchScheduler) afterWrite(ctx context.Context, snaps []*models.Snapshot) {
	now := time.Now().UTC()

	if fs.archiver != nil {
		if err := fs.archiver.Archive(ctx, snaps, now); err != nil && fs.logger != nil {
			fs.logger.Warn("snapshot archive failed", applogger.Error(err))
		}
	}
	if fs.publisher != nil {
		if err := fs.publisher.PublishBatch(ctx, snaps); err != nil && fs.logger != nil {
			fs.logger.Warn("snapshot publish failed", applogger.Error(err))
		}
	}

	// Derived views are stale the moment new rows land.
	for _, pattern := range []string{"snapshots:*", "tokens:*", "search:*"} {
		if err := fs.cache.DeleteByPattern(ctx, pattern); err != nil && fs.logger != nil {
			fs.logger.Warn("cache invalidation failed",
				applogger.String("pattern", pattern),
				applogger.Error(err),
			)
		}
	}
}

func (fs *FetchScheduler) noteFailure() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failures++
	if fs.failures >= fs.maxFailures && !fs.tripped {
		fs.tripped = true
		fs.cron.Remove(fs.entryID)
		if fs.logger != nil {
			fs.logger.Error("fetch circuit breaker open",
				applogger.Int("consecutive_failures", fs.failures),
			)
		}
	}
}

func (fs *FetchScheduler) noteSuccess() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failures = 0
}
