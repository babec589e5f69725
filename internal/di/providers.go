package di

import (
	"context"
	"fmt"
	"time"

	"StockRank/internal/domain/repository"
	"StockRank/internal/handler/api"
	"StockRank/internal/handler/ws"
	internalrepo "StockRank/internal/repository"
	"StockRank/internal/service/upstream"
	"StockRank/internal/stream"
	"StockRank/internal/usecase"
	"StockRank/pkg/cache"
	pkgch "StockRank/pkg/clickhouse"
	"StockRank/pkg/config"
	pkgkafka "StockRank/pkg/kafka"
	applogger "StockRank/pkg/logger"
	"StockRank/pkg/metrics"
	"StockRank/pkg/retry"
	"StockRank/pkg/server"
	"StockRank/pkg/sqlite"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePool opens the SQLite connection pool and prepares the schema.
func ProvidePool(cfg *config.Config) (*sqlite.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := sqlite.NewPool(ctx, cfg.Database.Path,
		sqlite.WithPoolSize(cfg.Database.PoolSize),
		sqlite.WithMaxConnections(cfg.Database.MaxConnections),
		sqlite.WithAcquireTimeout(cfg.Database.AcquireTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	return pool, nil
}

// ProvideSnapshotStore creates the SQLite snapshot repository.
func ProvideSnapshotStore(pool *sqlite.Pool, logger *applogger.Logger) (repository.SnapshotStore, error) {
	store := internalrepo.NewSQLiteSnapshotStore(pool)
	store.SetLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("snapshot schema: %w", err)
	}
	return store, nil
}

// ProvideCache selects the cache backend from config.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxSize),
		), nil
	case "redis":
		return cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	case "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MaxSize),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// ProvideQuoter creates the upstream quote client.
func ProvideQuoter(cfg *config.Config) repository.Quoter {
	return upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.RequestTimeout)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchiver creates the ClickHouse snapshot archive, or nil when disabled.
func ProvideArchiver(chClient *pkgch.Client) (repository.Archiver, error) {
	if chClient == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	archive, err := internalrepo.NewCHSnapshotArchive(ctx, chClient)
	if err != nil {
		return nil, fmt.Errorf("clickhouse archive: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka snapshot publisher, or nil when disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSearch creates the search use case.
func ProvideSearch(
	store repository.SnapshotStore,
	c cache.Service,
	mt repository.Metrics,
	logger *applogger.Logger,
) *usecase.Search {
	return usecase.NewSearch(store, c,
		usecase.WithSearchLogger(logger),
		usecase.WithSearchMetrics(mt),
	)
}

// ProvideFetchScheduler creates the periodic fetch scheduler.
func ProvideFetchScheduler(
	quoter repository.Quoter,
	store repository.SnapshotStore,
	c cache.Service,
	archiver repository.Archiver,
	publisher repository.Publisher,
	mt repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.FetchScheduler {
	opts := []usecase.FetchOption{
		usecase.WithFetchInterval(cfg.Fetch.Interval),
		usecase.WithFetchWorkers(cfg.Fetch.Workers),
		usecase.WithFetchMaxFailures(cfg.Fetch.MaxFailures),
		usecase.WithFetchRateLimit(cfg.Upstream.RatePerSecond, cfg.Upstream.RateBurst),
		usecase.WithFetchMetrics(mt),
		usecase.WithFetchLogger(logger),
	}
	if cfg.Fetch.RetryAttempts > 0 {
		opts = append(opts, usecase.WithFetchRetry(retry.Config{
			Attempts:  cfg.Fetch.RetryAttempts,
			BaseDelay: cfg.Fetch.RetryDelay,
			MaxDelay:  10 * time.Second,
		}))
	}
	if archiver != nil {
		opts = append(opts, usecase.WithFetchArchiver(archiver))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithFetchPublisher(publisher))
	}
	return usecase.NewFetchScheduler(quoter, store, c, cfg.Upstream.Symbols, opts...)
}

// ProvideStreamManager creates the live quote stream manager.
func ProvideStreamManager(
	store repository.SnapshotStore,
	c cache.Service,
	mt repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *stream.Manager {
	return stream.NewManager(store, c,
		stream.WithIntervals(cfg.Stream.DefaultInterval, cfg.Stream.MinInterval, cfg.Stream.MaxInterval),
		stream.WithManagerLogger(logger),
		stream.WithManagerMetrics(mt),
	)
}

// ProvideSearchHandler creates the REST handler.
func ProvideSearchHandler(logger *applogger.Logger, search *usecase.Search) *api.SearchHandler {
	return api.NewSearchHandler(logger, search)
}

// ProvideStreamHandler creates the websocket handler.
func ProvideStreamHandler(logger *applogger.Logger, manager *stream.Manager) *ws.StreamHandler {
	return ws.NewStreamHandler(logger, manager)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	scheduler *usecase.FetchScheduler,
	streamMgr *stream.Manager,
	searchHandler *api.SearchHandler,
	streamHandler *ws.StreamHandler,
	pool *sqlite.Pool,
	cacheSvc cache.Service,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, logger, scheduler, streamMgr, searchHandler, streamHandler)
	app.SetInfra(pool, cacheSvc, chClient, producer)
	return app
}
