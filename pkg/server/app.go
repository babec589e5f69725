package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockRank/internal/stream"
	"StockRank/internal/usecase"
	pkgch "StockRank/pkg/clickhouse"
	"StockRank/pkg/config"
	xhttp "StockRank/pkg/http"
	pkgkafka "StockRank/pkg/kafka"
	applogger "StockRank/pkg/logger"
	"StockRank/pkg/sqlite"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	scheduler  *usecase.FetchScheduler
	streamMgr  *stream.Manager
	handlers   []xhttp.Handler
	httpServer *xhttp.Server

	pool     *sqlite.Pool
	cacheSvc interface{ Close() error }
	chClient *pkgch.Client
	producer *pkgkafka.Producer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	scheduler *usecase.FetchScheduler,
	streamMgr *stream.Manager,
	handlers ...xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		streamMgr: streamMgr,
		handlers:  handlers,
	}
}

// SetInfra hands the app the infrastructure handles to close on shutdown.
// chClient and producer may be nil when the corresponding backends are
// disabled in config.
func (a *App) SetInfra(pool *sqlite.Pool, cacheSvc interface{ Close() error }, chClient *pkgch.Client, producer *pkgkafka.Producer) {
	a.pool = pool
	a.cacheSvc = cacheSvc
	a.chClient = chClient
	a.producer = producer
}

type routeGroup []xhttp.Handler

func (g routeGroup) RegisterRoutes(e *echo.Echo) {
	for _, h := range g {
		h.RegisterRoutes(e)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(routeGroup(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if err := a.scheduler.Start(ctx); err != nil {
		a.logger.Error("fetch scheduler start error", applogger.Error(err))
		return err
	}
	a.logger.Info("fetch scheduler started",
		applogger.Strings("symbols", a.cfg.Upstream.Symbols),
		applogger.Duration("interval", a.cfg.Fetch.Interval))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("fetch scheduler stop error", applogger.Error(err))
	}

	if err := a.streamMgr.Close(); err != nil {
		a.logger.Warn("stream manager close error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("sqlite pool close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
