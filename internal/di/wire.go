//go:build wireinject
// +build wireinject

package di

import (
	"StockRank/pkg/config"
	"StockRank/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvidePool,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideSnapshotStore,
		ProvideArchiver,
		ProvidePublisher,
		ProvideQuoter,

		// Use cases
		ProvideSearch,
		ProvideFetchScheduler,
		ProvideStreamManager,

		// Handlers
		ProvideSearchHandler,
		ProvideStreamHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
