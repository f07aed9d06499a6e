//go:build wireinject
// +build wireinject

package di

import (
	"SignalBoard/pkg/config"
	"SignalBoard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,

		// Metrics
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideBlobStores,
		ProvideSourceRepository,
		ProvideSnapshotStore,
		ProvideTradeLedger,
		ProvideTradeStorage,
		ProvideTradePublisher,

		// Use cases
		ProvideTradeProcessor,
		ProvideSinkPipeline,
		ProvideMarketClock,
		ProvideRefresher,
		ProvidePoller,

		// Transport
		ProvideHub,
		ProvideDashboardHandler,
		ProvideHTTPServer,

		// Application server
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
