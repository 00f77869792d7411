//go:build wireinject
// +build wireinject

package di

import (
	"InsiderScan/pkg/config"
	"InsiderScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideEventArchive,
		ProvideEventStore,
		ProvideSignalPublisher,
		ProvideFeedStream,
		ProvidePriceProvider,
		ProvidePriceCache,

		// Use cases
		ProvideEventProcessor,
		ProvideEventCollector,
		ProvideKafkaTradesHandler,
		ProvideScanRunner,
		ProvideBacktestRunner,
		ProvideScanJob,
		ProvideScanQueue,

		// HTTP and application server
		ProvideAPIHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
