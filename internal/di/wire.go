//go:build wireinject
// +build wireinject

package di

import (
	"StockSignal/pkg/config"
	"StockSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideResponseCache,

		// Sentiment
		ProvidePolarityScorer,
		ProvideSentimentProviders,
		ProvideAggregator,

		// Market data
		ProvidePriceSource,
		ProvidePriceCache,
		ProvideMarketData,

		// Outputs
		ProvideSignalStore,
		ProvideHub,
		ProvideSignalSinks,

		// Use cases
		ProvideClassifier,
		ProvideAnalyzer,
		ProvideLatestReport,
		ProvideScheduler,
		ProvideRequestsHandler,

		// HTTP
		ProvideSignalsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
