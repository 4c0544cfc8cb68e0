//go:build wireinject
// +build wireinject

package di

import (
	"StockPilot/pkg/config"
	"StockPilot/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideMetrics,
	ProvideTracing,
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideClickHouseClient,
	ProvideRedisCache,
	ProvideKafkaConsumer,
)

var repositorySet = wire.NewSet(
	ProvidePriceStore,
	ProvideSentimentStore,
	ProvideIngestWriter,
	ProvideModelStore,
	ProvideParamStore,
	ProvideFeatureCache,
	ProvidePositionStore,
	ProvideResultPublisher,
)

var usecaseSet = wire.NewSet(
	ProvidePipelineService,
	ProvidePositionService,
	ProvideBarsUseCase,
	ProvideIngestHandlers,
	ProvideJobs,
	ProvideQueue,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		infraSet,
		repositorySet,
		usecaseSet,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeRunner wires the services used by the batch CLI.
func InitializeRunner(cfg *config.Config) (*Runner, error) {
	wire.Build(
		ProvideMetrics,
		ProvideTracing,
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvidePriceStore,
		ProvideSentimentStore,
		ProvideModelStore,
		ProvideParamStore,
		ProvideFeatureCache,
		ProvideResultPublisher,
		ProvidePipelineService,
		ProvideJobs,
		ProvideQueue,
		wire.Struct(new(Runner), "*"),
	)
	return &Runner{}, nil
}
