package di

import (
	"context"

	domrepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/usecase"
	pkgcache "StockPilot/pkg/cache"
	pkgch "StockPilot/pkg/clickhouse"
	"StockPilot/pkg/config"
	pkgkafka "StockPilot/pkg/kafka"
	applogger "StockPilot/pkg/logger"
	"StockPilot/pkg/queue"
	"StockPilot/pkg/tracing"
)

// Runner bundles what the batch CLI needs without the HTTP surface.
type Runner struct {
	Config     *config.Config
	Logger     *applogger.Logger
	Pipeline   *usecase.PipelineService
	Publisher  domrepo.ResultPublisher
	Queue      *queue.RedisQueue
	ClickHouse *pkgch.Client
	Producer   *pkgkafka.Producer
	Redis      *pkgcache.Redis
	Tracing    tracing.ShutdownFunc
}

// Close releases every client the runner opened.
func (r *Runner) Close(ctx context.Context) {
	if r.Tracing != nil {
		if err := r.Tracing(ctx); err != nil {
			r.Logger.Warn("tracing shutdown error", applogger.Error(err))
		}
	}
	if r.Producer != nil {
		if err := r.Producer.Close(); err != nil {
			r.Logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			r.Logger.Warn("redis close error", applogger.Error(err))
		}
	}
	if r.ClickHouse != nil {
		if err := r.ClickHouse.Close(); err != nil {
			r.Logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	r.Logger.RemoveCollector()
}
