package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/handler/api"
	internalrepo "StockPilot/internal/repository"
	icache "StockPilot/internal/service/cache"
	"StockPilot/internal/service/ratelimit"
	"StockPilot/internal/services/analytics"
	"StockPilot/internal/services/sentiment"
	"StockPilot/internal/usecase"
	pkgcache "StockPilot/pkg/cache"
	pkgch "StockPilot/pkg/clickhouse"
	"StockPilot/pkg/config"
	xhttp "StockPilot/pkg/http"
	pkgkafka "StockPilot/pkg/kafka"
	applogger "StockPilot/pkg/logger"
	"StockPilot/pkg/metrics"
	"StockPilot/pkg/queue"
	"StockPilot/pkg/server"
	"StockPilot/pkg/tracing"
)

// ProvideLogger creates the application logger. Error entries are
// aggregated and shipped to Kafka when the collector is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logger.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			Interval:  cfg.Logger.Collector.Interval,
			Threshold: cfg.Logger.Collector.Threshold,
			Topic:     cfg.Logger.Collector.Topic,
			Publisher: producer,
		})
	}
	return l.With(applogger.String("service", cfg.App.Name), applogger.String("env", cfg.App.Environment)), nil
}

// ProvideTracing installs the global tracer provider.
func ProvideTracing(cfg *config.Config) (tracing.ShutdownFunc, error) {
	shutdown, err := tracing.Setup(cfg.Tracing, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return shutdown, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema
// when configured.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := pkgch.NewClient(ctx, pkgch.Config{
		Host:             cfg.ClickHouse.Host,
		Port:             cfg.ClickHouse.Port,
		Database:         cfg.ClickHouse.Database,
		User:             cfg.ClickHouse.User,
		Password:         cfg.ClickHouse.Password,
		UseHTTP:          cfg.ClickHouse.UseHTTP,
		AsyncInsert:      cfg.ClickHouse.AsyncInsert,
		WaitForAsync:     cfg.ClickHouse.WaitForAsync,
		MaxOpenConns:     cfg.ClickHouse.MaxOpenConns,
		MaxIdleConns:     cfg.ClickHouse.MaxIdleConns,
		DialTimeout:      cfg.ClickHouse.DialTimeout,
		ReadTimeout:      cfg.ClickHouse.ReadTimeout,
		MaxExecutionTime: cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if !cfg.ClickHouse.InitSchema {
		return client, nil
	}

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func ProvidePriceStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHPriceStore {
	s := internalrepo.NewCHPriceStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

func ProvideSentimentStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHSentimentStore {
	s := internalrepo.NewCHSentimentStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

func ProvideIngestWriter(ch *pkgch.Client, cfg *config.Config) *internalrepo.CHIngestWriter {
	return internalrepo.NewCHIngestWriter(ch, cfg.ClickHouse.Database)
}

// ProvideModelStore picks the file or remote model store and wraps it in the
// in-process model cache.
func ProvideModelStore(cfg *config.Config) *icache.ModelCache {
	var store domrepo.ModelStore
	switch cfg.Models.Source {
	case "http":
		base := analytics.NewHTTPServiceBase(cfg.Models.ServiceURL, cfg.Models.Timeout,
			xhttp.WithUserAgent(cfg.App.Name+"/"+cfg.App.Version))
		store = analytics.NewHTTPModelStore(base, cfg.Models.Attempts)
	default:
		store = internalrepo.NewFileModelStore(cfg.Models.Dir)
	}
	return icache.NewModelCache(store, cfg.Models.CacheTTL)
}

func ProvideParamStore(cfg *config.Config, l *applogger.Logger) *internalrepo.ParamFileStore {
	s := internalrepo.NewParamFileStore(cfg.Params.Path)
	s.SetLogger(l)
	return s
}

// ProvideRedisCache connects to Redis. It returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.Redis, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedis(context.Background(), pkgcache.RedisConfig{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		Timeout:      cfg.Redis.Timeout,
		Prefix:       cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideFeatureCache builds the explicit feature cache over the configured backend.
func ProvideFeatureCache(cfg *config.Config, rc *pkgcache.Redis, l *applogger.Logger) icache.FeatureCache {
	var store pkgcache.Store
	switch cfg.Cache.Backend {
	case "none":
		return icache.NopFeatureCache{}
	case "redis":
		store = rc
	case "layered":
		store = pkgcache.NewLayered(rc, cfg.Cache.MemorySize, cfg.Cache.TTL)
	default:
		store = pkgcache.NewMemory(cfg.Cache.MemorySize, cfg.Cache.CleanupInterval)
	}
	fc := icache.NewStoreFeatureCache(store, cfg.Cache.TTL)
	fc.SetLogger(l)
	return fc
}

func pipelineConfig(cfg *config.Config) usecase.PipelineConfig {
	return usecase.PipelineConfig{
		MinDailyBars:  cfg.Pipeline.MinDailyBars,
		MinWeeklyBars: cfg.Pipeline.MinWeeklyBars,
		TopN:          cfg.Pipeline.TopN,
		Workers:       cfg.Pipeline.Workers,
		TickerTimeout: cfg.Pipeline.TickerTimeout,
	}
}

// RiskParams returns the configured default risk parameters.
func RiskParams(cfg *config.Config) models.RiskParams {
	return models.RiskParams{
		ATRMultiplier:   cfg.Risk.ATRMultiplier,
		RiskRewardRatio: cfg.Risk.RiskRewardRatio,
		LongRiskReward:  cfg.Risk.LongRiskReward,
		Mode:            models.PlanMode(cfg.Risk.Mode),
	}
}

// ProvidePipelineService creates the pipeline service use case.
func ProvidePipelineService(
	cfg *config.Config,
	prices *internalrepo.CHPriceStore,
	sent *internalrepo.CHSentimentStore,
	modelStore *icache.ModelCache,
	params *internalrepo.ParamFileStore,
	cache icache.FeatureCache,
	rec *metrics.Recorder,
	l *applogger.Logger,
) *usecase.PipelineService {
	svc := usecase.NewPipelineService(prices, sent, modelStore, params, cache, rec, pipelineConfig(cfg))
	svc.SetLogger(l.With(applogger.String("component", "pipeline")))
	return svc
}

// ProvidePositionStore uses Redis when enabled and process memory otherwise.
func ProvidePositionStore(rc *pkgcache.Redis) domrepo.PositionStore {
	if rc == nil {
		return internalrepo.NewMemoryPositionStore()
	}
	return internalrepo.NewRedisPositionStore(rc.Client())
}

func ProvidePositionService(cfg *config.Config, store domrepo.PositionStore, pipeline *usecase.PipelineService, l *applogger.Logger) *usecase.PositionService {
	svc := usecase.NewPositionService(store, pipeline, RiskParams(cfg))
	svc.SetLogger(l.With(applogger.String("component", "positions")))
	return svc
}

func ProvideBarsUseCase(prices *internalrepo.CHPriceStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(prices)
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		Linger:       cfg.Kafka.Producer.Linger,
		Async:        cfg.Kafka.Producer.Async,
		HashByKey:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher publishes batch results to Kafka, or drops them when
// Kafka is disabled.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.ResultPublisher {
	if producer == nil {
		return internalrepo.NopResultPublisher{}
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topics.ScreenResults, cfg.Kafka.Topics.BacktestResults)
}

// ProvideKafkaConsumer creates a Kafka consumer. It returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	cc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    cfg.Kafka.Brokers,
		GroupID:    cc.GroupID,
		Workers:    cc.Workers,
		BufferSize: cc.BufferSize,
		RetryMax:   cc.RetryMax,
		BackoffMin: cc.BackoffMin,
		BackoffMax: cc.BackoffMax,
		DLQTopic:   cc.DLQTopic,
		MinBytes:   cc.MinBytes,
		MaxBytes:   cc.MaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// IngestHandlers are the Kafka topic handlers of the ingest path.
type IngestHandlers []pkgkafka.MessageHandler

// ProvideIngestHandlers registers handlers for the bars and headlines topics.
func ProvideIngestHandlers(
	cfg *config.Config,
	writer *internalrepo.CHIngestWriter,
	cache icache.FeatureCache,
	rec *metrics.Recorder,
	l *applogger.Logger,
) IngestHandlers {
	bars := usecase.NewBarsIngestHandler(cfg.Kafka.Topics.Bars, writer, cache, rec)
	bars.SetLogger(l)
	heads := usecase.NewHeadlinesIngestHandler(cfg.Kafka.Topics.Headlines, writer, cache, rec, sentiment.Default)
	heads.SetLogger(l)
	return IngestHandlers{bars, heads}
}

// ProvideJobs creates the queue jobs.
func ProvideJobs(pipeline *usecase.PipelineService, publisher domrepo.ResultPublisher, l *applogger.Logger) []queue.Job {
	return []queue.Job{
		usecase.NewScreenJob(pipeline, publisher, l),
		usecase.NewBatchBacktestJob(pipeline, publisher, l),
	}
}

// ProvideQueue creates the Redis job queue. Every process can enqueue; the
// workers start with the app or the batch worker command. It returns nil when
// the queue is disabled.
func ProvideQueue(cfg *config.Config, rc *pkgcache.Redis, jobs []queue.Job, rec *metrics.Recorder, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(rc.Client(), queue.Config{
		Workers:    cfg.Queue.Workers,
		MaxPending: int64(cfg.Queue.MaxPending),
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, l.With(applogger.String("component", "queue")),
		queue.WithKeyPrefix(cfg.Queue.KeyPrefix),
		queue.WithObserver(rec),
	)
	q.Register(jobs...)
	return q
}

// ProvideHTTPHandler assembles the REST and websocket handlers.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.PipelineService,
	bars *usecase.BarsUseCase,
	positions *usecase.PositionService,
	q *queue.RedisQueue,
) xhttp.Handler {
	var jobs queue.Enqueuer
	if q != nil {
		jobs = q
	}
	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimit.Capacity > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
	}
	return xhttp.Handlers{
		api.NewAnalysisEchoHandler(l, pipeline, bars, jobs, limiter),
		api.NewPositionsEchoHandler(l, positions),
		api.NewScreenStreamHandler(l, pipeline),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	pipeline *usecase.PipelineService,
	params *internalrepo.ParamFileStore,
	consumer *pkgkafka.Consumer,
	ingest IngestHandlers,
	producer *pkgkafka.Producer,
	q *queue.RedisQueue,
	rc *pkgcache.Redis,
	shutdownTracing tracing.ShutdownFunc,
) *server.App {
	app := server.New(cfg, l, handler, chClient)
	app.WithStartupCheck(func(ctx context.Context) error {
		tickers, err := pipeline.CheckPriceData(ctx)
		if err != nil {
			return err
		}
		l.Info("price data available", applogger.Int("tickers", len(tickers)))
		return nil
	})
	if consumer != nil {
		app.WithConsumer(consumer, ingest...)
	}
	if q != nil {
		app.WithWorker("redis-queue", q)
	}
	if cfg.Params.Watch {
		app.WithWatcher(params)
	}
	if producer != nil {
		app.OnShutdown("kafka-producer", func(context.Context) error { return producer.Close() })
		app.OnShutdown("log-collector", func(context.Context) error {
			l.RemoveCollector()
			return nil
		})
	}
	if rc != nil {
		app.OnShutdown("redis", func(context.Context) error { return rc.Close() })
	}
	app.OnShutdown("tracing", func(ctx context.Context) error { return shutdownTracing(ctx) })
	return app
}

// IsFatal reports whether err must stop a process at startup.
func IsFatal(err error) bool {
	return errors.Is(err, models.ErrNoPriceData)
}
