package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	icache "StockPilot/internal/service/cache"
	"StockPilot/internal/services/features"
	"StockPilot/internal/services/signal"
	applogger "StockPilot/pkg/logger"
)

// PipelineConfig holds the gates and limits of the pipeline.
type PipelineConfig struct {
	MinDailyBars  int           `yaml:"min_daily_bars" default:"250" validate:"gte=1"`
	MinWeeklyBars int           `yaml:"min_weekly_bars" default:"52" validate:"gte=1"`
	TopN          int           `yaml:"top_n" default:"10" validate:"gte=1"`
	Workers       int           `yaml:"workers" default:"8" validate:"gte=1,lte=256"`
	TickerTimeout time.Duration `yaml:"ticker_timeout" default:"30s"`
}

// DefaultPipelineConfig mirrors the struct defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{MinDailyBars: 250, MinWeeklyBars: 52, TopN: 10, Workers: 8, TickerTimeout: 30 * time.Second}
}

// PipelineService runs the feature, signal and plan chain for single tickers
// and ticker universes.
type PipelineService struct {
	prices    domrepo.PriceStore
	sentiment domrepo.SentimentStore
	models    domrepo.ModelStore
	params    domrepo.ParamStore
	cache     icache.FeatureCache
	metrics   domrepo.Metrics
	cfg       PipelineConfig

	l      *applogger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewPipelineService(
	prices domrepo.PriceStore,
	sentiment domrepo.SentimentStore,
	modelStore domrepo.ModelStore,
	params domrepo.ParamStore,
	cache icache.FeatureCache,
	metrics domrepo.Metrics,
	cfg PipelineConfig,
) *PipelineService {
	if cache == nil {
		cache = icache.NopFeatureCache{}
	}
	def := DefaultPipelineConfig()
	if cfg.MinDailyBars <= 0 {
		cfg.MinDailyBars = def.MinDailyBars
	}
	if cfg.MinWeeklyBars <= 0 {
		cfg.MinWeeklyBars = def.MinWeeklyBars
	}
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &PipelineService{
		prices:    prices,
		sentiment: sentiment,
		models:    modelStore,
		params:    params,
		cache:     cache,
		metrics:   metrics,
		cfg:       cfg,
		l:         applogger.Nop(),
		tracer:    otel.Tracer("StockPilot/usecase"),
		now:       time.Now,
	}
}

// SetLogger injects a structured logger.
func (s *PipelineService) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// Config returns the effective configuration.
func (s *PipelineService) Config() PipelineConfig { return s.cfg }

// CheckPriceData fails with ErrNoPriceData when the store holds no ticker at all.
func (s *PipelineService) CheckPriceData(ctx context.Context) ([]string, error) {
	tickers, err := s.prices.Tickers(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNoPriceData
		}
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, models.ErrNoPriceData
	}
	return tickers, nil
}

// Parameters resolves the parameter set of a ticker: the override when given,
// else the stored entry, else the defaults.
func (s *PipelineService) Parameters(ctx context.Context, ticker string, override *models.ModelParameterSet) models.ModelParameterSet {
	if override != nil {
		return override.Normalized()
	}
	if s.params == nil {
		return models.DefaultParameters()
	}
	all, err := s.params.LoadParameters(ctx)
	if err != nil {
		s.l.Warn("parameter store unavailable, using defaults", applogger.String("ticker", ticker), applogger.Error(err))
		return models.DefaultParameters()
	}
	if p, ok := all[ticker]; ok {
		return p.Normalized()
	}
	return models.DefaultParameters()
}

// Features loads the ticker's series and builds its feature table. Tickers
// with fewer than MinDailyBars daily bars fail with ErrInsufficientHistory.
func (s *PipelineService) Features(ctx context.Context, ticker string, override *models.ModelParameterSet) (*models.FeatureTable, error) {
	params := s.Parameters(ctx, ticker, override)
	key := icache.KeyFor(ticker, params)
	if t, ok := s.cache.Get(ctx, key); ok {
		return t, nil
	}

	ctx, span := s.tracer.Start(ctx, "pipeline.features", trace.WithAttributes(attribute.String("ticker", ticker)))
	defer span.End()

	start := time.Now()
	daily, err := s.prices.DailyBars(ctx, ticker)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("daily bars %s: %w", ticker, err))
	}
	if len(daily) < s.cfg.MinDailyBars {
		return nil, s.fail(span, fmt.Errorf("%s has %d daily bars, need %d: %w", ticker, len(daily), s.cfg.MinDailyBars, models.ErrInsufficientHistory))
	}

	weekly, err := s.prices.WeeklyBars(ctx, ticker)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, s.fail(span, fmt.Errorf("weekly bars %s: %w", ticker, err))
		}
		weekly = nil
	}

	var news []models.SentimentRecord
	if s.sentiment != nil {
		news, err = s.sentiment.Sentiment(ctx, ticker)
		if err != nil {
			s.l.Warn("sentiment unavailable, using none", applogger.String("ticker", ticker), applogger.Error(err))
			news = nil
		}
	}
	s.observe("load", start)

	start = time.Now()
	table := features.BuildFeatures(ticker, daily, weekly, news, params)
	s.observe("features", start)

	if err := s.cache.Put(ctx, key, table); err != nil {
		s.l.Warn("feature cache put failed", applogger.String("ticker", ticker), applogger.Error(err))
	}
	return table, nil
}

// RunPipeline builds the feature table and labels every row with the
// direction model. A nil params selects the stored or default parameters.
func (s *PipelineService) RunPipeline(ctx context.Context, ticker string, params *models.ModelParameterSet) (*models.SignalTable, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("ticker", ticker)))
	defer span.End()

	table, err := s.Features(ctx, ticker, params)
	if err != nil {
		return nil, s.fail(span, err)
	}
	model, err := s.models.LoadModel(ctx, ticker, models.KindDirection)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("direction model %s: %w", ticker, err))
	}

	start := time.Now()
	if missing := features.Missing(table, model.FeatureNames()); len(missing) > 0 {
		s.l.Debug("zero-filling columns absent from the feature table",
			applogger.String("ticker", ticker), applogger.Strings("columns", missing))
	}
	sigs, err := signal.Predict(table, model)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("signals %s: %w", ticker, err))
	}
	s.observe("predict", start)
	return &models.SignalTable{Features: table, Signals: sigs}, nil
}

func (s *PipelineService) observe(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStage(stage, time.Since(start).Seconds())
	}
}

func (s *PipelineService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
