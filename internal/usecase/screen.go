package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/services/screener"
	applogger "StockPilot/pkg/logger"
)

// ScreenOptions are the per-call settings of RunScreen.
type ScreenOptions struct {
	TopN     int
	Workers  int
	RunID    string
	Progress func(models.TickerOutcome)
}

// ScreenOption tunes a single RunScreen call.
type ScreenOption func(*ScreenOptions)

// WithTopN caps each pick list.
func WithTopN(n int) ScreenOption {
	return func(o *ScreenOptions) {
		if n > 0 {
			o.TopN = n
		}
	}
}

// WithWorkers bounds the number of tickers processed at once.
func WithWorkers(n int) ScreenOption {
	return func(o *ScreenOptions) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithRunID sets the run identifier instead of a generated one.
func WithRunID(id string) ScreenOption {
	return func(o *ScreenOptions) {
		if id != "" {
			o.RunID = id
		}
	}
}

// WithProgress receives every ticker outcome as it completes. Calls are serialized.
func WithProgress(fn func(models.TickerOutcome)) ScreenOption {
	return func(o *ScreenOptions) { o.Progress = fn }
}

type tickerScreen struct {
	short   *models.ShortTermPick
	long    *models.LongTermPick
	outcome models.TickerOutcome
}

// RunScreen runs the pipeline for every ticker of the universe, collects the
// short and long term picks, and ranks them once all workers have finished.
// Per-ticker failures are reported in the summary and never abort the run.
func (s *PipelineService) RunScreen(ctx context.Context, universe []string, risk models.RiskParams, opts ...ScreenOption) (*models.ScreenResult, error) {
	o := ScreenOptions{TopN: s.cfg.TopN, Workers: s.cfg.Workers}
	for _, opt := range opts {
		opt(&o)
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	risk = riskOrDefault(risk)

	tickers, err := s.universe(ctx, universe)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "pipeline.screen", trace.WithAttributes(
		attribute.String("run_id", o.RunID), attribute.Int("tickers", len(tickers))))
	defer span.End()

	log := s.l.With(applogger.String("run_id", o.RunID))
	log.Info("screen started", applogger.Int("tickers", len(tickers)), applogger.Int("workers", o.Workers))
	start := time.Now()

	var progressMu sync.Mutex
	results := make([]tickerScreen, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			tctx, cancel := s.tickerContext(gctx)
			defer cancel()
			results[i] = s.screenTicker(tctx, ticker, risk)
			if o.Progress != nil {
				progressMu.Lock()
				o.Progress(results[i].outcome)
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &models.ScreenResult{
		RunID:     o.RunID,
		AsOf:      s.now().UTC(),
		ShortTerm: []models.ShortTermPick{},
		LongTerm:  []models.LongTermPick{},
	}
	var shorts []models.ShortTermPick
	var longs []models.LongTermPick
	for _, r := range results {
		res.Summary.Add(r.outcome)
		if r.short != nil {
			shorts = append(shorts, *r.short)
		}
		if r.long != nil {
			longs = append(longs, *r.long)
		}
	}
	if len(shorts) > 0 {
		res.ShortTerm = screener.RankShort(shorts, o.TopN)
	}
	if len(longs) > 0 {
		res.LongTerm = screener.RankLong(longs, o.TopN)
	}
	res.DurationMS = time.Since(start).Milliseconds()
	s.observe("screen", start)

	log.Info("screen finished",
		applogger.Int("succeeded", res.Summary.Succeeded),
		applogger.Int("failed", res.Summary.Failed),
		applogger.Int("short_term", len(res.ShortTerm)),
		applogger.Int("long_term", len(res.LongTerm)),
		applogger.Int64("duration_ms", res.DurationMS))
	return res, nil
}

func (s *PipelineService) screenTicker(ctx context.Context, ticker string, risk models.RiskParams) tickerScreen {
	st, err := s.RunPipeline(ctx, ticker, nil)
	out := tickerScreen{outcome: s.outcome("screen", ticker, err)}
	if err != nil {
		return out
	}
	row := st.Features.Last()
	if pick, ok := screener.ShortTerm(ticker, row, st.LastSignal().Direction, risk); ok {
		out.short = &pick
	}
	if st.Features.WeeklyBars >= s.cfg.MinWeeklyBars {
		if pick, ok := screener.LongTerm(ticker, row, risk.LongRiskReward); ok {
			out.long = &pick
		}
	}
	return out
}

// universe returns the requested tickers, or every stored ticker when none
// are requested. Requested tickers are trimmed and de-duplicated.
func (s *PipelineService) universe(ctx context.Context, requested []string) ([]string, error) {
	seen := make(map[string]struct{}, len(requested))
	var out []string
	for _, t := range requested {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > 0 {
		return out, nil
	}
	return s.CheckPriceData(ctx)
}

func (s *PipelineService) tickerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.TickerTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.TickerTimeout)
	}
	return context.WithCancel(ctx)
}

// outcome classifies err, logs failures at warn and records the outcome metric.
func (s *PipelineService) outcome(op, ticker string, err error) models.TickerOutcome {
	if err == nil {
		if s.metrics != nil {
			s.metrics.RecordOutcome(op, "")
		}
		return models.TickerOutcome{Ticker: ticker, OK: true}
	}
	reason := models.ClassifyFailure(err)
	if s.metrics != nil {
		s.metrics.RecordOutcome(op, reason)
	}
	s.l.Warn("ticker skipped",
		applogger.String("op", op),
		applogger.String("ticker", ticker),
		applogger.String("reason", string(reason)),
		applogger.Error(err))
	return models.TickerOutcome{Ticker: ticker, OK: false, Reason: reason, Error: err.Error()}
}
