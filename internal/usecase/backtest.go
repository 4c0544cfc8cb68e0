package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/services/backtest"
	applogger "StockPilot/pkg/logger"
)

func backtestOrDefault(req models.BacktestRequest) models.BacktestRequest {
	if req.InitialCash <= 0 {
		req.InitialCash = models.DefaultInitialCash
	}
	if req.Strategy == "" {
		req.Strategy = models.StrategyModel
	}
	return req
}

// RunBacktest replays the chosen signal source over the ticker's history.
func (s *PipelineService) RunBacktest(ctx context.Context, ticker string, req models.BacktestRequest) (*models.BacktestReport, error) {
	req = backtestOrDefault(req)
	ctx, span := s.tracer.Start(ctx, "pipeline.backtest", trace.WithAttributes(
		attribute.String("ticker", ticker), attribute.String("strategy", string(req.Strategy))))
	defer span.End()

	var (
		table *models.FeatureTable
		bars  []models.SimBar
	)
	switch req.Strategy {
	case models.StrategyGoldenCross:
		t, err := s.Features(ctx, ticker, nil)
		if err != nil {
			return nil, s.fail(span, err)
		}
		table, bars = t, backtest.GoldenCross(t)
	case models.StrategyModel:
		st, err := s.RunPipeline(ctx, ticker, nil)
		if err != nil {
			return nil, s.fail(span, err)
		}
		table, bars = st.Features, backtest.FromSignals(st.Features, st.Signals)
	default:
		return nil, s.fail(span, fmt.Errorf("unknown strategy %q", req.Strategy))
	}

	curve, summary, err := backtest.Simulate(bars, req.InitialCash)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("simulate %s: %w", ticker, err))
	}
	return &models.BacktestReport{
		Ticker:   ticker,
		Strategy: req.Strategy,
		From:     table.Rows[0].Date,
		To:       table.Rows[len(table.Rows)-1].Date,
		Curve:    curve,
		Summary:  summary,
	}, nil
}

// RunBatchBacktest backtests every ticker of the universe in parallel. Reports
// carry no equity curve and are sorted by alpha descending, ties by ticker.
func (s *PipelineService) RunBatchBacktest(ctx context.Context, universe []string, req models.BacktestRequest) (*models.BatchBacktestResult, error) {
	tickers, err := s.universe(ctx, universe)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		reports  []models.BacktestReport
		outcomes = make([]models.TickerOutcome, len(tickers))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			tctx, cancel := s.tickerContext(gctx)
			defer cancel()
			rep, err := s.RunBacktest(tctx, ticker, req)
			outcomes[i] = s.outcome("backtest", ticker, err)
			if err != nil {
				return nil
			}
			rep.Curve = nil
			mu.Lock()
			reports = append(reports, *rep)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Summary.AlphaPct != reports[j].Summary.AlphaPct {
			return reports[i].Summary.AlphaPct > reports[j].Summary.AlphaPct
		}
		return reports[i].Ticker < reports[j].Ticker
	})
	res := &models.BatchBacktestResult{Reports: reports}
	for _, o := range outcomes {
		res.Summary.Add(o)
	}
	s.l.Info("batch backtest finished",
		applogger.Int("total", res.Summary.Total),
		applogger.Int("succeeded", res.Summary.Succeeded),
		applogger.Int("failed", res.Summary.Failed))
	return res, nil
}
