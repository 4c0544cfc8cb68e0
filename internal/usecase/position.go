package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/services/signal"
	"StockPilot/internal/services/tradeplan"
	applogger "StockPilot/pkg/logger"
	"StockPilot/pkg/util"
)

// PositionService manages open positions and advises on them with the latest signal.
type PositionService struct {
	store    domrepo.PositionStore
	pipeline *PipelineService
	risk     models.RiskParams
	l        *applogger.Logger
	now      func() time.Time
}

func NewPositionService(store domrepo.PositionStore, pipeline *PipelineService, risk models.RiskParams) *PositionService {
	return &PositionService{store: store, pipeline: pipeline, risk: riskOrDefault(risk), l: applogger.Nop(), now: time.Now}
}

func (s *PositionService) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *PositionService) List(ctx context.Context) ([]models.Position, error) {
	ps, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return ps, nil
}

// Create stores a new position under a generated id. The ticker is normalized
// to its exchange form.
func (s *PositionService) Create(ctx context.Context, req models.CreatePositionRequest) (*models.Position, error) {
	ticker := util.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if req.BuyPrice <= 0 || req.Lots < 1 {
		return nil, fmt.Errorf("buy price and lots must be positive")
	}
	p := models.Position{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		BuyPrice:  req.BuyPrice,
		Lots:      req.Lots,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save position: %w", err)
	}
	s.l.Info("position created", applogger.String("id", p.ID), applogger.String("ticker", p.Ticker), applogger.Int("lots", p.Lots))
	return &p, nil
}

func (s *PositionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete position %s: %w", id, err)
	}
	return nil
}

// Advice evaluates every open position. A position whose ticker cannot be
// evaluated is returned with Error set.
func (s *PositionService) Advice(ctx context.Context) ([]models.PositionAdvice, error) {
	ps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PositionAdvice, len(ps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pipeline.Config().Workers)
	for i, p := range ps {
		g.Go(func() error {
			adv, err := s.advise(gctx, p)
			if err != nil {
				s.l.Warn("position advice failed", applogger.String("id", p.ID), applogger.String("ticker", p.Ticker), applogger.Error(err))
				adv = models.PositionAdvice{Position: p, Error: err.Error()}
			}
			out[i] = adv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PositionService) advise(ctx context.Context, p models.Position) (models.PositionAdvice, error) {
	st, err := s.pipeline.RunPipeline(ctx, p.Ticker, nil)
	if err != nil {
		return models.PositionAdvice{}, err
	}
	row := st.Features.Last()
	if row == nil {
		return models.PositionAdvice{}, models.ErrEmptySeries
	}
	dir := st.LastSignal().Direction
	last := row.Close
	shares := float64(p.Lots * models.SharesPerLot)

	adv := models.PositionAdvice{
		Position:       p,
		LastPrice:      last,
		ProfitLoss:     (last - p.BuyPrice) * shares,
		Direction:      dir,
		Recommendation: models.RecommendExit,
		Trend:          signal.Trend(row.ADX),
	}
	if p.BuyPrice > 0 {
		adv.ProfitLossPct = (last/p.BuyPrice - 1) * 100
	}
	if dir == models.Long {
		adv.Recommendation = models.RecommendHold
	}

	plan := tradeplan.Compute(last, row.ATRValue(), s.risk, models.Long)
	band, err := s.pipeline.priceBand(ctx, st.Features)
	switch {
	case err == nil:
		plan = tradeplan.Clamp(last, *band, dir)
	case !errors.Is(err, models.ErrModelNotFound):
		return models.PositionAdvice{}, fmt.Errorf("price band: %w", err)
	}
	adv.StopLoss = plan.StopLoss
	adv.TakeProfit = plan.TakeProfit
	adv.AverageUp = dir == models.Long && last > p.BuyPrice && adv.Trend == models.TrendStrongUp
	return adv, nil
}
