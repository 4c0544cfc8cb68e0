package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/services/signal"
	"StockPilot/internal/services/tradeplan"
	applogger "StockPilot/pkg/logger"
)

// riskOrDefault fills unset risk fields with the defaults.
func riskOrDefault(r models.RiskParams) models.RiskParams {
	def := models.DefaultRiskParams()
	if r.ATRMultiplier <= 0 {
		r.ATRMultiplier = def.ATRMultiplier
	}
	if r.RiskRewardRatio <= 0 {
		r.RiskRewardRatio = def.RiskRewardRatio
	}
	if r.LongRiskReward <= 0 {
		r.LongRiskReward = def.LongRiskReward
	}
	if r.Mode == "" {
		r.Mode = def.Mode
	}
	return r
}

// GetTradePlan labels the latest day and derives a plan for it. In regressor
// mode the price-band models are applied and clamped around the close; when
// either regressor is missing the ATR plan is used instead.
func (s *PipelineService) GetTradePlan(ctx context.Context, ticker string, risk models.RiskParams) (*models.TradePlanReport, error) {
	risk = riskOrDefault(risk)
	ctx, span := s.tracer.Start(ctx, "pipeline.plan", trace.WithAttributes(
		attribute.String("ticker", ticker), attribute.String("mode", string(risk.Mode))))
	defer span.End()

	st, err := s.RunPipeline(ctx, ticker, nil)
	if err != nil {
		return nil, s.fail(span, err)
	}
	row := st.Features.Last()
	if row == nil {
		return nil, s.fail(span, fmt.Errorf("plan %s: %w", ticker, models.ErrEmptySeries))
	}
	dir := st.LastSignal().Direction

	report := &models.TradePlanReport{
		Ticker:  ticker,
		Date:    row.Date,
		Close:   row.Close,
		ATR:     row.ATRValue(),
		Insight: signal.Describe(st.Features),
	}

	if risk.Mode == models.PlanModeRegressor {
		band, err := s.priceBand(ctx, st.Features)
		switch {
		case err == nil:
			report.Band = band
			report.Plan = tradeplan.Clamp(row.Close, *band, dir)
			return report, nil
		case errors.Is(err, models.ErrModelNotFound):
			s.l.Info("price band models missing, using ATR plan", applogger.String("ticker", ticker))
		default:
			return nil, s.fail(span, fmt.Errorf("price band %s: %w", ticker, err))
		}
	}
	report.Plan = tradeplan.FromRow(row, dir, risk)
	return report, nil
}

func (s *PipelineService) priceBand(ctx context.Context, table *models.FeatureTable) (*models.PriceBand, error) {
	sl, err := s.models.LoadModel(ctx, table.Ticker, models.KindStopLoss)
	if err != nil {
		return nil, err
	}
	tp, err := s.models.LoadModel(ctx, table.Ticker, models.KindTakeProfit)
	if err != nil {
		return nil, err
	}
	return signal.PredictBand(table, sl, tp)
}
