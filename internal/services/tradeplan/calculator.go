// Package tradeplan converts signals into entry, stop-loss and take-profit levels.
package tradeplan

import (
	"math"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/services/indicators"
)

// Regressor clamp bounds relative to entry.
const (
	ClampStopRatio   = 0.98
	ClampTargetRatio = 1.02
)

// Compute derives an ATR plan around price: risk = multiplier*atr,
// stop = price - risk, target = price + risk*ratio. For LONG, price is the
// current close and the plan is actionable; for FLAT it is the breakout
// trigger price.
func Compute(price, atr float64, risk models.RiskParams, dir models.Direction) models.TradePlan {
	r := risk.ATRMultiplier * atr
	plan := models.TradePlan{
		Direction:  dir,
		Kind:       models.PlanActionable,
		Entry:      price,
		StopLoss:   price - r,
		TakeProfit: price + r*risk.RiskRewardRatio,
		Risk:       r,
	}
	if dir != models.Long {
		plan.Kind = models.PlanBreakout
	}
	if r > 0 && risk.RiskRewardRatio > 0 {
		// keep the ordering strict when risk is below price resolution
		if plan.StopLoss >= price {
			plan.StopLoss = math.Nextafter(price, math.Inf(-1))
		}
		if plan.TakeProfit <= price {
			plan.TakeProfit = math.Nextafter(price, math.Inf(1))
		}
	}
	return plan
}

// FromRow builds the ATR plan for the row: LONG plans enter at the close,
// FLAT plans at the middle Bollinger Band.
func FromRow(row *models.FeatureRow, dir models.Direction, risk models.RiskParams) models.TradePlan {
	price := row.Close
	if dir != models.Long {
		price = 0
		if row.Bands != nil {
			price = row.Bands.Middle
		}
	}
	return Compute(price, row.ATRValue(), risk, dir)
}

// Clamp builds a plan from regressor predictions, widening it to at least a 2%
// band on each side of entry. Undefined predictions fall back to the band.
func Clamp(entry float64, band models.PriceBand, dir models.Direction) models.TradePlan {
	sl, tp := entry*ClampStopRatio, entry*ClampTargetRatio
	if indicators.Defined(band.StopLoss) {
		sl = math.Min(band.StopLoss, sl)
	}
	if indicators.Defined(band.TakeProfit) {
		tp = math.Max(band.TakeProfit, tp)
	}
	return models.TradePlan{
		Direction:  dir,
		Kind:       models.PlanClamped,
		Entry:      entry,
		StopLoss:   sl,
		TakeProfit: tp,
		Risk:       entry - sl,
	}
}

// LongTerm plans a position with the weekly SMA20 as stop. ok is false when
// the stop is not below entry.
func LongTerm(entry, weeklySMA20, ratio float64) (stop, target float64, ok bool) {
	risk := entry - weeklySMA20
	if risk <= 0 {
		return 0, 0, false
	}
	return weeklySMA20, entry + risk*ratio, true
}
