// Package backtest replays a signal column through an all-in or all-cash portfolio.
package backtest

import (
	"StockPilot/internal/domain/models"
	ind "StockPilot/internal/services/indicators"
)

// Golden-cross moving average lengths.
const (
	crossFast = 50
	crossSlow = 200
)

// Simulate buys with all cash at the close when the signal is LONG and sells
// every share at the close when it is FLAT. Fractional shares are allowed and
// no costs are modeled.
func Simulate(bars []models.SimBar, initialCash float64) ([]models.EquityPoint, models.BacktestSummary, error) {
	if len(bars) == 0 {
		return nil, models.BacktestSummary{}, models.ErrEmptySeries
	}
	cash, shares := initialCash, 0.0
	trades := 0
	curve := make([]models.EquityPoint, len(bars))
	for i, b := range bars {
		switch {
		case b.Signal == models.Long && cash > 0:
			shares = cash / b.Close
			cash = 0
			trades++
		case b.Signal == models.Flat && shares > 0:
			cash = shares * b.Close
			shares = 0
			trades++
		}
		curve[i] = models.EquityPoint{
			Date:   b.Date,
			Close:  b.Close,
			Signal: b.Signal,
			Cash:   cash,
			Shares: shares,
			Value:  cash + shares*b.Close,
		}
	}
	return curve, Summarize(curve, initialCash, trades), nil
}

// Summarize computes the return metrics of an equity curve.
func Summarize(curve []models.EquityPoint, initialCash float64, trades int) models.BacktestSummary {
	s := models.BacktestSummary{InitialCash: initialCash, Trades: trades}
	if len(curve) == 0 {
		return s
	}
	first, last := curve[0], curve[len(curve)-1]
	s.FinalValue = last.Value
	if initialCash > 0 {
		s.TotalReturnPct = (last.Value/initialCash - 1) * 100
	}
	if first.Close > 0 {
		s.BuyHoldReturnPct = (last.Close/first.Close - 1) * 100
	}
	s.AlphaPct = s.TotalReturnPct - s.BuyHoldReturnPct
	return s
}

// FromSignals pairs model signals with the rows they annotate.
func FromSignals(table *models.FeatureTable, signals []models.TradeSignal) []models.SimBar {
	n := min(len(table.Rows), len(signals))
	out := make([]models.SimBar, n)
	for i := 0; i < n; i++ {
		out[i] = models.SimBar{Date: table.Rows[i].Date, Close: table.Rows[i].Close, Signal: signals[i].Direction}
	}
	return out
}

// GoldenCross signals LONG while SMA50 of closes is above SMA200.
func GoldenCross(table *models.FeatureTable) []models.SimBar {
	closes := make([]float64, len(table.Rows))
	for i, r := range table.Rows {
		closes[i] = r.Close
	}
	flags := ind.SMACross(closes, crossFast, crossSlow)
	out := make([]models.SimBar, len(table.Rows))
	for i, r := range table.Rows {
		dir := models.Flat
		if flags[i] == 1 {
			dir = models.Long
		}
		out[i] = models.SimBar{Date: r.Date, Close: r.Close, Signal: dir}
	}
	return out
}
