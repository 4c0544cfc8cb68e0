// Package signal applies fitted models to feature tables.
package signal

import (
	"fmt"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/domain/service"
	"StockPilot/internal/services/features"
)

// Values runs the model over every row after reconciling the table's columns
// with the model's fitted feature order.
func Values(table *models.FeatureTable, model service.FittedModel) ([]float64, error) {
	if len(table.Rows) == 0 {
		return nil, nil
	}
	rows := features.Matrix(table, model.FeatureNames())
	out, err := model.Predict(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(out) != len(rows) {
		return nil, fmt.Errorf("predict: got %d values for %d rows", len(out), len(rows))
	}
	return out, nil
}

// Predict labels every row of the table with the direction model.
func Predict(table *models.FeatureTable, model service.FittedModel) ([]models.TradeSignal, error) {
	vals, err := Values(table, model)
	if err != nil {
		return nil, err
	}
	out := make([]models.TradeSignal, len(vals))
	for i, v := range vals {
		out[i] = models.TradeSignal{Date: table.Rows[i].Date, Direction: models.DirectionFromPrediction(v)}
	}
	return out, nil
}

// PredictBand applies the stop-loss and take-profit regressors to the last row.
// The band is not checked against the direction model.
func PredictBand(table *models.FeatureTable, stopLoss, takeProfit service.FittedModel) (*models.PriceBand, error) {
	last := lastOnly(table)
	if last == nil {
		return nil, models.ErrEmptySeries
	}
	sl, err := Values(last, stopLoss)
	if err != nil {
		return nil, fmt.Errorf("stop loss: %w", err)
	}
	tp, err := Values(last, takeProfit)
	if err != nil {
		return nil, fmt.Errorf("take profit: %w", err)
	}
	return &models.PriceBand{StopLoss: sl[0], TakeProfit: tp[0]}, nil
}

func lastOnly(table *models.FeatureTable) *models.FeatureTable {
	row := table.Last()
	if row == nil {
		return nil
	}
	return &models.FeatureTable{
		Ticker:   table.Ticker,
		Params:   table.Params,
		Patterns: table.Patterns,
		Rows:     []models.FeatureRow{*row},
	}
}
