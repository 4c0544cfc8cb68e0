// Package testutil builds deterministic synthetic market data for tests.
package testutil

import (
	"math"
	"sync"
	"time"

	"StockPilot/internal/domain/models"
)

// Start is the first trading day of generated series.
var Start = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

// DailyBars returns n weekday bars following a drifting wave.
func DailyBars(n int) []models.PriceBar {
	return DailyBarsFrom(Start, n, func(i int) float64 {
		return 100 + 10*math.Sin(float64(i)/7) + 0.1*float64(i)
	})
}

// DailyBarsFrom returns n weekday bars starting at start with closes from closeAt.
func DailyBarsFrom(start time.Time, n int, closeAt func(i int) float64) []models.PriceBar {
	out := make([]models.PriceBar, 0, n)
	d := start
	for i := 0; i < n; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		c := closeAt(i)
		o := c - 0.5*math.Cos(float64(i)/3)
		out = append(out, models.PriceBar{
			Date:   d,
			Open:   o,
			High:   math.Max(o, c) + 1,
			Low:    math.Min(o, c) - 1,
			Close:  c,
			Volume: uint64(1000 + 10*i),
		})
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// WeeklyBars groups daily bars into calendar weeks, dated on the last trading
// day of each week.
func WeeklyBars(daily []models.PriceBar) []models.PriceBar {
	var out []models.PriceBar
	for _, b := range daily {
		y, w := b.Date.ISOWeek()
		if n := len(out); n > 0 {
			py, pw := out[n-1].Date.ISOWeek()
			if py == y && pw == w {
				last := &out[n-1]
				last.Date = b.Date
				last.High = math.Max(last.High, b.High)
				last.Low = math.Min(last.Low, b.Low)
				last.Close = b.Close
				last.Volume += b.Volume
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// ConstantModel is a FittedModel returning the same prediction for every row
// and recording the rows it was given.
type ConstantModel struct {
	Names []string
	Value float64

	mu   sync.Mutex
	rows [][]float64
}

func (m *ConstantModel) FeatureNames() []string { return m.Names }

// LastRows returns the rows of the most recent Predict call.
func (m *ConstantModel) LastRows() [][]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows
}

func (m *ConstantModel) Predict(rows [][]float64) ([]float64, error) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = m.Value
	}
	return out, nil
}
