package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/testutil"
)

func bars(n int, closeAt func(i int) float64, sigAt func(i int) models.Direction) []models.SimBar {
	out := make([]models.SimBar, n)
	for i := range out {
		out[i] = models.SimBar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close:  closeAt(i),
			Signal: sigAt(i),
		}
	}
	return out
}

func TestSimulateExample(t *testing.T) {
	in := bars(25, func(i int) float64 {
		switch {
		case i == 10:
			return 1000
		case i == 15:
			return 1100
		case i == 20:
			return 1200
		default:
			return 900 + float64(i)
		}
	}, func(i int) models.Direction {
		if i >= 10 && i < 20 {
			return models.Long
		}
		return models.Flat
	})

	curve, sum, err := Simulate(in, 100_000_000)
	require.NoError(t, err)
	require.Len(t, curve, 25)

	assert.Equal(t, 100_000.0, curve[10].Shares)
	assert.Equal(t, 0.0, curve[10].Cash)
	assert.Equal(t, 100_000.0*1100, curve[15].Value)
	assert.Equal(t, 120_000_000.0, curve[20].Cash)
	assert.Equal(t, 0.0, curve[20].Shares)
	assert.Equal(t, 100_000_000.0, curve[5].Value)

	assert.Equal(t, 2, sum.Trades)
	assert.Equal(t, 120_000_000.0, sum.FinalValue)
	assert.InDelta(t, 20.0, sum.TotalReturnPct, 1e-9)
	bh := (in[24].Close/in[0].Close - 1) * 100
	assert.InDelta(t, bh, sum.BuyHoldReturnPct, 1e-9)
	assert.InDelta(t, 20.0-bh, sum.AlphaPct, 1e-9)
}

func TestSimulateFullyInvestedOrCash(t *testing.T) {
	in := bars(300, func(i int) float64 { return 100 + float64(i%17) }, func(i int) models.Direction {
		if (i/7)%2 == 0 {
			return models.Long
		}
		return models.Flat
	})
	curve, _, err := Simulate(in, 1_000_000)
	require.NoError(t, err)
	for _, p := range curve {
		require.True(t, p.Cash == 0 || p.Shares == 0, "cash %v shares %v", p.Cash, p.Shares)
		require.False(t, p.Cash == 0 && p.Shares == 0)
	}
}

func TestSimulateEmpty(t *testing.T) {
	_, _, err := Simulate(nil, 100)
	assert.ErrorIs(t, err, models.ErrEmptySeries)
}

func TestGoldenCross(t *testing.T) {
	daily := testutil.DailyBarsFrom(testutil.Start, 320, func(i int) float64 {
		if i < 260 {
			return 200 - 0.2*float64(i)
		}
		return 148 + 3*float64(i-260)
	})
	table := &models.FeatureTable{Rows: make([]models.FeatureRow, len(daily))}
	for i, b := range daily {
		table.Rows[i] = models.FeatureRow{Date: b.Date, Close: b.Close}
	}
	sim := GoldenCross(table)
	require.Len(t, sim, 320)
	assert.Equal(t, models.Flat, sim[0].Signal)
	assert.Equal(t, models.Flat, sim[250].Signal)
	assert.Equal(t, models.Long, sim[319].Signal)
}

func TestFromSignals(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := &models.FeatureTable{Rows: []models.FeatureRow{{Date: d, Close: 5}, {Date: d.AddDate(0, 0, 1), Close: 6}}}
	sim := FromSignals(table, []models.TradeSignal{{Date: d, Direction: models.Long}, {Direction: models.Flat}})
	assert.Equal(t, []models.SimBar{
		{Date: d, Close: 5, Signal: models.Long},
		{Date: d.AddDate(0, 0, 1), Close: 6, Signal: models.Flat},
	}, sim)
}
