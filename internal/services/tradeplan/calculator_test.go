package tradeplan

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
)

func risk(mult, rrr float64) models.RiskParams {
	return models.RiskParams{ATRMultiplier: mult, RiskRewardRatio: rrr, LongRiskReward: 2}
}

func TestComputeLong(t *testing.T) {
	p := Compute(1000, 50, risk(2, 1.5), models.Long)
	assert.Equal(t, models.PlanActionable, p.Kind)
	assert.Equal(t, 1000.0, p.Entry)
	assert.Equal(t, 900.0, p.StopLoss)
	assert.Equal(t, 1150.0, p.TakeProfit)
	assert.Equal(t, 100.0, p.Risk)
}

func TestFromRowFlatUsesMiddleBand(t *testing.T) {
	atr := 10.0
	row := &models.FeatureRow{Close: 500, ATR: &atr, Bands: &models.BandFeatures{Middle: 480}}

	flat := FromRow(row, models.Flat, risk(2, 1.5))
	assert.Equal(t, models.PlanBreakout, flat.Kind)
	assert.Equal(t, 480.0, flat.Entry)
	assert.Equal(t, 460.0, flat.StopLoss)
	assert.Equal(t, 510.0, flat.TakeProfit)

	long := FromRow(row, models.Long, risk(2, 1.5))
	assert.Equal(t, 500.0, long.Entry)
}

func TestPlanOrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		price := 1 + rng.Float64()*50000
		atr := rng.Float64()*price*0.2 + 1e-15
		r := risk(rng.Float64()*5+1e-9, rng.Float64()*5+1e-9)
		for _, dir := range []models.Direction{models.Long, models.Flat} {
			p := Compute(price, atr, r, dir)
			require.Less(t, p.StopLoss, p.Entry)
			require.Less(t, p.Entry, p.TakeProfit)
		}
	}
}

func TestPlanOrderingTinyRisk(t *testing.T) {
	p := Compute(1e9, 1e-12, risk(1, 1), models.Long)
	assert.Less(t, p.StopLoss, p.Entry)
	assert.Less(t, p.Entry, p.TakeProfit)
}

func TestClampFloorProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 5000; i++ {
		entry := rng.Float64() * 20000
		band := models.PriceBand{StopLoss: rng.Float64()*40000 - 10000, TakeProfit: rng.Float64()*40000 - 10000}
		p := Clamp(entry, band, models.Long)
		require.GreaterOrEqual(t, p.TakeProfit, entry*1.02)
		require.LessOrEqual(t, p.StopLoss, entry*0.98)
	}
}

func TestClampKeepsWiderPredictions(t *testing.T) {
	p := Clamp(1000, models.PriceBand{StopLoss: 900, TakeProfit: 1200}, models.Long)
	assert.Equal(t, 900.0, p.StopLoss)
	assert.Equal(t, 1200.0, p.TakeProfit)

	p = Clamp(1000, models.PriceBand{StopLoss: 995, TakeProfit: 1001}, models.Long)
	assert.InDelta(t, 980.0, p.StopLoss, 1e-9)
	assert.InDelta(t, 1020.0, p.TakeProfit, 1e-9)
	assert.Equal(t, models.PlanClamped, p.Kind)
}

func TestClampIgnoresUndefinedPredictions(t *testing.T) {
	p := Clamp(1000, models.PriceBand{StopLoss: math.NaN(), TakeProfit: math.Inf(1)}, models.Long)
	assert.InDelta(t, 980.0, p.StopLoss, 1e-9)
	assert.InDelta(t, 1020.0, p.TakeProfit, 1e-9)
	assert.InDelta(t, 20.0, p.Risk, 1e-9)

	p = Clamp(1000, models.PriceBand{StopLoss: 900, TakeProfit: math.NaN()}, models.Long)
	assert.Equal(t, 900.0, p.StopLoss)
	assert.InDelta(t, 1020.0, p.TakeProfit, 1e-9)
}

func TestLongTerm(t *testing.T) {
	sl, tp, ok := LongTerm(1200, 1000, 2)
	require.True(t, ok)
	assert.Equal(t, 1000.0, sl)
	assert.Equal(t, 1600.0, tp)

	_, _, ok = LongTerm(1000, 1000, 2)
	assert.False(t, ok)
}
