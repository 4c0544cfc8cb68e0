package screener

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestScore(t *testing.T) {
	both := &models.FeatureRow{RSI: f(60), ADX: &models.ADXFeatures{ADX: 30, DMP: 20, DMN: 10}}
	assert.Equal(t, 90.0, Score(both))

	downTrend := &models.FeatureRow{RSI: f(60), ADX: &models.ADXFeatures{ADX: 30, DMP: 10, DMN: 20}}
	assert.Equal(t, 60.0, Score(downTrend))

	neither := &models.FeatureRow{RSI: f(40), ADX: &models.ADXFeatures{ADX: 20, DMP: 20, DMN: 10}}
	assert.Equal(t, 0.0, Score(neither))
}

func TestShortTermOnlyForLong(t *testing.T) {
	atr := 10.0
	row := &models.FeatureRow{Close: 1000, ATR: &atr, RSI: f(40)}
	_, ok := ShortTerm("A.JK", row, models.Flat, models.DefaultRiskParams())
	assert.False(t, ok)

	pick, ok := ShortTerm("A.JK", row, models.Long, models.DefaultRiskParams())
	require.True(t, ok)
	assert.Equal(t, 0.0, pick.Score, "listed even with zero score")
	assert.Equal(t, 1000.0, pick.Plan.Entry)
	assert.Equal(t, 980.0, pick.Plan.StopLoss)
	assert.Equal(t, 1030.0, pick.Plan.TakeProfit)
}

func TestRankShort(t *testing.T) {
	ranked := RankShort([]models.ShortTermPick{{Ticker: "LOW.JK", Score: 30}, {Ticker: "HIGH.JK", Score: 45}}, 10)
	assert.Equal(t, "HIGH.JK", ranked[0].Ticker)
	assert.Equal(t, "LOW.JK", ranked[1].Ticker)
}

func TestRankTruncatesAndBreaksTies(t *testing.T) {
	var picks []models.ShortTermPick
	for i := 0; i < 15; i++ {
		picks = append(picks, models.ShortTermPick{Ticker: fmt.Sprintf("T%02d.JK", 14-i), Score: float64(i % 3)})
	}
	ranked := RankShort(picks, 10)
	require.Len(t, ranked, 10)
	assert.Equal(t, 2.0, ranked[0].Score)
	assert.Equal(t, "T00.JK", ranked[0].Ticker)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	assert.Len(t, picks, 15, "input untouched")
}

func TestLongTerm(t *testing.T) {
	row := &models.FeatureRow{Close: 1200, Weekly: &models.WeeklyFeatures{Close: 1150, SMA20: 1000, RSI14: 60}}
	pick, ok := LongTerm("A.JK", row, 2)
	require.True(t, ok)
	assert.Equal(t, 1000.0, pick.StopLoss)
	assert.Equal(t, 1600.0, pick.TakeProfit)
	assert.Equal(t, 1200.0, pick.Entry)

	weakRSI := &models.FeatureRow{Close: 1200, Weekly: &models.WeeklyFeatures{Close: 1150, SMA20: 1000, RSI14: 55}}
	_, ok = LongTerm("A.JK", weakRSI, 2)
	assert.False(t, ok)

	belowSMA := &models.FeatureRow{Close: 1200, Weekly: &models.WeeklyFeatures{Close: 990, SMA20: 1000, RSI14: 70}}
	_, ok = LongTerm("A.JK", belowSMA, 2)
	assert.False(t, ok)

	noRisk := &models.FeatureRow{Close: 950, Weekly: &models.WeeklyFeatures{Close: 1100, SMA20: 1000, RSI14: 70}}
	_, ok = LongTerm("A.JK", noRisk, 2)
	assert.False(t, ok, "stop above entry is skipped")

	_, ok = LongTerm("A.JK", &models.FeatureRow{Close: 10}, 2)
	assert.False(t, ok)
}

func TestLongTermGatesOnWeeklyClose(t *testing.T) {
	// Daily close above the weekly SMA20 does not rescue a weekly close below it.
	row := &models.FeatureRow{Close: 1300, Weekly: &models.WeeklyFeatures{Close: 990, SMA20: 1000, RSI14: 70}}
	_, ok := LongTerm("A.JK", row, 2)
	assert.False(t, ok)

	row = &models.FeatureRow{Close: 1300, Weekly: &models.WeeklyFeatures{Close: 1050, SMA20: 1000, RSI14: 70}}
	pick, ok := LongTerm("A.JK", row, 2)
	require.True(t, ok)
	assert.Equal(t, 1050.0, pick.WeeklyClose)
	assert.Equal(t, 1300.0, pick.Entry)
	assert.Equal(t, 1000.0, pick.StopLoss)
	assert.Equal(t, 1900.0, pick.TakeProfit)
}

func TestRankLong(t *testing.T) {
	ranked := RankLong([]models.LongTermPick{{Ticker: "A.JK", WeeklyRSI: 60}, {Ticker: "B.JK", WeeklyRSI: 70}}, 1)
	require.Len(t, ranked, 1)
	assert.Equal(t, "B.JK", ranked[0].Ticker)
}
