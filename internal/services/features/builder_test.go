package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/testutil"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestBuildFeaturesDeterministic(t *testing.T) {
	daily := testutil.DailyBars(300)
	weekly := testutil.WeeklyBars(daily)
	sent := []models.SentimentRecord{{Date: daily[10].Date, Headline: "laba naik", Score: 1}}

	a := BuildFeatures("BBCA.JK", daily, weekly, sent, models.DefaultParameters())
	b := BuildFeatures("BBCA.JK", daily, weekly, sent, models.DefaultParameters())
	require.Equal(t, a, b)
	assert.Equal(t, Matrix(a, a.ColumnNames()), Matrix(b, b.ColumnNames()))
	assert.Len(t, a.Rows, 300)
}

func TestBuildFeaturesZeroFilled(t *testing.T) {
	daily := testutil.DailyBars(260)
	table := BuildFeatures("X.JK", daily, testutil.WeeklyBars(daily), nil, models.DefaultParameters())

	first := table.Rows[0]
	assert.Nil(t, first.MACD)
	assert.Nil(t, first.Pivots)
	assert.Nil(t, first.RSI)

	for _, row := range Matrix(table, table.ColumnNames()) {
		for _, v := range row {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
	last := table.Last()
	require.NotNil(t, last.MACD)
	require.NotNil(t, last.Bands)
	require.NotNil(t, last.ADX)
	require.NotNil(t, last.Weekly)
	assert.Greater(t, last.ATRValue(), 0.0)
	assert.Len(t, last.Patterns, len(table.Patterns))
}

func TestColumnNamesFollowParams(t *testing.T) {
	daily := testutil.DailyBars(50)
	table := BuildFeatures("X.JK", daily, nil, nil, models.ModelParameterSet{RSILength: 21, BBandsLength: 30})
	names := table.ColumnNames()

	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume"}, names[:5])
	assert.Contains(t, names, "RSI_21")
	assert.Contains(t, names, "BBM_30_2.0_2.0")
	assert.Contains(t, names, "BBP_30_2.0_2.0")
	assert.Contains(t, names, "CDL_DOJI_10_0.1")
	assert.Contains(t, names, "Jarak_ke_S2")
	assert.Contains(t, names, "Posisi_vs_R1")
	assert.NotContains(t, names, "Posisi_vs_S2")
	assert.NotContains(t, names, "RSI_14")
	assert.Equal(t, "sentiment_sum", names[len(names)-1])
}

func TestInvalidParamsFallBackToDefaults(t *testing.T) {
	table := BuildFeatures("X.JK", testutil.DailyBars(30), nil, nil, models.ModelParameterSet{})
	assert.Contains(t, table.ColumnNames(), "RSI_14")
	assert.Contains(t, table.ColumnNames(), "BBL_20_2.0_2.0")
}

func TestWeeklyAsOfMerge(t *testing.T) {
	daily := []models.PriceBar{
		{Date: day(2024, 1, 1), Close: 10},
		{Date: day(2024, 1, 5), Close: 11},
		{Date: day(2024, 1, 8), Close: 12},
		{Date: day(2024, 1, 12), Close: 13},
	}
	weekly := []models.PriceBar{
		{Date: day(2024, 1, 5), Close: 50},
		{Date: day(2024, 1, 12), Close: 60},
	}
	table := BuildFeatures("X.JK", daily, weekly, nil, models.DefaultParameters())

	assert.Nil(t, table.Rows[0].Weekly, "no weekly bar yet")
	require.NotNil(t, table.Rows[1].Weekly)
	assert.Equal(t, 50.0, table.Rows[1].Weekly.Close, "same-day weekly bar is visible")
	assert.Equal(t, 50.0, table.Rows[2].Weekly.Close, "carried forward, never looks ahead")
	assert.Equal(t, 60.0, table.Rows[3].Weekly.Close)
	assert.Equal(t, 0.0, table.Rows[3].Weekly.SMA20, "warmup reads as zero")
}

func TestSentimentSum(t *testing.T) {
	daily := []models.PriceBar{
		{Date: day(2024, 3, 1), Close: 10},
		{Date: day(2024, 3, 4), Close: 10},
	}
	sent := []models.SentimentRecord{
		{Date: day(2024, 3, 1).Add(9 * time.Hour), Headline: "a", Score: 1},
		{Date: day(2024, 3, 1).Add(10 * time.Hour), Headline: "b", Score: -1},
		{Date: day(2024, 3, 1).Add(11 * time.Hour), Headline: "c", Score: 1},
	}
	table := BuildFeatures("X.JK", daily, nil, sent, models.DefaultParameters())
	assert.Equal(t, 1.0, table.Rows[0].SentimentSum)
	assert.Equal(t, 0.0, table.Rows[1].SentimentSum)
}

func TestAggregateSentimentDedup(t *testing.T) {
	d := day(2024, 3, 1)
	agg := AggregateSentiment([]models.SentimentRecord{
		{Date: d, Headline: "same", Score: 1},
		{Date: d.Add(time.Hour), Headline: "same", Score: 1},
		{Date: d.AddDate(0, 0, 1), Headline: "same", Score: -1},
	})
	assert.Equal(t, 1.0, agg.Sum(d))
	assert.Equal(t, -1.0, agg.Sum(d.AddDate(0, 0, 1)))
	assert.Equal(t, 0.0, agg.Sum(d.AddDate(0, 0, 7)))
}

func TestPivotDerivedColumns(t *testing.T) {
	daily := []models.PriceBar{
		{Date: day(2024, 1, 1), Open: 9, High: 12, Low: 8, Close: 10},
		{Date: day(2024, 1, 2), Open: 10, High: 12, Low: 9, Close: 11},
	}
	table := BuildFeatures("X.JK", daily, nil, nil, models.DefaultParameters())
	m := Matrix(table, []string{"p", "Jarak_ke_P", "Posisi_vs_P", "Posisi_vs_R1", "Jarak_ke_R2"})

	assert.Equal(t, []float64{0, 0, 0, 0, 0}, m[0])
	assert.InDelta(t, 10, m[1][0], 1e-12)
	assert.InDelta(t, (11.0-10.0)/11.0, m[1][1], 1e-12)
	assert.Equal(t, 1.0, m[1][2])
	assert.Equal(t, 0.0, m[1][3])
	assert.InDelta(t, (11.0-14.0)/11.0, m[1][4], 1e-12)
}

func TestMatrixReconcilesModelColumns(t *testing.T) {
	daily := testutil.DailyBars(40)
	table := BuildFeatures("X.JK", daily, nil, nil, models.DefaultParameters())
	names := []string{"Close", "Adj Close", "Open"}

	m := Matrix(table, names)
	require.Len(t, m, 40)
	for i, row := range m {
		require.Len(t, row, 3)
		assert.Equal(t, daily[i].Close, row[0])
		assert.Equal(t, 0.0, row[1])
		assert.Equal(t, daily[i].Open, row[2])
	}
	assert.Equal(t, []string{"Adj Close"}, Missing(table, names))
}

func TestEmptyDaily(t *testing.T) {
	table := BuildFeatures("X.JK", nil, nil, nil, models.DefaultParameters())
	assert.Empty(t, table.Rows)
	assert.Nil(t, table.Last())
}
