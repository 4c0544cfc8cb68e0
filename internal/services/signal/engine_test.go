package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/services/features"
	"StockPilot/internal/testutil"
)

type failingModel struct{}

func (failingModel) FeatureNames() []string                 { return []string{"Close"} }
func (failingModel) Predict([][]float64) ([]float64, error) { return nil, errors.New("boom") }

type shortModel struct{}

func (shortModel) FeatureNames() []string                 { return []string{"Close"} }
func (shortModel) Predict([][]float64) ([]float64, error) { return []float64{1}, nil }

func table(n int) *models.FeatureTable {
	daily := testutil.DailyBars(n)
	return features.BuildFeatures("BBCA.JK", daily, testutil.WeeklyBars(daily), nil, models.DefaultParameters())
}

func TestPredictOneSignalPerRow(t *testing.T) {
	tbl := table(60)
	m := &testutil.ConstantModel{Names: []string{"Close", "RSI_14"}, Value: 1}
	sigs, err := Predict(tbl, m)
	require.NoError(t, err)
	require.Len(t, sigs, 60)
	for i, s := range sigs {
		assert.Equal(t, models.Long, s.Direction)
		assert.Equal(t, tbl.Rows[i].Date, s.Date)
	}
}

func TestPredictZeroFillsUnknownColumnsInModelOrder(t *testing.T) {
	tbl := table(30)
	m := &testutil.ConstantModel{Names: []string{"Volume", "Adj Close", "Close"}}
	sigs, err := Predict(tbl, m)
	require.NoError(t, err)
	assert.Equal(t, models.Flat, sigs[0].Direction)

	rows := m.LastRows()
	require.Len(t, rows, 30)
	for i, r := range rows {
		assert.Equal(t, []float64{tbl.Rows[i].Volume, 0, tbl.Rows[i].Close}, r)
	}
}

func TestPredictErrors(t *testing.T) {
	_, err := Predict(table(10), failingModel{})
	assert.Error(t, err)

	_, err = Predict(table(10), shortModel{})
	assert.ErrorContains(t, err, "got 1 values for 10 rows")
}

func TestPredictEmptyTable(t *testing.T) {
	sigs, err := Predict(&models.FeatureTable{}, failingModel{})
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestPredictBandUsesLastRow(t *testing.T) {
	tbl := table(40)
	sl := &testutil.ConstantModel{Names: []string{"Close"}, Value: 90}
	tp := &testutil.ConstantModel{Names: []string{"Close"}, Value: 130}
	band, err := PredictBand(tbl, sl, tp)
	require.NoError(t, err)
	assert.Equal(t, models.PriceBand{StopLoss: 90, TakeProfit: 130}, *band)
	assert.Equal(t, [][]float64{{tbl.Last().Close}}, sl.LastRows())

	_, err = PredictBand(&models.FeatureTable{}, sl, tp)
	assert.ErrorIs(t, err, models.ErrEmptySeries)
}

func TestTrend(t *testing.T) {
	cases := []struct {
		in   *models.ADXFeatures
		want models.TrendState
	}{
		{&models.ADXFeatures{ADX: 30, DMP: 25, DMN: 10}, models.TrendStrongUp},
		{&models.ADXFeatures{ADX: 30, DMP: 10, DMN: 25}, models.TrendStrongDown},
		{&models.ADXFeatures{ADX: 15, DMP: 25, DMN: 10}, models.TrendSideways},
		{&models.ADXFeatures{ADX: 22, DMP: 25, DMN: 10}, models.TrendNeutral},
		{nil, models.TrendNeutral},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Trend(c.in))
	}
}

func TestPatternsAndDescribe(t *testing.T) {
	tbl := &models.FeatureTable{
		Patterns: []string{"CDL_HAMMER", "CDL_3BLACKCROWS", "CDL_INSIDE"},
		Rows: []models.FeatureRow{{
			Close:    120,
			Patterns: []float64{100, -100, 0},
			Weekly:   &models.WeeklyFeatures{SMA20: 100},
			ADX:      &models.ADXFeatures{ADX: 40, DMP: 30, DMN: 5},
		}},
	}
	in := Describe(tbl)
	assert.Equal(t, []string{"HAMMER"}, in.BullishPatterns)
	assert.Equal(t, []string{"3BLACKCROWS"}, in.BearishPatterns)
	assert.True(t, in.AboveWeeklySMA20)
	assert.Equal(t, models.TrendStrongUp, in.Trend)
	assert.Equal(t, "DOJI 10 0.1", PatternLabel("CDL_DOJI_10_0.1"))
}
