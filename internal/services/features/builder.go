// Package features turns raw daily, weekly and sentiment series into the
// feature table consumed by every model-backed call site.
package features

import (
	"StockPilot/internal/domain/models"
	ind "StockPilot/internal/services/indicators"
)

// Fixed indicator lengths.
const (
	macdFast     = 12
	macdSlow     = 26
	macdSignal   = 9
	bandWidthStd = 2.0
	atrLength    = 14
	adxLength    = 14
	weeklySMA    = 20
	weeklyRSI    = 14
)

// BuildFeatures produces one row per daily bar. It is pure: identical inputs
// give identical tables. History length is not checked here.
func BuildFeatures(ticker string, daily, weekly []models.PriceBar, sentiment []models.SentimentRecord, params models.ModelParameterSet) *models.FeatureTable {
	p := params.Normalized()
	table := &models.FeatureTable{
		Ticker:     ticker,
		Params:     p,
		Patterns:   ind.PatternNames(),
		WeeklyBars: len(weekly),
		Rows:       make([]models.FeatureRow, len(daily)),
	}
	if len(daily) == 0 {
		return table
	}

	o, h, l, c, v := columns(daily)
	weeklyRows := mergeWeekly(daily, weekly)
	sentimentByDay := AggregateSentiment(sentiment)

	rsi := ind.RSI(c, p.RSILength)
	macd := ind.MACD(c, macdFast, macdSlow, macdSignal)
	bb := ind.BBands(c, p.BBandsLength, bandWidthStd)
	atr := ind.ATR(h, l, c, atrLength)
	obv := ind.OBV(c, v)
	adx := ind.ADX(h, l, c, adxLength)
	patterns := ind.ScanPatterns(ind.Candles{Open: o, High: h, Low: l, Close: c})
	pivots := ind.Pivots(h, l, c)

	for i, bar := range daily {
		row := &table.Rows[i]
		row.Date = bar.Date
		row.Open, row.High, row.Low, row.Close, row.Volume = o[i], h[i], l[i], c[i], v[i]
		row.Weekly = weeklyRows[i]
		row.SentimentSum = sentimentByDay.Sum(bar.Date)
		row.RSI = optional(rsi[i])
		row.MACD = macdFamily(macd, i)
		row.Bands = bandFamily(bb, i)
		row.ATR = optional(atr[i])
		row.OBV = ind.ZeroFill(obv[i])
		row.ADX = adxFamily(adx, i)
		row.Patterns = patterns[i]
		row.Pivots = pivotFamily(pivots[i])
	}
	return table
}

func columns(bars []models.PriceBar) (o, h, l, c, v []float64) {
	n := len(bars)
	o, h, l, c, v = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, b := range bars {
		o[i], h[i], l[i], c[i], v[i] = b.Open, b.High, b.Low, b.Close, float64(b.Volume)
	}
	return
}

func optional(v float64) *float64 {
	if !ind.Defined(v) {
		return nil
	}
	return &v
}

// anyDefined reports whether at least one member of a family has a value.
func anyDefined(vals ...float64) bool {
	for _, v := range vals {
		if ind.Defined(v) {
			return true
		}
	}
	return false
}

func macdFamily(m ind.MACDResult, i int) *models.MACDFeatures {
	if !anyDefined(m.Line[i], m.Histogram[i], m.Signal[i]) {
		return nil
	}
	return &models.MACDFeatures{
		Line:      ind.ZeroFill(m.Line[i]),
		Histogram: ind.ZeroFill(m.Histogram[i]),
		Signal:    ind.ZeroFill(m.Signal[i]),
	}
}

func bandFamily(b ind.BandsResult, i int) *models.BandFeatures {
	if !anyDefined(b.Lower[i], b.Middle[i], b.Upper[i], b.Bandwidth[i], b.Percent[i]) {
		return nil
	}
	return &models.BandFeatures{
		Lower:     ind.ZeroFill(b.Lower[i]),
		Middle:    ind.ZeroFill(b.Middle[i]),
		Upper:     ind.ZeroFill(b.Upper[i]),
		Bandwidth: ind.ZeroFill(b.Bandwidth[i]),
		Percent:   ind.ZeroFill(b.Percent[i]),
	}
}

func adxFamily(a ind.ADXResult, i int) *models.ADXFeatures {
	if !anyDefined(a.ADX[i], a.DMP[i], a.DMN[i]) {
		return nil
	}
	return &models.ADXFeatures{
		ADX: ind.ZeroFill(a.ADX[i]),
		DMP: ind.ZeroFill(a.DMP[i]),
		DMN: ind.ZeroFill(a.DMN[i]),
	}
}

func pivotFamily(lv *ind.PivotLevels) *models.PivotFeatures {
	if lv == nil {
		return nil
	}
	return &models.PivotFeatures{
		P:  ind.ZeroFill(lv.P),
		S1: ind.ZeroFill(lv.S1),
		R1: ind.ZeroFill(lv.R1),
		S2: ind.ZeroFill(lv.S2),
		R2: ind.ZeroFill(lv.R2),
	}
}
