package models

import (
	"fmt"
	"strings"
	"time"
)

// Fixed column names. The names are part of the fitted-model contract and must
// match the feature names the models were trained on.
const (
	ColOpen         = "Open"
	ColHigh         = "High"
	ColLow          = "Low"
	ColClose        = "Close"
	ColVolume       = "Volume"
	ColSMA20Weekly  = "SMA_20_weekly"
	ColRSI14Weekly  = "RSI_14_weekly"
	ColSentimentSum = "sentiment_sum"
	ColMACD         = "MACD_12_26_9"
	ColMACDHist     = "MACDh_12_26_9"
	ColMACDSignal   = "MACDs_12_26_9"
	ColATR          = "ATRr_14"
	ColOBV          = "OBV"
	ColADX          = "ADX_14"
	ColDMP          = "DMP_14"
	ColDMN          = "DMN_14"

	ColPivotP  = "p"
	ColPivotS1 = "s1"
	ColPivotR1 = "r1"
	ColPivotS2 = "s2"
	ColPivotR2 = "r2"

	pivotDistancePrefix = "Jarak_ke_"
	pivotAbovePrefix    = "Posisi_vs_"
)

// RSIColumn returns the daily RSI column name for a length.
func RSIColumn(length int) string { return fmt.Sprintf("RSI_%d", length) }

// BandColumn returns a Bollinger column name, e.g. BandColumn("BBM", 20) = "BBM_20_2.0_2.0".
func BandColumn(prefix string, length int) string {
	return fmt.Sprintf("%s_%d_2.0_2.0", prefix, length)
}

// WeeklyFeatures are weekly indicators carried onto a daily row by as-of merge.
type WeeklyFeatures struct {
	Close float64 `json:"close"`
	SMA20 float64 `json:"sma_20"`
	RSI14 float64 `json:"rsi_14"`
}

type MACDFeatures struct {
	Line      float64 `json:"line"`
	Histogram float64 `json:"histogram"`
	Signal    float64 `json:"signal"`
}

type BandFeatures struct {
	Lower     float64 `json:"lower"`
	Middle    float64 `json:"middle"`
	Upper     float64 `json:"upper"`
	Bandwidth float64 `json:"bandwidth"`
	Percent   float64 `json:"percent"`
}

type ADXFeatures struct {
	ADX float64 `json:"adx"`
	DMP float64 `json:"dmp"`
	DMN float64 `json:"dmn"`
}

// PivotFeatures are classic floor pivots computed from the previous bar.
type PivotFeatures struct {
	P  float64 `json:"p"`
	S1 float64 `json:"s1"`
	R1 float64 `json:"r1"`
	S2 float64 `json:"s2"`
	R2 float64 `json:"r2"`
}

// FeatureRow is one trading day of the feature table. A nil family means the
// family is undefined on that row (warmup or missing input); it reads as zero.
// Members of a non-nil family are already zero-filled.
type FeatureRow struct {
	Date         time.Time       `json:"date"`
	Open         float64         `json:"open"`
	High         float64         `json:"high"`
	Low          float64         `json:"low"`
	Close        float64         `json:"close"`
	Volume       float64         `json:"volume"`
	Weekly       *WeeklyFeatures `json:"weekly,omitempty"`
	SentimentSum float64         `json:"sentiment_sum"`
	RSI          *float64        `json:"rsi,omitempty"`
	MACD         *MACDFeatures   `json:"macd,omitempty"`
	Bands        *BandFeatures   `json:"bands,omitempty"`
	ATR          *float64        `json:"atr,omitempty"`
	OBV          float64         `json:"obv"`
	ADX          *ADXFeatures    `json:"adx,omitempty"`
	Patterns     []float64       `json:"patterns"`
	Pivots       *PivotFeatures  `json:"pivots,omitempty"`
}

// RSIValue returns the daily RSI or zero when undefined.
func (r *FeatureRow) RSIValue() float64 { return deref(r.RSI) }

// ATRValue returns the ATR or zero when undefined.
func (r *FeatureRow) ATRValue() float64 { return deref(r.ATR) }

// FeatureTable is the output of the feature builder: one row per trading day in
// ascending date order. Patterns names the candlestick columns in row order.
// WeeklyBars is the length of the weekly series the table was built from.
type FeatureTable struct {
	Ticker     string            `json:"ticker"`
	Params     ModelParameterSet `json:"params"`
	Patterns   []string          `json:"patterns"`
	WeeklyBars int               `json:"weekly_bars"`
	Rows       []FeatureRow      `json:"rows"`
}

// Last returns the most recent row, or nil for an empty table.
func (t *FeatureTable) Last() *FeatureRow {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	return &t.Rows[len(t.Rows)-1]
}

// Column reads one named value from a row.
type Column struct {
	Name  string
	Value func(r *FeatureRow) float64
}

// Columns returns the table's columns in their fixed order.
func (t *FeatureTable) Columns() []Column {
	p := t.Params.Normalized()
	cols := []Column{
		{ColOpen, func(r *FeatureRow) float64 { return r.Open }},
		{ColHigh, func(r *FeatureRow) float64 { return r.High }},
		{ColLow, func(r *FeatureRow) float64 { return r.Low }},
		{ColClose, func(r *FeatureRow) float64 { return r.Close }},
		{ColVolume, func(r *FeatureRow) float64 { return r.Volume }},
		{ColSMA20Weekly, weekly(func(w *WeeklyFeatures) float64 { return w.SMA20 })},
		{ColRSI14Weekly, weekly(func(w *WeeklyFeatures) float64 { return w.RSI14 })},
		{RSIColumn(p.RSILength), func(r *FeatureRow) float64 { return deref(r.RSI) }},
		{ColMACD, macd(func(m *MACDFeatures) float64 { return m.Line })},
		{ColMACDHist, macd(func(m *MACDFeatures) float64 { return m.Histogram })},
		{ColMACDSignal, macd(func(m *MACDFeatures) float64 { return m.Signal })},
		{BandColumn("BBL", p.BBandsLength), bands(func(b *BandFeatures) float64 { return b.Lower })},
		{BandColumn("BBM", p.BBandsLength), bands(func(b *BandFeatures) float64 { return b.Middle })},
		{BandColumn("BBU", p.BBandsLength), bands(func(b *BandFeatures) float64 { return b.Upper })},
		{BandColumn("BBB", p.BBandsLength), bands(func(b *BandFeatures) float64 { return b.Bandwidth })},
		{BandColumn("BBP", p.BBandsLength), bands(func(b *BandFeatures) float64 { return b.Percent })},
		{ColATR, func(r *FeatureRow) float64 { return deref(r.ATR) }},
		{ColOBV, func(r *FeatureRow) float64 { return r.OBV }},
		{ColADX, adx(func(a *ADXFeatures) float64 { return a.ADX })},
		{ColDMP, adx(func(a *ADXFeatures) float64 { return a.DMP })},
		{ColDMN, adx(func(a *ADXFeatures) float64 { return a.DMN })},
	}
	for i, name := range t.Patterns {
		idx := i
		cols = append(cols, Column{name, func(r *FeatureRow) float64 {
			if idx < len(r.Patterns) {
				return r.Patterns[idx]
			}
			return 0
		}})
	}

	levels := []struct {
		alias string
		get   func(p *PivotFeatures) float64
		above bool
	}{
		{ColPivotP, func(p *PivotFeatures) float64 { return p.P }, true},
		{ColPivotS1, func(p *PivotFeatures) float64 { return p.S1 }, true},
		{ColPivotR1, func(p *PivotFeatures) float64 { return p.R1 }, true},
		{ColPivotS2, func(p *PivotFeatures) float64 { return p.S2 }, false},
		{ColPivotR2, func(p *PivotFeatures) float64 { return p.R2 }, false},
	}
	for _, lv := range levels {
		cols = append(cols, Column{lv.alias, pivots(lv.get)})
	}
	for _, lv := range levels {
		get := lv.get
		cols = append(cols, Column{PivotDistanceColumn(lv.alias), func(r *FeatureRow) float64 {
			if r.Pivots == nil || r.Close == 0 {
				return 0
			}
			return (r.Close - get(r.Pivots)) / r.Close
		}})
	}
	for _, lv := range levels {
		if !lv.above {
			continue
		}
		get := lv.get
		cols = append(cols, Column{PivotAboveColumn(lv.alias), func(r *FeatureRow) float64 {
			if r.Pivots != nil && r.Close > get(r.Pivots) {
				return 1
			}
			return 0
		}})
	}

	cols = append(cols, Column{ColSentimentSum, func(r *FeatureRow) float64 { return r.SentimentSum }})
	return cols
}

// ColumnNames returns the names of Columns in order.
func (t *FeatureTable) ColumnNames() []string {
	cols := t.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// PivotDistanceColumn names the signed close-to-level distance column for a pivot alias.
func PivotDistanceColumn(alias string) string { return pivotDistancePrefix + strings.ToUpper(alias) }

// PivotAboveColumn names the close-above-level flag column for a pivot alias.
func PivotAboveColumn(alias string) string { return pivotAbovePrefix + strings.ToUpper(alias) }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func weekly(f func(*WeeklyFeatures) float64) func(*FeatureRow) float64 {
	return func(r *FeatureRow) float64 {
		if r.Weekly == nil {
			return 0
		}
		return f(r.Weekly)
	}
}

func macd(f func(*MACDFeatures) float64) func(*FeatureRow) float64 {
	return func(r *FeatureRow) float64 {
		if r.MACD == nil {
			return 0
		}
		return f(r.MACD)
	}
}

func bands(f func(*BandFeatures) float64) func(*FeatureRow) float64 {
	return func(r *FeatureRow) float64 {
		if r.Bands == nil {
			return 0
		}
		return f(r.Bands)
	}
}

func adx(f func(*ADXFeatures) float64) func(*FeatureRow) float64 {
	return func(r *FeatureRow) float64 {
		if r.ADX == nil {
			return 0
		}
		return f(r.ADX)
	}
}

func pivots(f func(*PivotFeatures) float64) func(*FeatureRow) float64 {
	return func(r *FeatureRow) float64 {
		if r.Pivots == nil {
			return 0
		}
		return f(r.Pivots)
	}
}
