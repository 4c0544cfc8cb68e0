package indicators

import "math"

// RSI is the relative strength index over Wilder-smoothed gains and losses:
// 100 * avgGain / (avgGain + |avgLoss|).
func RSI(close []float64, n int) []float64 {
	d := Diff(close)
	gains := make([]float64, len(d))
	losses := make([]float64, len(d))
	for i, v := range d {
		if math.IsNaN(v) {
			gains[i], losses[i] = NaN, NaN
			continue
		}
		gains[i] = math.Max(v, 0)
		losses[i] = math.Min(v, 0)
	}
	ag := RMA(gains, n)
	al := RMA(losses, n)
	out := nanSeries(len(close))
	for i := range out {
		if math.IsNaN(ag[i]) || math.IsNaN(al[i]) {
			continue
		}
		out[i] = 100 * ag[i] / (ag[i] + math.Abs(al[i]))
	}
	return out
}

// MACDResult holds the three MACD series.
type MACDResult struct {
	Line      []float64
	Histogram []float64
	Signal    []float64
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and their difference.
// The signal EMA starts at the first defined MACD value.
func MACD(close []float64, fast, slow, signal int) MACDResult {
	f := EMA(close, fast)
	s := EMA(close, slow)
	line := nanSeries(len(close))
	for i := range line {
		if !math.IsNaN(f[i]) && !math.IsNaN(s[i]) {
			line[i] = f[i] - s[i]
		}
	}
	sig := EMA(line, signal)
	hist := nanSeries(len(close))
	for i := range hist {
		if !math.IsNaN(line[i]) && !math.IsNaN(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return MACDResult{Line: line, Histogram: hist, Signal: sig}
}
