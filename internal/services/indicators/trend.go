package indicators

import "math"

// ADXResult holds the average directional index and the directional indicators.
type ADXResult struct {
	ADX []float64
	DMP []float64
	DMN []float64
}

// ADX computes Wilder's directional movement system over n bars.
func ADX(high, low, close []float64, n int) ADXResult {
	size := len(close)
	atr := ATR(high, low, close, n)
	pos := nanSeries(size)
	neg := nanSeries(size)
	for i := 1; i < size; i++ {
		up := high[i] - high[i-1]
		dn := low[i-1] - low[i]
		pos[i], neg[i] = 0, 0
		if up > dn && up > 0 {
			pos[i] = up
		}
		if dn > up && dn > 0 {
			neg[i] = dn
		}
	}
	rp := RMA(pos, n)
	rn := RMA(neg, n)
	res := ADXResult{DMP: nanSeries(size), DMN: nanSeries(size)}
	dx := nanSeries(size)
	for i := 0; i < size; i++ {
		if math.IsNaN(atr[i]) || atr[i] == 0 || math.IsNaN(rp[i]) || math.IsNaN(rn[i]) {
			continue
		}
		k := 100 / atr[i]
		res.DMP[i] = k * rp[i]
		res.DMN[i] = k * rn[i]
		if s := res.DMP[i] + res.DMN[i]; s != 0 {
			dx[i] = 100 * math.Abs(res.DMP[i]-res.DMN[i]) / s
		}
	}
	res.ADX = RMA(dx, n)
	return res
}

// SMACross returns 1 where the fast SMA is above the slow SMA, 0 otherwise
// (including where either is undefined).
func SMACross(close []float64, fast, slow int) []float64 {
	f := SMA(close, fast)
	s := SMA(close, slow)
	out := make([]float64, len(close))
	for i := range close {
		if !math.IsNaN(f[i]) && !math.IsNaN(s[i]) && f[i] > s[i] {
			out[i] = 1
		}
	}
	return out
}
