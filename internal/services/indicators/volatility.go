package indicators

import "math"

// TrueRange is max(H-L, |H-C_prev|, |L-C_prev|); undefined on the first bar.
func TrueRange(high, low, close []float64) []float64 {
	out := nanSeries(len(close))
	for i := 1; i < len(close); i++ {
		pc := close[i-1]
		out[i] = math.Max(high[i]-low[i], math.Max(math.Abs(high[i]-pc), math.Abs(low[i]-pc)))
	}
	return out
}

// ATR is the Wilder-smoothed true range.
func ATR(high, low, close []float64, n int) []float64 {
	return RMA(TrueRange(high, low, close), n)
}

// BandsResult holds Bollinger Band series.
type BandsResult struct {
	Lower     []float64
	Middle    []float64
	Upper     []float64
	Bandwidth []float64
	Percent   []float64
}

// BBands computes SMA(n) +/- k population standard deviations, the bandwidth
// 100*(U-L)/M and the percent position (C-L)/(U-L).
func BBands(close []float64, n int, k float64) BandsResult {
	mid := SMA(close, n)
	std := RollingStd(close, n)
	res := BandsResult{
		Lower:     nanSeries(len(close)),
		Middle:    mid,
		Upper:     nanSeries(len(close)),
		Bandwidth: nanSeries(len(close)),
		Percent:   nanSeries(len(close)),
	}
	for i := range close {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		lo := mid[i] - k*std[i]
		up := mid[i] + k*std[i]
		res.Lower[i] = lo
		res.Upper[i] = up
		if mid[i] != 0 {
			res.Bandwidth[i] = 100 * (up - lo) / mid[i]
		}
		if up != lo {
			res.Percent[i] = (close[i] - lo) / (up - lo)
		}
	}
	return res
}
