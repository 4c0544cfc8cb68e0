package indicators

import "math"

// SMA is the rolling arithmetic mean; a window containing NaN yields NaN.
func SMA(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		sum := 0.0
		ok := true
		for _, v := range x[i-n+1 : i+1] {
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// RollingStd is the rolling population standard deviation (ddof 0).
func RollingStd(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	mean := SMA(x, n)
	for i := n - 1; i < len(x); i++ {
		if math.IsNaN(mean[i]) {
			continue
		}
		ss := 0.0
		for _, v := range x[i-n+1 : i+1] {
			d := v - mean[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n))
	}
	return out
}

// EMA is the exponential moving average with alpha 2/(n+1), seeded with the SMA
// of the first n defined values and not bias-adjusted.
func EMA(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	start := firstValid(x)
	if n <= 0 || start < 0 || len(x)-start < n {
		return out
	}
	seed := 0.0
	for _, v := range x[start : start+n] {
		seed += v
	}
	prev := seed / float64(n)
	out[start+n-1] = prev
	alpha := 2.0 / float64(n+1)
	for i := start + n; i < len(x); i++ {
		if math.IsNaN(x[i]) {
			out[i] = prev
			continue
		}
		prev = alpha*x[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// RMA is Wilder's moving average: a bias-adjusted exponential mean with
// alpha 1/n that needs n defined observations before producing a value.
//
//	num_t = x_t + (1-a) num_{t-1},  den_t = 1 + (1-a) den_{t-1},  rma_t = num_t / den_t
func RMA(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 0 {
		return out
	}
	decay := 1 - 1/float64(n)
	num, den := 0.0, 0.0
	count := 0
	started := false
	for i, v := range x {
		if math.IsNaN(v) {
			if started {
				num *= decay
				den *= decay
				if count >= n {
					out[i] = out[i-1]
				}
			}
			continue
		}
		started = true
		num = v + decay*num
		den = 1 + decay*den
		count++
		if count >= n {
			out[i] = num / den
		}
	}
	return out
}
