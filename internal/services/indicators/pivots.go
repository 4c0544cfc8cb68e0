package indicators

// PivotLevels are classic floor pivots.
type PivotLevels struct {
	P, S1, R1, S2, R2 float64
}

// ClassicPivot derives the levels from one bar's high, low and close.
func ClassicPivot(high, low, close float64) PivotLevels {
	p := (high + low + close) / 3
	rng := high - low
	return PivotLevels{
		P:  p,
		S1: 2*p - high,
		R1: 2*p - low,
		S2: p - rng,
		R2: p + rng,
	}
}

// Pivots returns, for each bar, the levels of the previous bar. The first
// element is nil.
func Pivots(high, low, close []float64) []*PivotLevels {
	out := make([]*PivotLevels, len(close))
	for i := 1; i < len(close); i++ {
		lv := ClassicPivot(high[i-1], low[i-1], close[i-1])
		out[i] = &lv
	}
	return out
}
