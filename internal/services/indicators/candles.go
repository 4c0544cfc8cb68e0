package indicators

import "math"

// Candles is the OHLC input of the pattern scan.
type Candles struct {
	Open, High, Low, Close []float64
}

func (c Candles) body(i int) float64  { return math.Abs(c.Close[i] - c.Open[i]) }
func (c Candles) rng(i int) float64   { return c.High[i] - c.Low[i] }
func (c Candles) bull(i int) bool     { return c.Close[i] > c.Open[i] }
func (c Candles) bear(i int) bool     { return c.Close[i] < c.Open[i] }
func (c Candles) top(i int) float64   { return math.Max(c.Open[i], c.Close[i]) }
func (c Candles) floor(i int) float64 { return math.Min(c.Open[i], c.Close[i]) }
func (c Candles) upperShadow(i int) float64 {
	return c.High[i] - c.top(i)
}
func (c Candles) lowerShadow(i int) float64 {
	return c.floor(i) - c.Low[i]
}
func (c Candles) longBody(i int) bool {
	r := c.rng(i)
	return r > 0 && c.body(i) >= 0.6*r
}
func (c Candles) smallBody(i int) bool {
	r := c.rng(i)
	return r > 0 && c.body(i) <= 0.3*r
}
func (c Candles) mid(i int) float64 { return (c.Open[i] + c.Close[i]) / 2 }

// Pattern scans bar i and returns +100 (bullish), -100 (bearish) or 0.
// Bars without enough lookback return 0.
type Pattern struct {
	Name     string
	Lookback int
	Detect   func(c Candles, i int) float64
}

const (
	bullish = 100.0
	bearish = -100.0
)

func colored(c Candles, i int) float64 {
	if c.Close[i] >= c.Open[i] {
		return bullish
	}
	return bearish
}

// Patterns is the fixed candlestick registry, in column order.
var Patterns = []Pattern{
	{"CDL_DOJI_10_0.1", 9, func(c Candles, i int) float64 {
		sum := 0.0
		for j := i - 9; j <= i; j++ {
			sum += c.rng(j)
		}
		if c.body(i) < 0.1*(sum/10) {
			return bullish
		}
		return 0
	}},
	{"CDL_INSIDE", 1, func(c Candles, i int) float64 {
		if c.High[i] < c.High[i-1] && c.Low[i] > c.Low[i-1] {
			return colored(c, i)
		}
		return 0
	}},
	{"CDL_ENGULFING", 1, func(c Candles, i int) float64 {
		switch {
		case c.bear(i-1) && c.bull(i) && c.Open[i] <= c.Close[i-1] && c.Close[i] >= c.Open[i-1] && c.body(i) > c.body(i-1):
			return bullish
		case c.bull(i-1) && c.bear(i) && c.Open[i] >= c.Close[i-1] && c.Close[i] <= c.Open[i-1] && c.body(i) > c.body(i-1):
			return bearish
		}
		return 0
	}},
	{"CDL_HAMMER", 0, func(c Candles, i int) float64 {
		b := c.body(i)
		if c.rng(i) > 0 && b > 0 && c.lowerShadow(i) >= 2*b && c.upperShadow(i) <= 0.1*c.rng(i) {
			return bullish
		}
		return 0
	}},
	{"CDL_SHOOTINGSTAR", 0, func(c Candles, i int) float64 {
		b := c.body(i)
		if c.rng(i) > 0 && b > 0 && c.upperShadow(i) >= 2*b && c.lowerShadow(i) <= 0.1*c.rng(i) {
			return bearish
		}
		return 0
	}},
	{"CDL_HARAMI", 1, func(c Candles, i int) float64 {
		if !c.longBody(i-1) || c.body(i) == 0 || c.top(i) >= c.top(i-1) || c.floor(i) <= c.floor(i-1) {
			return 0
		}
		if c.bear(i - 1) {
			return bullish
		}
		return bearish
	}},
	{"CDL_MARUBOZU", 0, func(c Candles, i int) float64 {
		if r := c.rng(i); r > 0 && c.body(i) >= 0.95*r {
			return colored(c, i)
		}
		return 0
	}},
	{"CDL_MORNINGSTAR", 2, func(c Candles, i int) float64 {
		if c.bear(i-2) && c.longBody(i-2) && c.smallBody(i-1) && c.top(i-1) < c.Close[i-2] &&
			c.bull(i) && c.Close[i] > c.mid(i-2) {
			return bullish
		}
		return 0
	}},
	{"CDL_EVENINGSTAR", 2, func(c Candles, i int) float64 {
		if c.bull(i-2) && c.longBody(i-2) && c.smallBody(i-1) && c.floor(i-1) > c.Close[i-2] &&
			c.bear(i) && c.Close[i] < c.mid(i-2) {
			return bearish
		}
		return 0
	}},
	{"CDL_3WHITESOLDIERS", 2, func(c Candles, i int) float64 {
		for j := i - 2; j <= i; j++ {
			if !c.bull(j) || !c.longBody(j) {
				return 0
			}
		}
		for j := i - 1; j <= i; j++ {
			if c.Close[j] <= c.Close[j-1] || c.Open[j] < c.Open[j-1] || c.Open[j] > c.Close[j-1] {
				return 0
			}
		}
		return bullish
	}},
	{"CDL_3BLACKCROWS", 2, func(c Candles, i int) float64 {
		for j := i - 2; j <= i; j++ {
			if !c.bear(j) || !c.longBody(j) {
				return 0
			}
		}
		for j := i - 1; j <= i; j++ {
			if c.Close[j] >= c.Close[j-1] || c.Open[j] > c.Open[j-1] || c.Open[j] < c.Close[j-1] {
				return 0
			}
		}
		return bearish
	}},
	{"CDL_PIERCING", 1, func(c Candles, i int) float64 {
		if c.bear(i-1) && c.longBody(i-1) && c.bull(i) && c.Open[i] < c.Low[i-1] &&
			c.Close[i] > c.mid(i-1) && c.Close[i] < c.Open[i-1] {
			return bullish
		}
		return 0
	}},
	{"CDL_DARKCLOUDCOVER", 1, func(c Candles, i int) float64 {
		if c.bull(i-1) && c.longBody(i-1) && c.bear(i) && c.Open[i] > c.High[i-1] &&
			c.Close[i] < c.mid(i-1) && c.Close[i] > c.Open[i-1] {
			return bearish
		}
		return 0
	}},
}

// PatternNames returns the registry names in column order.
func PatternNames() []string {
	names := make([]string, len(Patterns))
	for i, p := range Patterns {
		names[i] = p.Name
	}
	return names
}

// ScanPatterns evaluates every registered pattern on every bar. The result is
// indexed [bar][pattern].
func ScanPatterns(c Candles) [][]float64 {
	out := make([][]float64, len(c.Close))
	for i := range out {
		row := make([]float64, len(Patterns))
		for j, p := range Patterns {
			if i >= p.Lookback {
				row[j] = p.Detect(c, i)
			}
		}
		out[i] = row
	}
	return out
}
