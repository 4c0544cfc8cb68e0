package features

import (
	"sort"

	"StockPilot/internal/domain/models"
	ind "StockPilot/internal/services/indicators"
)

// mergeWeekly attaches to every daily bar the weekly indicators of the latest
// weekly bar dated at or before it. Daily bars preceding the first weekly bar
// get nil.
func mergeWeekly(daily, weekly []models.PriceBar) []*models.WeeklyFeatures {
	out := make([]*models.WeeklyFeatures, len(daily))
	if len(weekly) == 0 {
		return out
	}
	closes := make([]float64, len(weekly))
	for i, b := range weekly {
		closes[i] = b.Close
	}
	sma := ind.SMA(closes, weeklySMA)
	rsi := ind.RSI(closes, weeklyRSI)

	computed := make([]models.WeeklyFeatures, len(weekly))
	for i := range weekly {
		computed[i] = models.WeeklyFeatures{
			Close: closes[i],
			SMA20: ind.ZeroFill(sma[i]),
			RSI14: ind.ZeroFill(rsi[i]),
		}
	}

	for i, d := range daily {
		// first weekly bar strictly after d, minus one
		j := sort.Search(len(weekly), func(k int) bool { return weekly[k].Date.After(d.Date) }) - 1
		if j < 0 {
			continue
		}
		w := computed[j]
		out[i] = &w
	}
	return out
}
