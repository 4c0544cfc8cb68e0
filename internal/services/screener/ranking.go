// Package screener scores and ranks per-ticker pipeline results.
package screener

import (
	"sort"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/services/tradeplan"
)

// Thresholds of the short and long term conditions.
const (
	TrendADX    = 25.0
	MomentumRSI = 50.0
	LongTermRSI = 55.0
	DefaultTopN = 10
)

// Score adds ADX when the trend is strong and up, and RSI when momentum is
// positive. A row meeting neither scores zero.
func Score(row *models.FeatureRow) float64 {
	score := 0.0
	if a := row.ADX; a != nil && a.ADX > TrendADX && a.DMP > a.DMN {
		score += a.ADX
	}
	if rsi := row.RSIValue(); rsi > MomentumRSI {
		score += rsi
	}
	return score
}

// ShortTerm returns a pick when the latest direction is LONG.
func ShortTerm(ticker string, row *models.FeatureRow, dir models.Direction, risk models.RiskParams) (models.ShortTermPick, bool) {
	if row == nil || dir != models.Long {
		return models.ShortTermPick{}, false
	}
	pick := models.ShortTermPick{
		Ticker: ticker,
		Score:  Score(row),
		RSI:    row.RSIValue(),
		Plan:   tradeplan.FromRow(row, dir, risk),
	}
	if row.ADX != nil {
		pick.ADX = row.ADX.ADX
	}
	return pick, true
}

// LongTerm returns a pick when the weekly close is above the weekly SMA20 and
// the weekly RSI is above 55. Entry is the latest daily close and the stop is
// the weekly SMA20.
func LongTerm(ticker string, row *models.FeatureRow, ratio float64) (models.LongTermPick, bool) {
	if row == nil || row.Weekly == nil {
		return models.LongTermPick{}, false
	}
	w := row.Weekly
	if w.Close <= w.SMA20 || w.RSI14 <= LongTermRSI {
		return models.LongTermPick{}, false
	}
	stop, target, ok := tradeplan.LongTerm(row.Close, w.SMA20, ratio)
	if !ok {
		return models.LongTermPick{}, false
	}
	return models.LongTermPick{
		Ticker:      ticker,
		WeeklyRSI:   w.RSI14,
		WeeklyClose: w.Close,
		Entry:       row.Close,
		StopLoss:    stop,
		TakeProfit:  target,
	}, true
}

// RankShort sorts by score descending, ties by ticker, and truncates to n.
func RankShort(picks []models.ShortTermPick, n int) []models.ShortTermPick {
	out := append([]models.ShortTermPick(nil), picks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Ticker < out[j].Ticker
	})
	return truncate(out, n)
}

// RankLong sorts by weekly RSI descending, ties by ticker, and truncates to n.
func RankLong(picks []models.LongTermPick, n int) []models.LongTermPick {
	out := append([]models.LongTermPick(nil), picks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WeeklyRSI != out[j].WeeklyRSI {
			return out[i].WeeklyRSI > out[j].WeeklyRSI
		}
		return out[i].Ticker < out[j].Ticker
	})
	return truncate(out, n)
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
