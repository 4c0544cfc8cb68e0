package signal

import (
	"strings"

	"StockPilot/internal/domain/models"
)

// Trend reads the ADX/DI family.
func Trend(a *models.ADXFeatures) models.TrendState {
	if a == nil {
		return models.TrendNeutral
	}
	switch {
	case a.ADX > 25 && a.DMP > a.DMN:
		return models.TrendStrongUp
	case a.ADX > 25 && a.DMN > a.DMP:
		return models.TrendStrongDown
	case a.ADX < 20:
		return models.TrendSideways
	default:
		return models.TrendNeutral
	}
}

// PatternLabel turns "CDL_3WHITESOLDIERS" into "3WHITESOLDIERS".
func PatternLabel(column string) string {
	return strings.ReplaceAll(strings.TrimPrefix(column, "CDL_"), "_", " ")
}

// Patterns splits the candlestick columns firing on row into bullish and bearish labels.
func Patterns(table *models.FeatureTable, row *models.FeatureRow) (bullish, bearish []string) {
	for i, name := range table.Patterns {
		if i >= len(row.Patterns) {
			break
		}
		switch v := row.Patterns[i]; {
		case v > 0:
			bullish = append(bullish, PatternLabel(name))
		case v < 0:
			bearish = append(bearish, PatternLabel(name))
		}
	}
	return bullish, bearish
}

// Describe summarizes the last row of the table.
func Describe(table *models.FeatureTable) models.Insight {
	row := table.Last()
	if row == nil {
		return models.Insight{Trend: models.TrendNeutral}
	}
	bull, bear := Patterns(table, row)
	in := models.Insight{
		Trend:           Trend(row.ADX),
		RSI:             row.RSIValue(),
		SentimentSum:    row.SentimentSum,
		BullishPatterns: bull,
		BearishPatterns: bear,
	}
	if row.ADX != nil {
		in.ADX = row.ADX.ADX
	}
	if row.Weekly != nil {
		in.AboveWeeklySMA20 = row.Close > row.Weekly.SMA20
	}
	return in
}
