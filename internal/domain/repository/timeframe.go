package repository

import "StockPilot/internal/domain/models"

// IsValidTimeframe returns true if tf is a stored bar resolution.
func IsValidTimeframe(tf models.Timeframe) bool {
	switch tf {
	case models.Daily, models.Weekly:
		return true
	default:
		return false
	}
}

// NormalizeTimeframe converts a raw string to a valid timeframe, daily by default.
func NormalizeTimeframe(s string) models.Timeframe {
	tf := models.Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return models.Daily
}
