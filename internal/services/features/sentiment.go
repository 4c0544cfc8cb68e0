package features

import (
	"time"

	"StockPilot/internal/domain/models"
	"StockPilot/pkg/util"
)

// DailySentiment maps a calendar date to the summed headline score.
type DailySentiment map[string]float64

// Sum returns the score of the calendar day of t; days without headlines are 0.
func (s DailySentiment) Sum(t time.Time) float64 { return s[util.DateKey(t)] }

// AggregateSentiment sums scores per calendar day. A headline repeated on the
// same day counts once.
func AggregateSentiment(records []models.SentimentRecord) DailySentiment {
	out := make(DailySentiment)
	seen := make(map[[2]string]struct{}, len(records))
	for _, r := range records {
		day := util.DateKey(r.Date)
		key := [2]string{day, r.Headline}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out[day] += float64(r.Score)
	}
	return out
}
