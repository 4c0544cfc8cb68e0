package repository

import (
	"context"

	"StockPilot/internal/domain/models"
)

// PriceStore provides read-only access to stored OHLCV series.
// Bars are returned ascending by date without duplicates. A ticker with no
// stored series fails with models.ErrNotFound.
type PriceStore interface {
	DailyBars(ctx context.Context, ticker string) ([]models.PriceBar, error)
	WeeklyBars(ctx context.Context, ticker string) ([]models.PriceBar, error)
	Tickers(ctx context.Context) ([]string, error)
}

// SentimentStore returns scored headlines for a ticker. No stored records is
// an empty slice and a nil error.
type SentimentStore interface {
	Sentiment(ctx context.Context, ticker string) ([]models.SentimentRecord, error)
}

// IngestWriter persists incoming bars and headlines.
type IngestWriter interface {
	WriteBars(ctx context.Context, ticker string, tf models.Timeframe, bars []models.PriceBar) error
	WriteSentiment(ctx context.Context, records []models.SentimentRecord) error
}
