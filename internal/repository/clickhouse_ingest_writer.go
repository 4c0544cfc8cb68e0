package repository

import (
	"context"
	"fmt"

	"StockPilot/internal/domain/models"
	pkgch "StockPilot/pkg/clickhouse"
)

var (
	barColumns       = []string{"ticker", "date", "open", "high", "low", "close", "volume"}
	sentimentColumns = []string{"ticker", "date", "headline", "score"}
)

// CHIngestWriter implements IngestWriter for ClickHouse.
type CHIngestWriter struct {
	ch       *pkgch.Client
	database string
}

func NewCHIngestWriter(ch *pkgch.Client, database string) *CHIngestWriter {
	return &CHIngestWriter{ch: ch, database: database}
}

func (w *CHIngestWriter) WriteBars(ctx context.Context, ticker string, tf models.Timeframe, bars []models.PriceBar) error {
	table := tableDaily
	if tf == models.Weekly {
		table = tableWeekly
	}
	rows := make([][]any, 0, len(bars))
	for _, b := range bars {
		if b.Date.IsZero() || b.Close <= 0 {
			continue
		}
		rows = append(rows, []any{ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume})
	}
	if err := w.ch.InsertRows(ctx, w.database+"."+table, barColumns, rows, pkgch.DefaultChunkSize); err != nil {
		return fmt.Errorf("%w: %w", models.ErrDataSourceUnavailable, err)
	}
	return nil
}

func (w *CHIngestWriter) WriteSentiment(ctx context.Context, records []models.SentimentRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		if r.Ticker == "" || r.Headline == "" {
			continue
		}
		rows = append(rows, []any{r.Ticker, r.Date, r.Headline, r.Score})
	}
	if err := w.ch.InsertRows(ctx, w.database+"."+tableSentiment, sentimentColumns, rows, pkgch.DefaultChunkSize); err != nil {
		return fmt.Errorf("%w: %w", models.ErrDataSourceUnavailable, err)
	}
	return nil
}
