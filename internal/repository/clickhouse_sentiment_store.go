package repository

import (
	"context"
	"database/sql"
	"fmt"

	"StockPilot/internal/domain/models"
	pkgch "StockPilot/pkg/clickhouse"
	applogger "StockPilot/pkg/logger"
)

// CHSentimentStore implements SentimentStore backed by ClickHouse.
type CHSentimentStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSentimentStore(ch *pkgch.Client, database string) *CHSentimentStore {
	return &CHSentimentStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHSentimentStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSentimentStore) Sentiment(ctx context.Context, ticker string) ([]models.SentimentRecord, error) {
	q := fmt.Sprintf(`
        SELECT date, ticker, headline, score
        FROM %s.%s FINAL
        WHERE ticker = ?
        ORDER BY date ASC
    `, s.database, tableSentiment)
	rows, err := s.db.QueryContext(ctx, q, ticker)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse sentiment query error", applogger.String("ticker", ticker), applogger.Error(err))
		}
		return nil, fmt.Errorf("%w: query sentiment: %w", models.ErrDataSourceUnavailable, err)
	}
	defer rows.Close()

	out := []models.SentimentRecord{}
	for rows.Next() {
		var r models.SentimentRecord
		if err := rows.Scan(&r.Date, &r.Ticker, &r.Headline, &r.Score); err != nil {
			return nil, fmt.Errorf("%w: scan sentiment: %w", models.ErrDataSourceUnavailable, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
