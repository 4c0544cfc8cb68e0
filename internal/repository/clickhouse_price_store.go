package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockPilot/internal/domain/models"
	pkgch "StockPilot/pkg/clickhouse"
	applogger "StockPilot/pkg/logger"
)

// CHPriceStore implements PriceStore backed by ClickHouse.
type CHPriceStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, database string) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) DailyBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	return s.bars(ctx, ticker, models.Daily)
}

func (s *CHPriceStore) WeeklyBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	return s.bars(ctx, ticker, models.Weekly)
}

func (s *CHPriceStore) bars(ctx context.Context, ticker string, tf models.Timeframe) ([]models.PriceBar, error) {
	start := time.Now()
	table, err := s.tableFor(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT date, open, high, low, close, volume
        FROM %s FINAL
        WHERE ticker = ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), ticker)
	if err != nil {
		s.logError("clickhouse bars query error", table, ticker, err)
		return nil, fmt.Errorf("%w: query %s: %w", models.ErrDataSourceUnavailable, table, err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 1024)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.logError("clickhouse bars scan error", table, ticker, err)
			return nil, fmt.Errorf("%w: scan bar: %w", models.ErrDataSourceUnavailable, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse bars rows error", table, ticker, err)
		return nil, fmt.Errorf("%w: rows: %w", models.ErrDataSourceUnavailable, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s bars for %s: %w", tf, ticker, models.ErrNotFound)
	}
	if s.l != nil {
		s.l.Debug("clickhouse bars ok",
			applogger.String("table", table),
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Tickers lists every ticker with daily bars.
func (s *CHPriceStore) Tickers(ctx context.Context) ([]string, error) {
	table, _ := s.tableFor(models.Daily)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT ticker FROM %s ORDER BY ticker", table))
	if err != nil {
		s.logError("clickhouse tickers query error", table, "", err)
		return nil, fmt.Errorf("%w: list tickers: %w", models.ErrDataSourceUnavailable, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: scan ticker: %w", models.ErrDataSourceUnavailable, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *CHPriceStore) tableFor(tf models.Timeframe) (string, error) {
	switch tf {
	case models.Daily:
		return s.database + "." + tableDaily, nil
	case models.Weekly:
		return s.database + "." + tableWeekly, nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

func (s *CHPriceStore) logError(msg, table, ticker string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", table),
		applogger.String("ticker", ticker),
		applogger.Error(err),
	)
}
