package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
)

// scriptedDB answers every query with the same rows or error and records
// what it was asked.
type scriptedDB struct {
	cols    []string
	rows    [][]driver.Value
	err     error
	queries []string
	args    [][]driver.NamedValue
}

func (d *scriptedDB) Connect(context.Context) (driver.Conn, error) { return scriptedConn{d}, nil }
func (d *scriptedDB) Driver() driver.Driver                        { return nil }

type scriptedConn struct{ d *scriptedDB }

func (scriptedConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (scriptedConn) Close() error                        { return nil }
func (scriptedConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

func (c scriptedConn) QueryContext(_ context.Context, q string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.queries = append(c.d.queries, q)
	c.d.args = append(c.d.args, args)
	if c.d.err != nil {
		return nil, c.d.err
	}
	return &scriptedRows{cols: c.d.cols, rows: c.d.rows}, nil
}

type scriptedRows struct {
	cols []string
	rows [][]driver.Value
	i    int
}

func (r *scriptedRows) Columns() []string { return r.cols }
func (r *scriptedRows) Close() error      { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

func openScripted(t *testing.T, d *scriptedDB) *sql.DB {
	t.Helper()
	db := sql.OpenDB(d)
	t.Cleanup(func() { db.Close() })
	return db
}

var barCols = []string{"date", "open", "high", "low", "close", "volume"}

func TestCHPriceStoreBars(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d := &scriptedDB{cols: barCols, rows: [][]driver.Value{
		{day, 9000.0, 9100.0, 8950.0, 9050.0, int64(1200)},
		{day.AddDate(0, 0, 1), 9050.0, 9200.0, 9000.0, 9150.0, int64(800)},
	}}
	s := &CHPriceStore{db: openScripted(t, d), database: "sp"}

	bars, err := s.DailyBars(context.Background(), "BBCA.JK")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 9150.0, bars[1].Close)
	assert.Equal(t, uint64(1200), bars[0].Volume)
	assert.Contains(t, d.queries[0], "sp.daily_bars FINAL")
	assert.Equal(t, "BBCA.JK", d.args[0][0].Value)

	_, err = s.WeeklyBars(context.Background(), "BBCA.JK")
	require.NoError(t, err)
	assert.Contains(t, d.queries[1], "sp.weekly_bars FINAL")
}

func TestCHPriceStoreErrors(t *testing.T) {
	empty := &CHPriceStore{db: openScripted(t, &scriptedDB{cols: barCols}), database: "sp"}
	_, err := empty.DailyBars(context.Background(), "NOPE.JK")
	assert.ErrorIs(t, err, models.ErrNotFound)

	down := &CHPriceStore{db: openScripted(t, &scriptedDB{err: errors.New("connection refused")}), database: "sp"}
	_, err = down.WeeklyBars(context.Background(), "BBCA.JK")
	assert.ErrorIs(t, err, models.ErrDataSourceUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = down.Tickers(context.Background())
	assert.ErrorIs(t, err, models.ErrDataSourceUnavailable)
}

func TestCHPriceStoreTickers(t *testing.T) {
	d := &scriptedDB{cols: []string{"ticker"}, rows: [][]driver.Value{{"BBCA.JK"}, {"TLKM.JK"}}}
	s := &CHPriceStore{db: openScripted(t, d), database: "sp"}
	got, err := s.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BBCA.JK", "TLKM.JK"}, got)
	assert.Contains(t, d.queries[0], "DISTINCT ticker FROM sp.daily_bars")
}

func TestCHSentimentStore(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d := &scriptedDB{
		cols: []string{"date", "ticker", "headline", "score"},
		rows: [][]driver.Value{{day, "BBCA.JK", "laba naik", int64(1)}},
	}
	s := &CHSentimentStore{db: openScripted(t, d), database: "sp"}
	recs, err := s.Sentiment(context.Background(), "BBCA.JK")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int8(1), recs[0].Score)
	assert.Contains(t, d.queries[0], "sp.news_sentiment FINAL")

	none := &CHSentimentStore{db: openScripted(t, &scriptedDB{cols: []string{"date", "ticker", "headline", "score"}}), database: "sp"}
	recs, err = none.Sentiment(context.Background(), "TLKM.JK")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}
