package repository

import "fmt"

// Table names inside the configured database.
const (
	tableDaily     = "daily_bars"
	tableWeekly    = "weekly_bars"
	tableSentiment = "news_sentiment"
)

// Schema returns the idempotent DDL for the price and sentiment tables.
func Schema(database string) []string {
	bars := `CREATE TABLE IF NOT EXISTS %s.%s (
        ticker LowCardinality(String),
        date   Date,
        open   Float64,
        high   Float64,
        low    Float64,
        close  Float64,
        volume UInt64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (ticker, date)`
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(bars, database, tableDaily),
		fmt.Sprintf(bars, database, tableWeekly),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
        ticker   LowCardinality(String),
        date     Date,
        headline String,
        score    Int8
    ) ENGINE = ReplacingMergeTree
    ORDER BY (ticker, date, headline)`, database, tableSentiment),
	}
}
