package models

import "time"

// PriceBar is one trading day or week of OHLCV data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume uint64    `json:"volume"`
}

// SentimentRecord is a single scored headline. Score is one of -1, 0, 1.
type SentimentRecord struct {
	Date     time.Time `json:"date"`
	Ticker   string    `json:"ticker"`
	Headline string    `json:"headline"`
	Score    int8      `json:"score"`
}

// Timeframe identifies a bar resolution.
type Timeframe string

const (
	Daily  Timeframe = "daily"
	Weekly Timeframe = "weekly"
)

// BarEvent is the ingest payload for a single bar.
type BarEvent struct {
	Ticker    string    `json:"ticker"`
	Timeframe Timeframe `json:"timeframe"`
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    uint64    `json:"volume"`
}

// Bar converts the event into a PriceBar.
func (e BarEvent) Bar() PriceBar {
	return PriceBar{Date: e.Date, Open: e.Open, High: e.High, Low: e.Low, Close: e.Close, Volume: e.Volume}
}

// HeadlineEvent is the ingest payload for a news headline. Score is optional;
// unscored headlines are scored on arrival.
type HeadlineEvent struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Headline string    `json:"headline"`
	Score    *int8     `json:"score,omitempty"`
}
