package models

import "time"

// SharesPerLot is the exchange board lot size.
const SharesPerLot = 100

// Position is a user's open holding.
type Position struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	BuyPrice  float64   `json:"buy_price"`
	Lots      int       `json:"lots"`
	CreatedAt time.Time `json:"created_at"`
}

// Recommendation is the advice for an open position.
type Recommendation string

const (
	RecommendHold Recommendation = "HOLD"
	RecommendExit Recommendation = "EXIT"
)

// PositionAdvice is the evaluation of a position against the latest signal.
type PositionAdvice struct {
	Position       Position       `json:"position"`
	LastPrice      float64        `json:"last_price"`
	ProfitLoss     float64        `json:"profit_loss"`
	ProfitLossPct  float64        `json:"profit_loss_pct"`
	Direction      Direction      `json:"direction"`
	Recommendation Recommendation `json:"recommendation"`
	StopLoss       float64        `json:"stop_loss_price"`
	TakeProfit     float64        `json:"take_profit_price"`
	Trend          TrendState     `json:"trend"`
	AverageUp      bool           `json:"average_up"`
	Error          string         `json:"error,omitempty"`
}
