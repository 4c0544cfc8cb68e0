package models

import "time"

// DefaultInitialCash is the starting capital of a simulation.
const DefaultInitialCash = 100_000_000.0

// Strategy selects the signal source replayed by the simulator.
type Strategy string

const (
	StrategyModel       Strategy = "model"
	StrategyGoldenCross Strategy = "golden_cross"
)

// SimBar is one simulator input row.
type SimBar struct {
	Date   time.Time
	Close  float64
	Signal Direction
}

// EquityPoint is the portfolio state after processing one row.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Signal Direction `json:"signal"`
	Cash   float64   `json:"cash"`
	Shares float64   `json:"shares"`
	Value  float64   `json:"value"`
}

// BacktestSummary is the headline result of a simulation.
type BacktestSummary struct {
	InitialCash      float64 `json:"initial_cash"`
	FinalValue       float64 `json:"final_value"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	BuyHoldReturnPct float64 `json:"buy_hold_return_pct"`
	AlphaPct         float64 `json:"alpha_pct"`
	Trades           int     `json:"trades"`
}

// BacktestRequest parameterizes a single-ticker backtest.
type BacktestRequest struct {
	InitialCash float64  `json:"initial_cash" query:"initial_cash" default:"100000000" validate:"gt=0"`
	Strategy    Strategy `json:"strategy" query:"strategy" default:"model" validate:"oneof=model golden_cross"`
}

// BacktestReport is the single-ticker backtest answer.
type BacktestReport struct {
	Ticker   string          `json:"ticker"`
	Strategy Strategy        `json:"strategy"`
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Curve    []EquityPoint   `json:"curve,omitempty"`
	Summary  BacktestSummary `json:"summary"`
}

// BatchBacktestResult holds per-ticker summaries sorted by alpha, best first.
type BatchBacktestResult struct {
	Reports []BacktestReport `json:"reports"`
	Summary BatchSummary     `json:"summary"`
}
