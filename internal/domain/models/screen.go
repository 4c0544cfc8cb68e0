package models

import "time"

// ShortTermPick is a ticker whose latest signal is LONG.
type ShortTermPick struct {
	Ticker string    `json:"ticker"`
	Score  float64   `json:"score"`
	ADX    float64   `json:"adx"`
	RSI    float64   `json:"rsi"`
	Plan   TradePlan `json:"plan"`
}

// LongTermPick is a ticker trading above a rising weekly trend.
type LongTermPick struct {
	Ticker      string  `json:"ticker"`
	WeeklyRSI   float64 `json:"weekly_rsi"`
	WeeklyClose float64 `json:"weekly_close"`
	Entry       float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss_price"`
	TakeProfit  float64 `json:"take_profit_price"`
}

// TickerOutcome reports how one ticker fared in a batch run.
type TickerOutcome struct {
	Ticker string        `json:"ticker"`
	OK     bool          `json:"ok"`
	Reason FailureReason `json:"reason,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BatchSummary counts successes and failures of a multi-ticker run.
type BatchSummary struct {
	Total         int                      `json:"total"`
	Succeeded     int                      `json:"succeeded"`
	Failed        int                      `json:"failed"`
	FailedTickers []string                 `json:"failed_tickers"`
	Reasons       map[string]FailureReason `json:"reasons,omitempty"`
}

// Add records one outcome.
func (s *BatchSummary) Add(o TickerOutcome) {
	s.Total++
	if o.OK {
		s.Succeeded++
		return
	}
	s.Failed++
	s.FailedTickers = append(s.FailedTickers, o.Ticker)
	if s.Reasons == nil {
		s.Reasons = make(map[string]FailureReason)
	}
	s.Reasons[o.Ticker] = o.Reason
}

// ScreenResult is the full answer of a screen run.
type ScreenResult struct {
	RunID      string          `json:"run_id"`
	AsOf       time.Time       `json:"as_of"`
	ShortTerm  []ShortTermPick `json:"short_term"`
	LongTerm   []LongTermPick  `json:"long_term"`
	Summary    BatchSummary    `json:"summary"`
	DurationMS int64           `json:"duration_ms"`
}
