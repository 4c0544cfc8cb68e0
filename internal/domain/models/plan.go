package models

import "time"

// PlanMode chooses how stop-loss and take-profit are derived.
type PlanMode string

const (
	PlanModeATR       PlanMode = "atr"
	PlanModeRegressor PlanMode = "regressor"
)

// RiskParams are the user-tunable trade plan inputs.
type RiskParams struct {
	ATRMultiplier   float64  `json:"atr_multiplier" query:"atr_multiplier" yaml:"atr_multiplier" default:"2.0" validate:"gt=0,lte=10"`
	RiskRewardRatio float64  `json:"risk_reward_ratio" query:"risk_reward_ratio" yaml:"risk_reward_ratio" default:"1.5" validate:"gt=0,lte=10"`
	LongRiskReward  float64  `json:"long_risk_reward" query:"long_risk_reward" yaml:"long_risk_reward" default:"2.0" validate:"gt=0,lte=10"`
	Mode            PlanMode `json:"mode" query:"mode" yaml:"mode" default:"atr" validate:"oneof=atr regressor"`
}

// DefaultRiskParams mirrors the struct defaults.
func DefaultRiskParams() RiskParams {
	return RiskParams{ATRMultiplier: 2.0, RiskRewardRatio: 1.5, LongRiskReward: 2.0, Mode: PlanModeATR}
}

// PlanKind tells whether a plan is an order for now or a breakout trigger.
type PlanKind string

const (
	PlanActionable PlanKind = "actionable"
	PlanBreakout   PlanKind = "breakout"
	PlanClamped    PlanKind = "clamped"
)

// TradePlan holds concrete entry, stop-loss and take-profit levels.
type TradePlan struct {
	Direction  Direction `json:"direction"`
	Kind       PlanKind  `json:"kind"`
	Entry      float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss_price"`
	TakeProfit float64   `json:"take_profit_price"`
	Risk       float64   `json:"risk"`
}

// TrendState is the ADX/DI reading of the last bar.
type TrendState string

const (
	TrendStrongUp   TrendState = "strong_uptrend"
	TrendStrongDown TrendState = "strong_downtrend"
	TrendSideways   TrendState = "sideways"
	TrendNeutral    TrendState = "neutral"
)

// Insight summarizes the indicators of the last row for humans.
type Insight struct {
	Trend            TrendState `json:"trend"`
	ADX              float64    `json:"adx"`
	RSI              float64    `json:"rsi"`
	AboveWeeklySMA20 bool       `json:"above_weekly_sma20"`
	SentimentSum     float64    `json:"sentiment_sum"`
	BullishPatterns  []string   `json:"bullish_patterns"`
	BearishPatterns  []string   `json:"bearish_patterns"`
}

// TradePlanReport is the single-ticker plan answer.
type TradePlanReport struct {
	Ticker  string     `json:"ticker"`
	Date    time.Time  `json:"date"`
	Close   float64    `json:"close"`
	ATR     float64    `json:"atr"`
	Plan    TradePlan  `json:"plan"`
	Band    *PriceBand `json:"band,omitempty"`
	Insight Insight    `json:"insight"`
}
