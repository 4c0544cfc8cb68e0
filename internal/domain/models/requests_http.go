package models

// Requests for the HTTP API. Defined in domain for reuse by the CLI.

type TickerRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,ticker"`
}

type BarsRequest struct {
	Ticker    string `param:"ticker" json:"ticker" validate:"required,ticker"`
	Timeframe string `query:"tf" json:"tf" default:"daily" validate:"oneof=daily weekly"`
	Limit     int    `query:"limit" json:"limit" default:"250" validate:"gte=1,lte=5000"`
}

type PipelineRequest struct {
	Ticker       string `param:"ticker" json:"ticker" validate:"required,ticker"`
	RSILength    int    `query:"rsi_length" json:"rsi_length" validate:"omitempty,gte=2,lte=100"`
	BBandsLength int    `query:"bbands_length" json:"bbands_length" validate:"omitempty,gte=2,lte=100"`
	Tail         int    `query:"tail" json:"tail" default:"30" validate:"gte=1,lte=5000"`
}

type PlanRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,ticker"`
	RiskParams
}

type BacktestHTTPRequest struct {
	Ticker    string `param:"ticker" json:"ticker" validate:"required,ticker"`
	WithCurve bool   `query:"curve" json:"curve"`
	BacktestRequest
}

type BatchBacktestHTTPRequest struct {
	Tickers []string `json:"tickers" validate:"omitempty,dive,ticker"`
	BacktestRequest
}

type ScreenRequest struct {
	Tickers []string `json:"tickers" query:"tickers" validate:"omitempty,dive,ticker"`
	RiskParams
}

type CreatePositionRequest struct {
	Ticker   string  `json:"ticker" validate:"required,ticker"`
	BuyPrice float64 `json:"buy_price" validate:"gt=0"`
	Lots     int     `json:"lots" validate:"gte=1"`
}

type PositionIDRequest struct {
	ID string `param:"id" json:"id" validate:"required,uuid"`
}
