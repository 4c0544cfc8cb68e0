package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickerValidation(t *testing.T) {
	type req struct {
		Ticker string `validate:"required,ticker"`
	}
	for _, ok := range []string{"BBCA", "BBCA.JK", "^JKSE", "brpt.jk"} {
		assert.NoError(t, Validate(&req{Ticker: ok}), ok)
	}
	for _, bad := range []string{"", "BB CA", "BBCA.JKXXX", "DROP;TABLE"} {
		assert.Error(t, Validate(&req{Ticker: bad}), bad)
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	type barsRequest struct {
		Ticker    string `validate:"required,ticker"`
		Timeframe string `default:"daily" validate:"oneof=daily weekly"`
		Limit     int    `default:"250" validate:"gte=1"`
	}
	r := barsRequest{Ticker: "BBCA.JK"}
	assert.NoError(t, Validate(&r))
	assert.Equal(t, "daily", r.Timeframe)
	assert.Equal(t, 250, r.Limit)

	bad := barsRequest{Ticker: "BBCA.JK", Timeframe: "hourly"}
	errs := ValidationErrors(Validate(&bad))
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "ERR_ONEOF", errs[0].Code)
	}
}

func TestValidationMessages(t *testing.T) {
	type req struct {
		Ticker string  `validate:"required"`
		Cash   float64 `validate:"gt=0"`
		Mode   string  `validate:"omitempty,oneof=atr regressor"`
	}
	errs := ValidationErrors(Validate(&req{Mode: "x"}))
	if assert.Len(t, errs, 3) {
		assert.Equal(t, ValidationError{Code: "ERR_REQUIRED", Field: "Ticker", Message: "Ticker is required"}, errs[0])
		assert.Equal(t, "Cash must be greater than 0", errs[1].Message)
		assert.Equal(t, "Mode must be one of: atr, regressor", errs[2].Message)
	}
	assert.Nil(t, ValidationErrors(nil))
}
