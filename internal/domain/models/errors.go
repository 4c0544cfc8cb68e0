package models

import "errors"

var (
	// ErrNotFound is returned when a ticker has no stored series.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientHistory is returned when a series is shorter than the minimum required bars.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrModelNotFound is returned when no fitted model exists for a ticker and kind.
	ErrModelNotFound = errors.New("model not found")
	// ErrDataSourceUnavailable wraps failures of the underlying stores.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
	// ErrNoPriceData means the price store holds no tickers at all.
	ErrNoPriceData = errors.New("no price data available")
	// ErrEmptySeries is returned when an operation needs at least one row.
	ErrEmptySeries = errors.New("empty series")
)

// FailureReason classifies a per-ticker failure inside a batch run.
type FailureReason string

const (
	ReasonInsufficientHistory FailureReason = "insufficient_history"
	ReasonModelNotFound       FailureReason = "model_not_found"
	ReasonDataUnavailable     FailureReason = "data_unavailable"
	ReasonError               FailureReason = "error"
)

// ClassifyFailure maps an error to its batch failure reason.
func ClassifyFailure(err error) FailureReason {
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		return ReasonInsufficientHistory
	case errors.Is(err, ErrModelNotFound):
		return ReasonModelNotFound
	case errors.Is(err, ErrDataSourceUnavailable), errors.Is(err, ErrNotFound):
		return ReasonDataUnavailable
	default:
		return ReasonError
	}
}
