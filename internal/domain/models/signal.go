package models

import "time"

// Direction is the classifier's label. The numeric encoding (1 = LONG, 0 = FLAT)
// matches the fitted models.
type Direction int

const (
	Flat Direction = 0
	Long Direction = 1
)

func (d Direction) String() string {
	if d == Long {
		return "LONG"
	}
	return "FLAT"
}

// DirectionFromPrediction converts a raw classifier output into a Direction.
func DirectionFromPrediction(v float64) Direction {
	if v >= 0.5 {
		return Long
	}
	return Flat
}

// MarshalText encodes the direction as LONG or FLAT.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts LONG/FLAT or 1/0.
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "LONG", "long", "1":
		*d = Long
	default:
		*d = Flat
	}
	return nil
}

// ModelKind selects one of the three per-ticker fitted models.
type ModelKind string

const (
	KindDirection  ModelKind = "direction"
	KindStopLoss   ModelKind = "stop_loss"
	KindTakeProfit ModelKind = "take_profit"
)

// TradeSignal annotates one feature row.
type TradeSignal struct {
	Date      time.Time `json:"date"`
	Direction Direction `json:"direction"`
}

// PriceBand is the regressors' predicted low/high over the next trading days.
type PriceBand struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

// SignalTable is a feature table with one signal per row.
type SignalTable struct {
	Features *FeatureTable `json:"features"`
	Signals  []TradeSignal `json:"signals"`
}

// LastSignal returns the most recent signal, FLAT for an empty table.
func (s *SignalTable) LastSignal() TradeSignal {
	if s == nil || len(s.Signals) == 0 {
		return TradeSignal{Direction: Flat}
	}
	return s.Signals[len(s.Signals)-1]
}
