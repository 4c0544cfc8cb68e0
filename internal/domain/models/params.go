package models

import "fmt"

const (
	DefaultRSILength    = 14
	DefaultBBandsLength = 20
)

// ModelParameterSet holds the per-ticker feature-shape parameters together with
// the training hyperparameters found by the offline search.
type ModelParameterSet struct {
	RSILength      int `json:"rsi_length" yaml:"rsi_length"`
	BBandsLength   int `json:"bbands_length" yaml:"bbands_length"`
	NEstimators    int `json:"n_estimators,omitempty" yaml:"n_estimators"`
	MaxDepth       int `json:"max_depth,omitempty" yaml:"max_depth"`
	MinSamplesLeaf int `json:"min_samples_leaf,omitempty" yaml:"min_samples_leaf"`
}

// DefaultParameters returns the parameter set used when a ticker has no entry.
func DefaultParameters() ModelParameterSet {
	return ModelParameterSet{
		RSILength:      DefaultRSILength,
		BBandsLength:   DefaultBBandsLength,
		NEstimators:    100,
		MaxDepth:       20,
		MinSamplesLeaf: 1,
	}
}

// Normalized replaces unusable feature-shape lengths with defaults.
func (p ModelParameterSet) Normalized() ModelParameterSet {
	if p.RSILength < 2 {
		p.RSILength = DefaultRSILength
	}
	if p.BBandsLength < 2 {
		p.BBandsLength = DefaultBBandsLength
	}
	return p
}

// ShapeKey identifies the feature shape these parameters produce.
func (p ModelParameterSet) ShapeKey() string {
	return fmt.Sprintf("rsi%d_bb%d", p.RSILength, p.BBandsLength)
}
