// Package forest evaluates tree ensembles exported from a random-forest
// trainer as JSON.
package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Task is the estimator kind.
type Task string

const (
	Classification Task = "classification"
	Regression     Task = "regression"
)

// leaf marks a node without children.
const leaf = -1

// Node is one split or leaf. Rows go left when x[Feature] <= Threshold.
// Value holds class counts (classification) or the mean target (regression).
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Model is a fitted ensemble.
type Model struct {
	Ticker   string    `json:"ticker"`
	Kind     string    `json:"kind"`
	Task     Task      `json:"task"`
	Features []string  `json:"feature_names"`
	Classes  []float64 `json:"classes,omitempty"`
	Trees    []Tree    `json:"trees"`
}

// Decode reads and validates a model.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structure so Predict cannot index out of range.
func (m *Model) Validate() error {
	if len(m.Trees) == 0 {
		return errors.New("model has no trees")
	}
	switch m.Task {
	case Classification:
		if len(m.Classes) == 0 {
			return errors.New("classifier has no classes")
		}
	case Regression:
	default:
		return fmt.Errorf("unknown task %q", m.Task)
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Left == leaf {
				want := 1
				if m.Task == Classification {
					want = len(m.Classes)
				}
				if len(n.Value) != want {
					return fmt.Errorf("tree %d node %d: %d values, want %d", ti, ni, len(n.Value), want)
				}
				continue
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: bad children %d/%d", ti, ni, n.Left, n.Right)
			}
			if n.Feature < 0 || n.Feature >= len(m.Features) {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
		}
	}
	return nil
}

// FeatureNames returns the fitted column order.
func (m *Model) FeatureNames() []string { return m.Features }

// Predict returns the majority class (classification) or the mean leaf value
// (regression) of every row.
func (m *Model) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, x := range rows {
		if len(x) != len(m.Features) {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(x), len(m.Features))
		}
		if m.Task == Regression {
			out[i] = m.regress(x)
		} else {
			out[i] = m.classify(x)
		}
	}
	return out, nil
}

func (t *Tree) leafFor(x []float64) *Node {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left == leaf {
			return n
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (m *Model) regress(x []float64) float64 {
	sum := 0.0
	for i := range m.Trees {
		sum += m.Trees[i].leafFor(x).Value[0]
	}
	return sum / float64(len(m.Trees))
}

// classify averages per-tree class probabilities and returns the class with
// the highest mean; the first class wins ties.
func (m *Model) classify(x []float64) float64 {
	probs := make([]float64, len(m.Classes))
	for i := range m.Trees {
		v := m.Trees[i].leafFor(x).Value
		total := 0.0
		for _, c := range v {
			total += c
		}
		if total == 0 {
			continue
		}
		for k, c := range v {
			probs[k] += c / total
		}
	}
	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	return m.Classes[best]
}
