package distance

import (
	"math"
	"slices"

	"github.com/hupe1980/conceptspace/model"
)

// Weights is an immutable dimension weight vector.
type Weights struct {
	values []float64
}

// NewWeights validates values (finite, >= 0) and returns a snapshot over a copy of them.
func NewWeights(values []float64) (*Weights, error) {
	for i, v := range values {
		if err := checkWeight(i, v); err != nil {
			return nil, err
		}
	}
	return &Weights{values: slices.Clone(values)}, nil
}

// UniformWeights returns n weights equal to 1.
func UniformWeights(n int) *Weights {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return &Weights{values: v}
}

func checkWeight(i int, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &model.InvalidWeightError{Index: i, Weight: v}
	}
	return nil
}

// Len returns the number of weights.
func (w *Weights) Len() int { return len(w.values) }

// At returns the i-th weight.
func (w *Weights) At(i int) float64 { return w.values[i] }

// Values returns a copy of the weight vector.
func (w *Weights) Values() []float64 { return slices.Clone(w.values) }

// With returns a new snapshot with weight i replaced.
func (w *Weights) With(i int, v float64) (*Weights, error) {
	if i < 0 || i >= len(w.values) {
		return nil, &model.DimensionMismatchError{Expected: len(w.values), Actual: i + 1}
	}
	if err := checkWeight(i, v); err != nil {
		return nil, err
	}
	out := slices.Clone(w.values)
	out[i] = v
	return &Weights{values: out}, nil
}

// Equal reports whether both snapshots hold the same values.
func (w *Weights) Equal(o *Weights) bool {
	return slices.Equal(w.values, o.values)
}
