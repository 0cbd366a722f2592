// Package adapt tunes dimension weights from similarity feedback.
//
// Adapt takes one projected gradient step on
//
//	L(w) = Σ_f (s_w(a_f, b_f) - t_f)² + λ Σ_i (w_i - prior)²
//
// where s_w is the metric's similarity under weights w. Weights are clamped at
// zero after the step. The objective is not convex for every Minkowski order,
// so callers iterate and decide when to stop.
package adapt

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/model"
)

// Feedback states that the similarity of A and B should be Target.
type Feedback struct {
	A      []float64 `json:"a"`
	B      []float64 `json:"b"`
	Target float64   `json:"target"`
}

// Params controls a descent step.
type Params struct {
	LearningRate   float64 `json:"learning_rate" mapstructure:"learning_rate"`
	Regularization float64 `json:"regularization" mapstructure:"regularization"`
	// Prior is the weight regularization pulls towards.
	Prior float64 `json:"prior" mapstructure:"prior"`
	// Epochs is the number of full-batch steps. Zero means one.
	Epochs int `json:"epochs" mapstructure:"epochs"`
}

// DefaultParams returns the default step parameters.
func DefaultParams() Params {
	return Params{
		LearningRate:   0.1,
		Regularization: 0.01,
		Prior:          1,
		Epochs:         1,
	}
}

func (p Params) validate() error {
	switch {
	case !(p.LearningRate > 0) || math.IsInf(p.LearningRate, 0):
		return fmt.Errorf("%w: learning rate %g", model.ErrInvalidArgument, p.LearningRate)
	case !(p.Regularization >= 0) || math.IsInf(p.Regularization, 0):
		return fmt.Errorf("%w: regularization %g", model.ErrInvalidArgument, p.Regularization)
	case !(p.Prior >= 0) || math.IsInf(p.Prior, 0):
		return fmt.Errorf("%w: prior %g", model.ErrInvalidArgument, p.Prior)
	case p.Epochs < 0:
		return fmt.Errorf("%w: epochs %d", model.ErrInvalidArgument, p.Epochs)
	}
	return nil
}

// sample is a validated feedback item reduced to its per-dimension distances.
type sample struct {
	d      []float64
	target float64
}

func prepare(ctx context.Context, m *distance.Metric, w *distance.Weights, feedback []Feedback) ([]sample, error) {
	if err := m.CheckWeights(w); err != nil {
		return nil, err
	}
	out := make([]sample, len(feedback))
	for i, f := range feedback {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !(f.Target >= 0 && f.Target <= 1) {
			return nil, fmt.Errorf("%w: feedback %d: target %g not in [0, 1]", model.ErrInvalidArgument, i, f.Target)
		}
		d, err := m.Components(f.A, f.B)
		if err != nil {
			return nil, fmt.Errorf("feedback %d: %w", i, err)
		}
		out[i] = sample{d: d, target: f.Target}
	}
	return out, nil
}

// Adapt returns new weights after Params.Epochs descent steps. w is not modified.
func Adapt(ctx context.Context, m *distance.Metric, w *distance.Weights, feedback []Feedback, p Params) (*distance.Weights, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	samples, err := prepare(ctx, m, w, feedback)
	if err != nil {
		return nil, err
	}

	epochs := max(p.Epochs, 1)
	cur := w.Values()
	grad := make([]float64, len(cur))

	for range epochs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gradient(m, cur, samples, p, grad)
		for i := range cur {
			cur[i] = math.Max(0, cur[i]-p.LearningRate*grad[i])
		}
	}

	return distance.NewWeights(cur)
}

// Loss returns the squared similarity error of w on feedback.
func Loss(ctx context.Context, m *distance.Metric, w *distance.Weights, feedback []Feedback) (float64, error) {
	samples, err := prepare(ctx, m, w, feedback)
	if err != nil {
		return 0, err
	}
	var loss float64
	for _, s := range samples {
		e := m.SimilarityFromDistance(m.Aggregate(s.d, w)) - s.target
		loss += e * e
	}
	return loss, nil
}

// Gradient returns ∂L/∂w at w, including the regularization term.
func Gradient(ctx context.Context, m *distance.Metric, w *distance.Weights, feedback []Feedback, p Params) ([]float64, error) {
	samples, err := prepare(ctx, m, w, feedback)
	if err != nil {
		return nil, err
	}
	grad := make([]float64, w.Len())
	gradient(m, w.Values(), samples, p, grad)
	return grad, nil
}

func gradient(m *distance.Metric, w []float64, samples []sample, p Params, grad []float64) {
	ws, _ := distance.NewWeights(w)
	c := m.Decay()
	r := m.Order()

	for i := range grad {
		grad[i] = 2 * p.Regularization * (w[i] - p.Prior)
	}

	for _, s := range samples {
		dist := m.Aggregate(s.d, ws)
		if dist == 0 {
			// The similarity is 1 for all weights near w.
			continue
		}
		sim := m.SimilarityFromDistance(dist)
		// ∂L/∂D
		outer := 2 * (sim - s.target) * (-c * sim)

		switch {
		case r.IsChebyshev():
			// D = max_i w_i d_i; the first maximizing dimension carries the gradient.
			arg := 0
			for i := range w {
				if w[i]*s.d[i] > w[arg]*s.d[arg] {
					arg = i
				}
			}
			grad[arg] += outer * s.d[arg]
		default:
			rf := float64(r)
			scale := math.Pow(dist, 1-rf) / rf
			for i, di := range s.d {
				if di > 0 {
					grad[i] += outer * scale * math.Pow(di, rf)
				}
			}
		}
	}
}
