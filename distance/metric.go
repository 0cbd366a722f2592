package distance

import (
	"fmt"
	"math"

	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/model"
)

// Func computes the aggregate distance between two already validated coordinate vectors.
type Func func(a, b []float64) float64

// Options configures a Metric.
type Options struct {
	// Order is the Minkowski exponent (default Euclidean).
	Order Order

	// Decay is the constant c in exp(-c·d) (default 1.0).
	Decay float64
}

// DefaultOptions contains the default metric configuration.
var DefaultOptions = Options{
	Order: Euclidean,
	Decay: 1.0,
}

// Option configures Options.
type Option func(o *Options)

// WithOrder sets the Minkowski order.
func WithOrder(r Order) Option {
	return func(o *Options) { o.Order = r }
}

// WithDecay sets the similarity decay constant.
func WithDecay(c float64) Option {
	return func(o *Options) { o.Decay = c }
}

// Metric computes weighted Minkowski distances over a dimension registry.
// It is immutable and safe for concurrent use.
type Metric struct {
	reg   *dimension.Registry
	order Order
	decay float64

	// Flattened registry, indexed by dimension.
	kinds  []dimension.Kind
	ranges []float64
	levels []float64
}

// NewMetric creates a metric over reg.
func NewMetric(reg *dimension.Registry, optFns ...Option) (*Metric, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", model.ErrInvalidArgument)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Order.validate(); err != nil {
		return nil, err
	}
	if !(opts.Decay > 0) || math.IsInf(opts.Decay, 0) {
		return nil, fmt.Errorf("%w: decay must be a finite value > 0, got %g", model.ErrInvalidArgument, opts.Decay)
	}

	n := reg.Len()
	m := &Metric{
		reg:    reg,
		order:  opts.Order,
		decay:  opts.Decay,
		kinds:  make([]dimension.Kind, n),
		ranges: make([]float64, n),
		levels: make([]float64, n),
	}
	for i := range n {
		d := reg.At(i)
		m.kinds[i] = d.Kind
		m.ranges[i] = d.Range()
		m.levels[i] = float64(d.Levels)
	}

	return m, nil
}

// Registry returns the dimension registry this metric measures.
func (m *Metric) Registry() *dimension.Registry { return m.reg }

// Order returns the Minkowski order.
func (m *Metric) Order() Order { return m.order }

// Decay returns the similarity decay constant.
func (m *Metric) Decay() float64 { return m.decay }

// Dimensions returns the dimensionality.
func (m *Metric) Dimensions() int { return len(m.kinds) }

// PerDimension returns the distance between a and b on dimension i.
func (m *Metric) PerDimension(i int, a, b float64) float64 {
	diff := math.Abs(a - b)
	switch m.kinds[i] {
	case dimension.KindCircular:
		r := m.ranges[i]
		if diff > r {
			diff = math.Mod(diff, r)
		}
		return math.Min(diff, r-diff)
	case dimension.KindOrdinal:
		return diff / m.levels[i]
	default:
		return diff
	}
}

func (m *Metric) check(p, q []float64, w *Weights) error {
	n := len(m.kinds)
	if err := model.CheckDimension(n, len(p)); err != nil {
		return err
	}
	if err := model.CheckDimension(n, len(q)); err != nil {
		return err
	}
	return m.CheckWeights(w)
}

// CheckWeights verifies that w matches the dimensionality and holds valid weights.
func (m *Metric) CheckWeights(w *Weights) error {
	if w == nil {
		return fmt.Errorf("%w: nil weights", model.ErrInvalidWeight)
	}
	if err := model.CheckDimension(len(m.kinds), w.Len()); err != nil {
		return err
	}
	// Snapshots built by NewWeights are valid; this guards zero-value literals.
	for i, v := range w.values {
		if err := checkWeight(i, v); err != nil {
			return err
		}
	}
	return nil
}

// Components returns the per-dimension distances d_i(p, q).
func (m *Metric) Components(p, q []float64) ([]float64, error) {
	n := len(m.kinds)
	if err := model.CheckDimension(n, len(p)); err != nil {
		return nil, err
	}
	if err := model.CheckDimension(n, len(q)); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = m.PerDimension(i, p[i], q[i])
	}
	return out, nil
}

// Aggregate combines per-dimension distances with weights.
func (m *Metric) Aggregate(components []float64, w *Weights) float64 {
	return aggregate(m.order, components, w.values)
}

func aggregate(r Order, d, w []float64) float64 {
	switch {
	case r.IsChebyshev():
		var maxTerm float64
		for i, di := range d {
			maxTerm = math.Max(maxTerm, w[i]*di)
		}
		return maxTerm
	case r == Manhattan:
		var sum float64
		for i, di := range d {
			sum += w[i] * di
		}
		return sum
	case r == Euclidean:
		var sum float64
		for i, di := range d {
			sum += w[i] * di * di
		}
		return math.Sqrt(sum)
	default:
		rf := float64(r)
		var sum float64
		for i, di := range d {
			if di > 0 {
				sum += w[i] * math.Pow(di, rf)
			}
		}
		return math.Pow(sum, 1/rf)
	}
}

// Distance returns the weighted aggregate distance between p and q.
func (m *Metric) Distance(p, q []float64, w *Weights) (float64, error) {
	if err := m.check(p, q, w); err != nil {
		return 0, err
	}
	return m.unchecked(p, q, w.values), nil
}

// Similarity returns exp(-c · Distance(p, q)).
func (m *Metric) Similarity(p, q []float64, w *Weights) (float64, error) {
	d, err := m.Distance(p, q, w)
	if err != nil {
		return 0, err
	}
	return m.SimilarityFromDistance(d), nil
}

// SimilarityFromDistance maps a distance to [0, 1].
func (m *Metric) SimilarityFromDistance(d float64) float64 {
	return math.Exp(-m.decay * d)
}

// Bind returns a distance function fixed to a copy of w. Callers must pass
// vectors of the registry's dimensionality.
func (m *Metric) Bind(w *Weights) Func {
	wv := w.Values()
	return func(a, b []float64) float64 {
		return m.unchecked(a, b, wv)
	}
}

func (m *Metric) unchecked(p, q, w []float64) float64 {
	n := len(m.kinds)

	// Fast paths avoid materializing components.
	switch {
	case m.order == Euclidean:
		var sum float64
		for i := range n {
			di := m.PerDimension(i, p[i], q[i])
			sum += w[i] * di * di
		}
		return math.Sqrt(sum)
	case m.order == Manhattan:
		var sum float64
		for i := range n {
			sum += w[i] * m.PerDimension(i, p[i], q[i])
		}
		return sum
	}

	d := make([]float64, n)
	for i := range n {
		d[i] = m.PerDimension(i, p[i], q[i])
	}
	return aggregate(m.order, d, w)
}
