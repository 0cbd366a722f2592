package dimension

import (
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/conceptspace/model"
)

// Registry is an immutable, ordered set of quality dimensions.
type Registry struct {
	dims  []Dimension
	index map[string]int
}

// NewRegistry validates dims and returns a registry over them.
func NewRegistry(dims ...Dimension) (*Registry, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: a space needs at least one dimension", model.ErrInvalidArgument)
	}

	r := &Registry{
		dims:  make([]Dimension, len(dims)),
		index: make(map[string]int, len(dims)),
	}

	for i, d := range dims {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if d.Weight < 0 || math.IsNaN(d.Weight) || math.IsInf(d.Weight, 0) {
			return nil, &model.InvalidWeightError{Index: i, Weight: d.Weight}
		}
		if _, dup := r.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension name %q", model.ErrInvalidArgument, d.Name)
		}
		if d.Kind == KindOrdinal && d.Levels == 0 {
			d.Levels = d.levels()
		}
		r.dims[i] = d
		r.index[d.Name] = i
	}

	return r, nil
}

// Len returns the dimensionality.
func (r *Registry) Len() int { return len(r.dims) }

// At returns the i-th dimension.
func (r *Registry) At(i int) Dimension { return r.dims[i] }

// Dimensions returns a copy of the dimensions in order.
func (r *Registry) Dimensions() []Dimension { return slices.Clone(r.dims) }

// Names returns the dimension names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.dims))
	for i, d := range r.dims {
		names[i] = d.Name
	}
	return names
}

// Index returns the position of the named dimension.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Weights returns the initial weight vector declared on the dimensions.
func (r *Registry) Weights() []float64 {
	w := make([]float64, len(r.dims))
	for i, d := range r.dims {
		w[i] = d.Weight
	}
	return w
}

// IsCircular reports whether dimension i wraps.
func (r *Registry) IsCircular(i int) bool { return r.dims[i].Kind == KindCircular }

// Validate checks coords against the registry and returns a normalized copy.
// Circular coordinates are wrapped into [Min, Max); others must lie in [Min, Max].
func (r *Registry) Validate(coords []float64) ([]float64, error) {
	if err := model.CheckDimension(len(r.dims), len(coords)); err != nil {
		return nil, err
	}

	out := make([]float64, len(coords))
	for i, v := range coords {
		nv, err := r.dims[i].normalizeCoordinate(v)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}

	return out, nil
}

// Normalize maps coordinate v of dimension i into [0, 1].
func (r *Registry) Normalize(i int, v float64) float64 { return r.dims[i].Normalize(v) }

// Denormalize maps a unit value of dimension i back into its range.
func (r *Registry) Denormalize(i int, u float64) float64 { return r.dims[i].Denormalize(u) }
