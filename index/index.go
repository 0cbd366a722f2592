package index

import (
	"context"

	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/index/flat"
	"github.com/hupe1980/conceptspace/index/vptree"
	"github.com/hupe1980/conceptspace/model"
)

// Compile-time checks to ensure the implementations satisfy Index.
var (
	_ Index = (*flat.Flat)(nil)
	_ Index = (*vptree.Tree)(nil)
)

// Index answers nearest-neighbor and range queries over stored coordinates.
// Implementations are safe for concurrent use.
type Index interface {
	// Name returns the implementation name.
	Name() string

	// Insert adds or replaces the coordinates stored for id.
	Insert(id model.ConceptID, coords []float64) error

	// Remove deletes id. It reports whether id was present.
	Remove(id model.ConceptID) bool

	// KNearest returns the k nearest points ordered by distance, then ID.
	KNearest(ctx context.Context, q []float64, k int) ([]model.Neighbor, error)

	// Range returns every point within radius (inclusive) ordered by distance, then ID.
	Range(ctx context.Context, q []float64, radius float64) ([]model.Neighbor, error)

	// Rebind replaces the distance function, e.g. after a weight change.
	Rebind(fn distance.Func)

	// Len returns the number of stored points.
	Len() int
}

// DefaultTreeMaxDimensions is the dimensionality above which New falls back to a linear scan.
const DefaultTreeMaxDimensions = 10

// Config selects and tunes the index implementation.
type Config struct {
	// TreeMaxDimensions is the largest dimensionality served by the metric tree.
	TreeMaxDimensions int `mapstructure:"tree_max_dimensions"`

	// ForceFlat always selects the linear scan.
	ForceFlat bool `mapstructure:"force_flat"`
}

// New returns an index bound to m with weight snapshot w.
func New(m *distance.Metric, w *distance.Weights, cfg Config) Index {
	if cfg.TreeMaxDimensions <= 0 {
		cfg.TreeMaxDimensions = DefaultTreeMaxDimensions
	}

	fn := m.Bind(w)
	dims := m.Dimensions()

	if cfg.ForceFlat || dims > cfg.TreeMaxDimensions {
		return flat.New(dims, fn)
	}
	return vptree.New(dims, fn)
}
