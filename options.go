package conceptspace

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/index"
	"github.com/hupe1980/conceptspace/region"
	"github.com/hupe1980/conceptspace/resource"
)

type options struct {
	id         uuid.UUID
	metric     distance.Options
	weights    []float64
	profiles   map[string][]float64
	index      index.Config
	regions    region.Config
	controller *resource.Controller
	metrics    MetricsObserver
	logger     *Logger
}

// Option configures New and Restore.
type Option func(*options)

// WithID fixes the space identifier. By default a random UUID is assigned.
func WithID(id uuid.UUID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithOrder sets the Minkowski order of the metric (1, 2 or distance.Chebyshev).
func WithOrder(r distance.Order) Option {
	return func(o *options) {
		o.metric.Order = r
	}
}

// WithDecay sets the decay constant c of similarity = exp(-c · distance).
func WithDecay(c float64) Option {
	return func(o *options) {
		o.metric.Decay = c
	}
}

// WithInitialWeights overrides the weights declared on the dimensions.
func WithInitialWeights(w []float64) Option {
	return func(o *options) {
		o.weights = w
	}
}

// WithProfile registers a named context weighting. Queries select it with
// WithContext(name).
func WithProfile(name string, w []float64) Option {
	return func(o *options) {
		if o.profiles == nil {
			o.profiles = make(map[string][]float64)
		}
		o.profiles[name] = w
	}
}

// WithIndexConfig configures the spatial index selection.
func WithIndexConfig(cfg index.Config) Option {
	return func(o *options) {
		o.index = cfg
	}
}

// WithTreeMaxDimensions sets the dimensionality above which k-nearest and range
// queries fall back to a linear scan (default 10).
func WithTreeMaxDimensions(n int) Option {
	return func(o *options) {
		o.index.TreeMaxDimensions = n
	}
}

// WithThreshold sets the membership degree a point must exceed (default 0.5).
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.regions.Threshold = t
	}
}

// WithHullMaxDimensions sets the largest dimensionality whose regions default
// to explicit hulls (default 3). Higher-dimensional regions are Voronoi cells.
func WithHullMaxDimensions(n int) Option {
	return func(o *options) {
		o.regions.HullMaxDimensions = n
	}
}

// WithController bounds batch parallelism with a shared resource controller.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithMetricsObserver configures a metrics observer for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsObserver:
//
//	metrics := &conceptspace.BasicMetricsObserver{}
//	space, _ := conceptspace.New(dims, conceptspace.WithMetricsObserver(metrics))
//	// ... use space ...
//	stats := metrics.GetStats()
func WithMetricsObserver(mo MetricsObserver) Option {
	return func(o *options) {
		if mo == nil {
			mo = NoopMetricsObserver{}
		}
		o.metrics = mo
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metric:  distance.DefaultOptions,
		metrics: NoopMetricsObserver{},
		logger:  NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type queryOptions struct {
	profile string
	weights *distance.Weights
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

// WithContext evaluates the query under the weights of a named profile.
func WithContext(profile string) QueryOption {
	return func(o *queryOptions) {
		o.profile = profile
	}
}

// WithWeights evaluates the query under an explicit weight snapshot.
func WithWeights(w *distance.Weights) QueryOption {
	return func(o *queryOptions) {
		o.weights = w
	}
}
