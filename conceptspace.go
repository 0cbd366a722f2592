package conceptspace

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/index"
	"github.com/hupe1980/conceptspace/internal/pk"
	"github.com/hupe1980/conceptspace/internal/queue"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/region"
	"github.com/hupe1980/conceptspace/tessellation"
)

// Space is a conceptual space: a dimension registry together with the concept
// points placed in it and the regions defined over them.
//
// A Space is safe for concurrent use. Mutations are serialized; queries share
// access and observe either all or nothing of a concurrent mutation.
type Space struct {
	id     uuid.UUID
	reg    *dimension.Registry
	metric *distance.Metric
	opts   options

	weights  atomic.Pointer[distance.Weights]
	profiles atomic.Pointer[distance.Profiles]

	mu sync.RWMutex
	// metricVersion identifies the active weights. Region caches keyed by it
	// are recomputed after a weight change.
	metricVersion uint64
	// generation is bumped by every mutation and invalidates the tessellation.
	generation uint64
	handles    *pk.Table
	points     []model.Point // by handle; a zero ID marks a free slot
	index      index.Index
	regions    *region.Manager

	cacheMu sync.Mutex
	diagram *tessellation.Diagram

	logger  *Logger
	metrics MetricsObserver
}

// New creates an empty space over dims.
func New(dims []dimension.Dimension, optFns ...Option) (*Space, error) {
	opts := applyOptions(optFns)

	reg, err := dimension.NewRegistry(dims...)
	if err != nil {
		return nil, err
	}

	metric, err := distance.NewMetric(reg, distance.WithOrder(opts.metric.Order), distance.WithDecay(opts.metric.Decay))
	if err != nil {
		return nil, err
	}

	initial := opts.weights
	if initial == nil {
		initial = reg.Weights()
	}
	w, err := distance.NewWeights(initial)
	if err != nil {
		return nil, err
	}
	if err := metric.CheckWeights(w); err != nil {
		return nil, err
	}

	profiles := distance.NewProfiles()
	for name, pw := range opts.profiles {
		ws, err := distance.NewWeights(pw)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		if err := metric.CheckWeights(ws); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		profiles = profiles.With(name, ws)
	}

	id := opts.id
	if id == uuid.Nil {
		id = uuid.New()
	}

	s := &Space{
		id:            id,
		reg:           reg,
		metric:        metric,
		opts:          opts,
		metricVersion: 1,
		handles:       pk.New(),
		index:         index.New(metric, w, opts.index),
		regions:       region.NewManager(id, reg, opts.regions),
		logger:        opts.logger.WithSpace(id),
		metrics:       opts.metrics,
	}
	s.weights.Store(w)
	s.profiles.Store(profiles)

	s.logger.Debug("space created", "dimensions", reg.Len(), "order", metric.Order().String(), "index", s.index.Name())
	return s, nil
}

// ID returns the space identifier.
func (s *Space) ID() uuid.UUID { return s.id }

// Registry returns the dimension registry.
func (s *Space) Registry() *dimension.Registry { return s.reg }

// Metric returns the metric of the space.
func (s *Space) Metric() *distance.Metric { return s.metric }

// Weights returns the active weight snapshot.
func (s *Space) Weights() *distance.Weights { return s.weights.Load() }

// Version returns the metric version. It changes whenever the active weights change.
func (s *Space) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metricVersion
}

// Len returns the number of stored points.
func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles.Len()
}

// Point returns a copy of the point stored under id.
func (s *Space) Point(id model.ConceptID) (model.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles.Handle(id)
	if !ok {
		return model.Point{}, model.ConceptNotFound(id)
	}
	return s.points[h].Clone(), nil
}

// Points returns copies of all points ordered by ID.
func (s *Space) Points() []model.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pointsLocked()
}

func (s *Space) pointsLocked() []model.Point {
	out := make([]model.Point, 0, s.handles.Len())
	for h := range s.handles.All() {
		out = append(out, s.points[h].Clone())
	}
	slices.SortFunc(out, func(a, b model.Point) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// coords resolves a handle to its stored coordinates. Callers hold mu.
func (s *Space) coords(h pk.Handle) ([]float64, bool) {
	if int(h) >= len(s.points) || s.points[h].ID == "" {
		return nil, false
	}
	return s.points[h].Coordinates, true
}

// Insert validates and stores p. An empty ID is replaced by a random UUID.
// It returns the concept ID.
func (s *Space) Insert(ctx context.Context, p model.Point) (id model.ConceptID, err error) {
	start := time.Now()
	defer func() {
		s.metrics.OnInsert(time.Since(start), err)
		s.logger.LogInsert(ctx, id, err)
	}()

	coords, err := s.reg.Validate(p.Coordinates)
	if err != nil {
		return "", err
	}
	id = p.ID
	if id == "" {
		id = model.ConceptID(uuid.NewString())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handles.Handle(id); exists {
		return id, fmt.Errorf("%w: concept %q already exists", model.ErrInvalidArgument, id)
	}
	if err := s.index.Insert(id, coords); err != nil {
		return id, err
	}

	h, _ := s.handles.Allocate(id)
	if int(h) == len(s.points) {
		s.points = append(s.points, model.Point{})
	}
	s.points[h] = model.Point{ID: id, Coordinates: coords, Metadata: p.Metadata}
	s.generation++
	return id, nil
}

// Update replaces the coordinates of id. Regions containing id are marked for
// re-validation and their derived prototypes recomputed.
func (s *Space) Update(ctx context.Context, id model.ConceptID, coordinates []float64) (err error) {
	start := time.Now()
	var touched []region.ID
	defer func() {
		s.metrics.OnUpdate(time.Since(start), err)
		s.logger.LogUpdate(ctx, id, len(touched), err)
	}()

	coords, err := s.reg.Validate(coordinates)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles.Handle(id)
	if !ok {
		return model.ConceptNotFound(id)
	}
	if err := s.index.Insert(id, coords); err != nil {
		return err
	}

	s.points[h].Coordinates = coords
	touched = s.regions.MoveMember(h, s.coords)
	s.generation++
	return nil
}

// Remove deletes id. The point is dropped from every region; derived regions
// left empty are dissolved. It returns the dissolved regions.
func (s *Space) Remove(ctx context.Context, id model.ConceptID) (dissolved []region.Ref, err error) {
	start := time.Now()
	defer func() {
		s.metrics.OnRemove(len(dissolved), time.Since(start), err)
		s.logger.LogRemove(ctx, id, len(dissolved), err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles.Release(id)
	if !ok {
		return nil, model.ConceptNotFound(id)
	}
	s.index.Remove(id)
	s.points[h] = model.Point{}

	for _, rid := range s.regions.RemoveMember(h, s.coords) {
		dissolved = append(dissolved, region.Ref{Space: s.id, Region: rid})
	}
	s.generation++
	return dissolved, nil
}

// resolveWeights returns the weights a query runs under and whether they are
// the active ones served by the index.
func (s *Space) resolveWeights(optFns []QueryOption) (*distance.Weights, bool, error) {
	var o queryOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	switch {
	case o.weights != nil:
		if err := s.metric.CheckWeights(o.weights); err != nil {
			return nil, false, err
		}
		return o.weights, false, nil
	case o.profile != "":
		w, ok := s.profiles.Load().Get(o.profile)
		if !ok {
			return nil, false, &model.NotFoundError{Kind: "profile", ID: o.profile}
		}
		return w, false, nil
	default:
		return s.weights.Load(), true, nil
	}
}

// KNearest returns the k points nearest to q, ordered by distance and then by
// concept ID.
func (s *Space) KNearest(ctx context.Context, q []float64, k int, optFns ...QueryOption) (res []model.Neighbor, err error) {
	start := time.Now()
	defer func() {
		s.metrics.OnSearch("knn", len(res), time.Since(start), err)
		s.logger.LogSearch(ctx, "knn", len(res), err)
	}()

	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", model.ErrInvalidArgument, k)
	}
	query, err := s.reg.Validate(q)
	if err != nil {
		return nil, err
	}
	w, active, err := s.resolveWeights(optFns)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if active {
		return s.index.KNearest(ctx, query, k)
	}

	fn := s.metric.Bind(w)
	top := queue.NewTopK(k)
	for _, p := range s.points {
		if p.ID == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top.Offer(queue.Item{ID: p.ID, Distance: fn(query, p.Coordinates)})
	}
	return top.Sorted(), nil
}

// RangeQuery returns the IDs of all points within radius of q, sorted by ID.
func (s *Space) RangeQuery(ctx context.Context, q []float64, radius float64, optFns ...QueryOption) (res []model.ConceptID, err error) {
	start := time.Now()
	defer func() {
		s.metrics.OnSearch("range", len(res), time.Since(start), err)
		s.logger.LogSearch(ctx, "range", len(res), err)
	}()

	if !(radius >= 0) {
		return nil, fmt.Errorf("%w: radius must be non-negative, got %g", model.ErrInvalidArgument, radius)
	}
	query, err := s.reg.Validate(q)
	if err != nil {
		return nil, err
	}
	w, active, err := s.resolveWeights(optFns)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if active {
		found, err := s.index.Range(ctx, query, radius)
		if err != nil {
			return nil, err
		}
		for _, n := range found {
			res = append(res, n.ID)
		}
	} else {
		fn := s.metric.Bind(w)
		for _, p := range s.points {
			if p.ID == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if fn(query, p.Coordinates) <= radius {
				res = append(res, p.ID)
			}
		}
	}
	slices.Sort(res)
	return res, nil
}

// Distance returns the weighted distance between two stored concepts.
func (s *Space) Distance(a, b model.ConceptID, optFns ...QueryOption) (float64, error) {
	w, _, err := s.resolveWeights(optFns)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pa, pb, err := s.pair(a, b)
	if err != nil {
		return 0, err
	}
	return s.metric.Distance(pa, pb, w)
}

// Similarity returns exp(-c · Distance(a, b)).
func (s *Space) Similarity(a, b model.ConceptID, optFns ...QueryOption) (float64, error) {
	d, err := s.Distance(a, b, optFns...)
	if err != nil {
		return 0, err
	}
	return s.metric.SimilarityFromDistance(d), nil
}

// SimilarityTo returns the similarity between arbitrary coordinates q and a stored concept.
func (s *Space) SimilarityTo(q []float64, id model.ConceptID, optFns ...QueryOption) (float64, error) {
	query, err := s.reg.Validate(q)
	if err != nil {
		return 0, err
	}
	w, _, err := s.resolveWeights(optFns)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles.Handle(id)
	if !ok {
		return 0, model.ConceptNotFound(id)
	}
	return s.metric.Similarity(query, s.points[h].Coordinates, w)
}

// BatchSimilarity returns the similarity between q and each of ids, computed in
// parallel. The weight snapshot is fixed when the call starts.
func (s *Space) BatchSimilarity(ctx context.Context, q []float64, ids []model.ConceptID, optFns ...QueryOption) ([]float64, error) {
	query, err := s.reg.Validate(q)
	if err != nil {
		return nil, err
	}
	w, _, err := s.resolveWeights(optFns)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	targets := make([][]float64, len(ids))
	for i, id := range ids {
		h, ok := s.handles.Handle(id)
		if !ok {
			return nil, model.ConceptNotFound(id)
		}
		targets[i] = s.points[h].Coordinates
	}

	return s.metric.BatchSimilarity(ctx, query, targets, w, distance.BatchOptions{Controller: s.opts.controller})
}

func (s *Space) pair(a, b model.ConceptID) ([]float64, []float64, error) {
	ha, ok := s.handles.Handle(a)
	if !ok {
		return nil, nil, model.ConceptNotFound(a)
	}
	hb, ok := s.handles.Handle(b)
	if !ok {
		return nil, nil, model.ConceptNotFound(b)
	}
	return s.points[ha].Coordinates, s.points[hb].Coordinates, nil
}
