package conceptspace

import (
	"context"
	"time"

	"github.com/hupe1980/conceptspace/adapt"
	"github.com/hupe1980/conceptspace/cluster"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/tessellation"
)

// Tessellation returns the Voronoi diagram of the current region prototypes.
// The diagram is built on first use and cached until the next mutation.
func (s *Space) Tessellation(ctx context.Context) (*tessellation.Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.diagram != nil && s.diagram.Version == s.generation {
		return s.diagram, nil
	}

	start := time.Now()
	ids, protos := s.regions.Prototypes()
	d, err := tessellation.Build(ctx, tessellation.Snapshot{
		Metric:     s.metric,
		Weights:    s.weights.Load(),
		Version:    s.generation,
		Regions:    ids,
		Prototypes: protos,
	})
	s.metrics.OnTessellate(len(ids), time.Since(start), err)
	s.logger.LogTessellation(ctx, len(ids), err)
	if err != nil {
		return nil, err
	}

	s.diagram = d
	return d, nil
}

// candidates returns the points to cluster: ids, or every point when ids is nil.
// Callers hold mu.
func (s *Space) candidates(ids []model.ConceptID) ([]model.Point, error) {
	if ids == nil {
		return s.pointsLocked(), nil
	}
	out := make([]model.Point, len(ids))
	for i, id := range ids {
		h, ok := s.handles.Handle(id)
		if !ok {
			return nil, model.ConceptNotFound(id)
		}
		out[i] = s.points[h]
	}
	return out, nil
}

// Discover proposes regions from dense clusters among ids (all points when ids
// is nil). Proposals are not committed; pass their members to DefineRegion.
func (s *Space) Discover(ctx context.Context, ids []model.ConceptID, p cluster.Params, optFns ...QueryOption) (res []cluster.Proposal, err error) {
	start := time.Now()
	var n int
	defer func() {
		s.metrics.OnDiscover(len(res), time.Since(start), err)
		s.logger.LogDiscover(ctx, n, len(res), err)
	}()

	w, _, err := s.resolveWeights(optFns)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pts, err := s.candidates(ids)
	if err != nil {
		return nil, err
	}
	n = len(pts)
	return cluster.Discover(ctx, pts, p, s.metric, w)
}

// Partition splits ids (all points when ids is nil) into at most k proposed
// regions with k-means.
func (s *Space) Partition(ctx context.Context, ids []model.ConceptID, k int, optFns ...QueryOption) (res []cluster.Proposal, err error) {
	start := time.Now()
	var n int
	defer func() {
		s.metrics.OnDiscover(len(res), time.Since(start), err)
		s.logger.LogDiscover(ctx, n, len(res), err)
	}()

	w, _, err := s.resolveWeights(optFns)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pts, err := s.candidates(ids)
	if err != nil {
		return nil, err
	}
	n = len(pts)
	return cluster.Partition(ctx, pts, k, s.metric, w, 0)
}

// Feedback builds adaptation feedback from two stored concepts.
func (s *Space) Feedback(a, b model.ConceptID, target float64) (adapt.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pa, pb, err := s.pair(a, b)
	if err != nil {
		return adapt.Feedback{}, err
	}
	return adapt.Feedback{A: pa, B: pb, Target: target}, nil
}

// AdaptWeights takes a gradient step on the active weights towards the
// feedback targets and installs the result. Every region becomes unvalidated
// and the tessellation is rebuilt on next use.
func (s *Space) AdaptWeights(ctx context.Context, feedback []adapt.Feedback, p adapt.Params) (w *distance.Weights, err error) {
	start := time.Now()
	var loss float64
	defer func() {
		s.metrics.OnAdapt(loss, time.Since(start), err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err = adapt.Adapt(ctx, s.metric, s.weights.Load(), feedback, p)
	if err == nil {
		loss, err = adapt.Loss(ctx, s.metric, w, feedback)
	}
	if err != nil {
		s.logger.LogWeights(ctx, "adapt", s.metricVersion, err)
		return nil, err
	}

	s.installWeights(w)
	s.logger.LogWeights(ctx, "adapt", s.metricVersion, nil)
	return w, nil
}

// SetWeights replaces the active weights.
func (s *Space) SetWeights(ctx context.Context, values []float64) error {
	w, err := distance.NewWeights(values)
	if err == nil {
		err = s.metric.CheckWeights(w)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.LogWeights(ctx, "set", s.metricVersion, err)
		return err
	}
	s.installWeights(w)
	s.logger.LogWeights(ctx, "set", s.metricVersion, nil)
	return nil
}

// installWeights publishes w and invalidates everything derived from the metric.
// Callers hold mu exclusively.
func (s *Space) installWeights(w *distance.Weights) {
	s.weights.Store(w)
	s.index.Rebind(s.metric.Bind(w))
	s.metricVersion++
	s.generation++
}

// SetProfile binds a named context weighting, replacing any previous one.
func (s *Space) SetProfile(name string, values []float64) error {
	w, err := distance.NewWeights(values)
	if err != nil {
		return err
	}
	if err := s.metric.CheckWeights(w); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles.Store(s.profiles.Load().With(name, w))
	return nil
}

// RemoveProfile deletes a named context weighting.
func (s *Space) RemoveProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.profiles.Load()
	if _, ok := cur.Get(name); !ok {
		return &model.NotFoundError{Kind: "profile", ID: name}
	}
	s.profiles.Store(cur.Without(name))
	return nil
}

// Profiles returns the names of the registered context weightings.
func (s *Space) Profiles() []string {
	return s.profiles.Load().Names()
}

// Profile returns the weights of a named context.
func (s *Space) Profile(name string) (*distance.Weights, bool) {
	return s.profiles.Load().Get(name)
}
