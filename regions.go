package conceptspace

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/conceptspace/internal/pk"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/region"
)

// RegionInfo is a read-only view of a region.
type RegionInfo struct {
	Ref       region.Ref          `json:"ref"`
	Name      string              `json:"name,omitempty"`
	Kind      region.BoundaryKind `json:"kind"`
	Declared  bool                `json:"declared"`
	Prototype []float64           `json:"prototype"`
	Boundary  [][]float64         `json:"boundary,omitempty"`
	Members   []model.ConceptID   `json:"members"`
	// Validated reports whether the last Validate still holds: the weights, the
	// region and, for cell regions, the other prototypes are unchanged since.
	Validated bool `json:"validated"`
}

// env returns the region environment under the active weights. Callers hold mu.
func (s *Space) env() region.Env {
	return region.Env{
		Metric:  s.metric,
		Weights: s.weights.Load(),
		Version: s.metricVersion,
		Coords:  s.coords,
	}
}

func (s *Space) info(r *region.Region) RegionInfo {
	return RegionInfo{
		Ref:       r.Ref(),
		Name:      r.Name(),
		Kind:      r.Kind(),
		Declared:  r.Declared(),
		Prototype: r.Prototype(),
		Boundary:  r.Boundary(),
		Members:   s.memberIDs(r.Handles()),
		Validated: s.regions.Validated(r, s.metricVersion),
	}
}

func (s *Space) memberIDs(hs []pk.Handle) []model.ConceptID {
	out := make([]model.ConceptID, 0, len(hs))
	for _, h := range hs {
		if id, ok := s.handles.ID(h); ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (s *Space) observeRegion(ctx context.Context, op string, start time.Time, id region.ID, err error) {
	s.metrics.OnRegion(op, time.Since(start), err)
	s.logger.LogRegion(ctx, op, id, err)
}

// DefineRegion creates a region from stored seed concepts. A declared
// prototype in spec makes the region survive losing all of its members; a
// supplied boundary must be convex and seeds outside it are dropped.
func (s *Space) DefineRegion(ctx context.Context, seeds []model.ConceptID, spec region.Spec) (ref region.Ref, err error) {
	start := time.Now()
	defer func() { s.observeRegion(ctx, "define", start, ref.Region, err) }()

	if spec.Prototype != nil {
		if spec.Prototype, err = s.reg.Validate(spec.Prototype); err != nil {
			return region.Ref{}, fmt.Errorf("prototype: %w", err)
		}
	}
	if len(spec.Boundary) > 0 {
		boundary := make([][]float64, len(spec.Boundary))
		for i, v := range spec.Boundary {
			if boundary[i], err = s.reg.Validate(v); err != nil {
				return region.Ref{}, fmt.Errorf("boundary vertex %d: %w", i, err)
			}
		}
		spec.Boundary = boundary
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]region.Member, len(seeds))
	for i, id := range seeds {
		h, ok := s.handles.Handle(id)
		if !ok {
			return region.Ref{}, model.ConceptNotFound(id)
		}
		members[i] = region.Member{Handle: h, Coords: s.points[h].Coordinates}
	}

	r, err := s.regions.Define(members, spec)
	if err != nil {
		return region.Ref{}, err
	}
	s.generation++
	return r.Ref(), nil
}

// TestMembership returns the fuzzy membership of x in the region.
func (s *Space) TestMembership(ctx context.Context, ref region.Ref, x []float64) (m region.Membership, err error) {
	start := time.Now()
	defer func() { s.observeRegion(ctx, "test", start, ref.Region, err) }()

	point, err := s.reg.Validate(x)
	if err != nil {
		return region.Membership{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.regions.Resolve(ref)
	if err != nil {
		return region.Membership{}, err
	}
	return s.regions.Test(ctx, r, point, s.env())
}

// ContainingRegions returns every region x is a member of, in region ID order.
func (s *Space) ContainingRegions(ctx context.Context, x []float64) ([]region.Ref, error) {
	point, err := s.reg.Validate(x)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	env := s.env()
	var out []region.Ref
	for _, r := range s.regions.All() {
		m, err := s.regions.Test(ctx, r, point, env)
		if err != nil {
			return nil, err
		}
		if m.IsMember {
			out = append(out, r.Ref())
		}
	}
	return out, nil
}

// Merge replaces a and b by their union. Merging is commutative: Merge(a, b)
// and Merge(b, a) yield the same members and prototype.
func (s *Space) Merge(ctx context.Context, a, b region.Ref) (ref region.Ref, err error) {
	start := time.Now()
	defer func() { s.observeRegion(ctx, "merge", start, ref.Region, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.regions.Merge(a, b, s.coords)
	if err != nil {
		return region.Ref{}, err
	}
	s.generation++
	return r.Ref(), nil
}

// Dissolve removes a region. Its member points are unaffected.
func (s *Space) Dissolve(ctx context.Context, ref region.Ref) (err error) {
	start := time.Now()
	defer func() { s.observeRegion(ctx, "dissolve", start, ref.Region, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.regions.Resolve(ref); err != nil {
		return err
	}
	if err := s.regions.Dissolve(ref.Region); err != nil {
		return err
	}
	s.generation++
	return nil
}

// Region returns a view of one region.
func (s *Space) Region(ref region.Ref) (RegionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.regions.Resolve(ref)
	if err != nil {
		return RegionInfo{}, err
	}
	return s.info(r), nil
}

// Regions returns views of all regions in ID order.
func (s *Space) Regions() []RegionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.regions.All()
	out := make([]RegionInfo, len(all))
	for i, r := range all {
		out[i] = s.info(r)
	}
	return out
}

// Validate re-checks the boundary of a region under the current weights and
// returns the members that violate it. Weight changes and point moves can make
// members fall outside; nothing is repaired automatically.
func (s *Space) Validate(ctx context.Context, ref region.Ref) (bad []model.ConceptID, err error) {
	start := time.Now()
	defer func() { s.observeRegion(ctx, "validate", start, ref.Region, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.regions.Resolve(ref)
	if err != nil {
		return nil, err
	}
	hs, err := s.regions.Validate(ctx, r, s.env())
	if err != nil {
		return nil, err
	}
	return s.memberIDs(hs), nil
}
