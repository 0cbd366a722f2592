package conceptspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/internal/pk"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/region"
)

// StateVersion is the version of the State layout.
const StateVersion = 1

// State is the serialized form of a space. It holds everything needed to
// rebuild the space: registry, metric, weights, profiles, points and regions.
type State struct {
	Version    int                   `json:"version"`
	ID         uuid.UUID             `json:"id"`
	Dimensions []dimension.Dimension `json:"dimensions"`
	Order      distance.Order        `json:"order"`
	Decay      float64               `json:"decay"`
	Threshold  float64               `json:"threshold"`
	Weights    []float64             `json:"weights"`
	Profiles   map[string][]float64  `json:"profiles,omitempty"`
	Points     []model.Point         `json:"points"`
	Regions    []RegionState         `json:"regions"`
}

// RegionState is the serialized form of a region. Members are concept IDs.
type RegionState struct {
	ID        region.ID           `json:"id"`
	Name      string              `json:"name,omitempty"`
	Kind      region.BoundaryKind `json:"kind"`
	Declared  bool                `json:"declared"`
	Prototype []float64           `json:"prototype"`
	Origin    []float64           `json:"origin,omitempty"`
	Boundary  [][]float64         `json:"boundary,omitempty"`
	Members   []model.ConceptID   `json:"members"`
}

// Export captures the space. The result shares no memory with the space.
func (s *Space) Export() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &State{
		Version:    StateVersion,
		ID:         s.id,
		Dimensions: s.reg.Dimensions(),
		Order:      s.metric.Order(),
		Decay:      s.metric.Decay(),
		Threshold:  s.regions.Threshold(),
		Weights:    s.weights.Load().Values(),
		Points:     s.pointsLocked(),
	}

	profiles := s.profiles.Load()
	if profiles.Len() > 0 {
		st.Profiles = make(map[string][]float64, profiles.Len())
		for _, name := range profiles.Names() {
			w, _ := profiles.Get(name)
			st.Profiles[name] = w.Values()
		}
	}

	for _, r := range s.regions.All() {
		rs := r.State()
		st.Regions = append(st.Regions, RegionState{
			ID:        rs.ID,
			Name:      rs.Name,
			Kind:      rs.Kind,
			Declared:  rs.Declared,
			Prototype: rs.Prototype,
			Origin:    rs.Origin,
			Boundary:  rs.Boundary,
			Members:   s.memberIDs(rs.Members),
		})
	}
	return st
}

// Restore rebuilds a space from st. Options in optFns override the captured
// metric configuration where they overlap.
func Restore(ctx context.Context, st *State, optFns ...Option) (*Space, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil state", model.ErrInvalidArgument)
	}
	if st.Version != StateVersion {
		return nil, fmt.Errorf("%w: unsupported state version %d", model.ErrInvalidArgument, st.Version)
	}

	base := []Option{
		WithID(st.ID),
		WithOrder(st.Order),
		WithDecay(st.Decay),
		WithThreshold(st.Threshold),
		WithInitialWeights(st.Weights),
	}
	for name, w := range st.Profiles {
		base = append(base, WithProfile(name, w))
	}

	s, err := New(st.Dimensions, append(base, optFns...)...)
	if err != nil {
		return nil, fmt.Errorf("restore space: %w", err)
	}

	for _, p := range st.Points {
		if _, err := s.Insert(ctx, p); err != nil {
			return nil, fmt.Errorf("restore point %q: %w", p.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rs := range st.Regions {
		members := make([]pk.Handle, len(rs.Members))
		for i, id := range rs.Members {
			h, ok := s.handles.Handle(id)
			if !ok {
				return nil, fmt.Errorf("restore region %s: %w", rs.ID, model.ConceptNotFound(id))
			}
			members[i] = h
		}
		if _, err := s.regions.Restore(region.State{
			ID:        rs.ID,
			Name:      rs.Name,
			Kind:      rs.Kind,
			Declared:  rs.Declared,
			Prototype: rs.Prototype,
			Origin:    rs.Origin,
			Boundary:  rs.Boundary,
			Members:   members,
		}); err != nil {
			return nil, fmt.Errorf("restore region %s: %w", rs.ID, err)
		}
	}
	s.generation++
	return s, nil
}
