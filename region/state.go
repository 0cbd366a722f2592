package region

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/conceptspace/internal/pk"
	"github.com/hupe1980/conceptspace/model"
)

// State is the restorable form of a region.
type State struct {
	ID        ID
	Name      string
	Kind      BoundaryKind
	Declared  bool
	Prototype []float64
	Origin    []float64
	Boundary  [][]float64
	Members   []pk.Handle
}

// State captures r.
func (r *Region) State() State {
	return State{
		ID:        r.id,
		Name:      r.name,
		Kind:      r.kind,
		Declared:  r.declared,
		Prototype: slices.Clone(r.prototype),
		Origin:    slices.Clone(r.origin),
		Boundary:  r.Boundary(),
		Members:   r.Handles(),
	}
}

// Restore inserts a region captured by State.
func (m *Manager) Restore(st State) (*Region, error) {
	if _, dup := m.regions[st.ID]; dup {
		return nil, fmt.Errorf("%w: duplicate region %s", model.ErrInvalidArgument, st.ID)
	}
	if err := model.CheckDimension(m.reg.Len(), len(st.Prototype)); err != nil {
		return nil, err
	}
	if st.Kind == KindAuto {
		st.Kind = m.resolveKind(KindAuto)
	}

	origin := st.Origin
	if origin == nil {
		origin = st.Prototype
	}

	members := roaring.New()
	for _, h := range st.Members {
		members.Add(uint32(h))
	}

	if members.IsEmpty() && !st.Declared {
		return nil, fmt.Errorf("%w: derived region %s has no members", model.ErrEmptyRegion, st.ID)
	}

	r := &Region{
		id:        st.ID,
		space:     m.space,
		name:      st.Name,
		kind:      st.Kind,
		declared:  st.Declared,
		prototype: slices.Clone(st.Prototype),
		members:   members,
		origin:    slices.Clone(origin),
		boundary:  cloneAll(st.Boundary),
	}
	if len(st.Boundary) == 0 {
		r.boundary = nil
	}
	m.regions[r.id] = r
	m.layout++
	return r, nil
}
