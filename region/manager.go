package region

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/geometry"
	"github.com/hupe1980/conceptspace/internal/pk"
	"github.com/hupe1980/conceptspace/model"
)

const (
	// DefaultHullMaxDimensions is the largest dimensionality that gets explicit hulls.
	DefaultHullMaxDimensions = 3

	// DefaultThreshold is the membership degree a point must exceed.
	DefaultThreshold = 0.5
)

// Config tunes the manager.
type Config struct {
	HullMaxDimensions int     `mapstructure:"hull_max_dimensions"`
	Threshold         float64 `mapstructure:"threshold"`
}

// Env is the metric environment a query runs against.
type Env struct {
	Metric  *distance.Metric
	Weights *distance.Weights
	// Version identifies the metric state (weights); caches keyed by it are
	// recomputed when it changes.
	Version uint64
	// Coords resolves a member handle to its stored coordinates.
	Coords func(h pk.Handle) ([]float64, bool)
}

// Member is a point offered to Define.
type Member struct {
	Handle pk.Handle
	Coords []float64
}

// Spec describes a region to define.
type Spec struct {
	Name string
	Kind BoundaryKind
	// Prototype, when set, is a declared prototype; such regions survive losing all members.
	Prototype []float64
	// Boundary optionally supplies explicit hull vertices (hull regions only).
	Boundary [][]float64
}

// Membership is the result of a membership test.
type Membership struct {
	Degree   float64 `json:"degree"`
	IsMember bool    `json:"is_member"`
	Distance float64 `json:"distance"`
}

// Manager is the arena of a space's regions.
type Manager struct {
	space   uuid.UUID
	reg     *dimension.Registry
	cfg     Config
	regions map[ID]*Region
	// layout is bumped whenever a region is added, removed or changed, so
	// cell boundaries that depend on every prototype can be invalidated.
	layout uint64
}

// NewManager creates an empty manager for the given space.
func NewManager(space uuid.UUID, reg *dimension.Registry, cfg Config) *Manager {
	if cfg.HullMaxDimensions <= 0 {
		cfg.HullMaxDimensions = DefaultHullMaxDimensions
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = DefaultThreshold
	}
	return &Manager{
		space:   space,
		reg:     reg,
		cfg:     cfg,
		regions: make(map[ID]*Region),
	}
}

// Space returns the owning space's ID.
func (m *Manager) Space() uuid.UUID { return m.space }

// Threshold returns the membership threshold.
func (m *Manager) Threshold() float64 { return m.cfg.Threshold }

// Len returns the number of regions.
func (m *Manager) Len() int { return len(m.regions) }

// Get returns the region with the given ID.
func (m *Manager) Get(id ID) (*Region, error) {
	r, ok := m.regions[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "region", ID: id.String()}
	}
	return r, nil
}

// Resolve returns the region behind ref, failing with ErrIncompatibleSpaces if
// ref belongs to another space.
func (m *Manager) Resolve(ref Ref) (*Region, error) {
	if ref.Space != m.space {
		return nil, fmt.Errorf("%w: region %s belongs to space %s, not %s", model.ErrIncompatibleSpaces, ref.Region, ref.Space, m.space)
	}
	return m.Get(ref.Region)
}

// All returns the regions ordered by ID.
func (m *Manager) All() []*Region {
	ids := slices.SortedFunc(maps.Keys(m.regions), CompareIDs)
	out := make([]*Region, len(ids))
	for i, id := range ids {
		out[i] = m.regions[id]
	}
	return out
}

func (m *Manager) resolveKind(k BoundaryKind) BoundaryKind {
	if k != KindAuto {
		return k
	}
	if m.reg.Len() <= m.cfg.HullMaxDimensions {
		return KindHull
	}
	return KindCell
}

// Define creates a region from seeds. Coordinates must already be validated.
//
// For hull regions with a supplied boundary, the boundary must be convex
// (ErrNonConvexRegion otherwise) and seeds outside it are dropped from the
// member set.
func (m *Manager) Define(seeds []Member, spec Spec) (*Region, error) {
	seeds = dedupeMembers(seeds)
	declared := spec.Prototype != nil

	if len(seeds) == 0 && !declared {
		return nil, fmt.Errorf("%w: a derived region needs at least one seed", model.ErrEmptyRegion)
	}
	if declared {
		if err := model.CheckDimension(m.reg.Len(), len(spec.Prototype)); err != nil {
			return nil, err
		}
	}

	kind := m.resolveKind(spec.Kind)
	if kind == KindCell && len(spec.Boundary) > 0 {
		return nil, fmt.Errorf("%w: an explicit boundary requires a hull region", model.ErrInvalidArgument)
	}

	proto := spec.Prototype
	if !declared {
		proto = geometry.Centroid(m.reg, memberCoords(seeds))
	}

	var boundary [][]float64
	if len(spec.Boundary) > 0 {
		for _, v := range spec.Boundary {
			if err := model.CheckDimension(m.reg.Len(), len(v)); err != nil {
				return nil, err
			}
		}

		chart := geometry.NewChart(m.reg, proto)
		local := chart.ToAll(spec.Boundary)
		if !isConvexBoundary(local) {
			return nil, fmt.Errorf("%w: supplied boundary has vertices that are not extreme points", model.ErrNonConvexRegion)
		}

		hull := geometry.NewHull(local)
		kept := seeds[:0:0]
		for _, s := range seeds {
			if hull.Contains(chart.To(s.Coords)) {
				kept = append(kept, s)
			}
		}
		seeds = kept

		if len(seeds) == 0 && !declared {
			return nil, fmt.Errorf("%w: no seed lies inside the supplied boundary", model.ErrEmptyRegion)
		}
		if !declared {
			proto = geometry.Centroid(m.reg, memberCoords(seeds))
		}
		boundary = cloneAll(spec.Boundary)
	}

	members := roaring.New()
	for _, s := range seeds {
		members.Add(uint32(s.Handle))
	}

	r := &Region{
		id:        uuid.New(),
		space:     m.space,
		name:      spec.Name,
		kind:      kind,
		declared:  declared,
		prototype: slices.Clone(proto),
		members:   members,
		origin:    slices.Clone(proto),
		boundary:  boundary,
	}
	m.regions[r.id] = r
	m.layout++
	return r, nil
}

// isConvexBoundary reports whether every vertex is an extreme point and, in 2D,
// whether the vertices in the given order form a convex polygon.
func isConvexBoundary(local [][]float64) bool {
	distinct := make([][]float64, 0, len(local))
	for _, v := range local {
		if !slices.ContainsFunc(distinct, func(d []float64) bool { return slices.Equal(d, v) }) {
			distinct = append(distinct, v)
		}
	}
	if len(geometry.NewHull(distinct).Vertices()) != len(distinct) {
		return false
	}
	return len(distinct[0]) != 2 || geometry.IsConvexPolygon(distinct)
}

// Merge combines a and b into a new region and removes both. The new prototype
// is the centroid of the two prototypes weighted by member counts; member sets
// are unioned. When either side carries an explicit boundary, the merged
// boundary is the hull of both boundaries and the other side's members.
// The result is declared only when both operands are; a derived result
// without members fails with ErrEmptyRegion and leaves both regions in place.
func (m *Manager) Merge(a, b Ref, coords func(pk.Handle) ([]float64, bool)) (*Region, error) {
	ra, err := m.Resolve(a)
	if err != nil {
		return nil, err
	}
	rb, err := m.Resolve(b)
	if err != nil {
		return nil, err
	}
	if ra.id == rb.id {
		return nil, fmt.Errorf("%w: cannot merge region %s with itself", model.ErrInvalidArgument, ra.id)
	}

	// Canonical order keeps merge(a, b) and merge(b, a) bit-identical.
	if CompareIDs(ra.id, rb.id) > 0 {
		ra, rb = rb, ra
	}

	ma, mb := float64(ra.Len()), float64(rb.Len())
	if ma+mb == 0 {
		ma, mb = 1, 1
	}
	proto := geometry.WeightedCentroid(m.reg, [][]float64{ra.prototype, rb.prototype}, []float64{ma, mb})

	kind := ra.kind
	if rb.kind != kind {
		kind = KindCell
	}

	members := roaring.Or(ra.members, rb.members)
	declared := ra.declared && rb.declared
	if members.IsEmpty() && !declared {
		return nil, fmt.Errorf("%w: merging %s and %s leaves no members", model.ErrEmptyRegion, ra.id, rb.id)
	}

	var boundary [][]float64
	if kind == KindHull && (ra.boundary != nil || rb.boundary != nil) {
		chart := geometry.NewChart(m.reg, proto)
		pts := [][]float64{chart.To(ra.prototype), chart.To(rb.prototype)}
		for _, r := range []*Region{ra, rb} {
			if r.boundary != nil {
				pts = append(pts, chart.ToAll(r.boundary)...)
				continue
			}
			for _, h := range r.Handles() {
				if c, ok := coords(h); ok {
					pts = append(pts, chart.To(c))
				}
			}
		}
		for _, v := range geometry.NewHull(pts).Vertices() {
			boundary = append(boundary, chart.From(v))
		}
	}

	names := make([]string, 0, 2)
	for _, n := range []string{ra.name, rb.name} {
		if n != "" {
			names = append(names, n)
		}
	}
	slices.Sort(names)

	merged := &Region{
		id:        uuid.New(),
		space:     m.space,
		name:      strings.Join(names, "+"),
		kind:      kind,
		declared:  declared,
		prototype: proto,
		members:   members,
		origin:    slices.Clone(proto),
		boundary:  boundary,
	}

	delete(m.regions, ra.id)
	delete(m.regions, rb.id)
	m.regions[merged.id] = merged
	m.layout++
	return merged, nil
}

// Dissolve removes a region.
func (m *Manager) Dissolve(id ID) error {
	if _, ok := m.regions[id]; !ok {
		return &model.NotFoundError{Kind: "region", ID: id.String()}
	}
	delete(m.regions, id)
	m.layout++
	return nil
}

// RemoveMember drops h from every region. Derived prototypes are recomputed;
// derived regions left empty are dissolved, declared ones are retained. It
// returns the IDs of the dissolved regions in ID order.
func (m *Manager) RemoveMember(h pk.Handle, coords func(pk.Handle) ([]float64, bool)) []ID {
	var dissolved []ID
	for _, r := range m.All() {
		if !r.members.CheckedRemove(uint32(h)) {
			continue
		}
		r.touch()
		m.layout++

		if r.Empty() {
			if !r.declared {
				delete(m.regions, r.id)
				dissolved = append(dissolved, r.id)
			}
			continue
		}
		m.rederive(r, coords)
	}
	return dissolved
}

// MoveMember marks every region containing h as changed and recomputes derived prototypes.
func (m *Manager) MoveMember(h pk.Handle, coords func(pk.Handle) ([]float64, bool)) []ID {
	var touched []ID
	for _, r := range m.All() {
		if !r.Has(h) {
			continue
		}
		r.touch()
		m.layout++
		m.rederive(r, coords)
		touched = append(touched, r.id)
	}
	return touched
}

func (m *Manager) rederive(r *Region, coords func(pk.Handle) ([]float64, bool)) {
	if r.declared {
		return
	}
	pts := make([][]float64, 0, r.Len())
	for _, h := range r.Handles() {
		if c, ok := coords(h); ok {
			pts = append(pts, c)
		}
	}
	if len(pts) == 0 {
		return
	}
	r.prototype = geometry.Centroid(m.reg, pts)
	r.origin = slices.Clone(r.prototype)
}

// Prototypes returns every region's prototype keyed by region, in ID order.
func (m *Manager) Prototypes() ([]ID, [][]float64) {
	all := m.All()
	ids := make([]ID, len(all))
	protos := make([][]float64, len(all))
	for i, r := range all {
		ids[i] = r.id
		protos[i] = r.prototype
	}
	return ids, protos
}

// Test computes the membership of x in r under env.
func (m *Manager) Test(ctx context.Context, r *Region, x []float64, env Env) (Membership, error) {
	d, err := env.Metric.Distance(x, r.prototype, env.Weights)
	if err != nil {
		return Membership{}, err
	}

	diam, err := m.diameter(ctx, r, env)
	if err != nil {
		return Membership{}, err
	}

	var degree float64
	switch {
	case diam > 0:
		degree = min(max(1-d/diam, 0), 1)
	case d == 0:
		degree = 1
	}

	res := Membership{Degree: degree, Distance: d}
	if degree <= m.cfg.Threshold {
		return res, nil
	}

	inside, err := m.insideBoundary(ctx, r, x, env)
	if err != nil {
		return Membership{}, err
	}
	res.IsMember = inside
	return res, nil
}

// insideBoundary applies the hull test for hull regions and the nearest-prototype
// test for cell regions.
func (m *Manager) insideBoundary(ctx context.Context, r *Region, x []float64, env Env) (bool, error) {
	if r.kind == KindHull {
		hull := m.hull(r, env)
		return hull.Contains(geometry.NewChart(m.reg, r.origin).To(x)), nil
	}

	fn := env.Metric.Bind(env.Weights)
	own := fn(x, r.prototype)
	for id, o := range m.regions {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if id == r.id {
			continue
		}
		if fn(x, o.prototype) < own {
			return false, nil
		}
	}
	return true, nil
}

// hull returns the cached hull of r, rebuilding it after shape changes.
func (m *Manager) hull(r *Region, env Env) *geometry.Hull {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	if r.cache.hull != nil && r.cache.hullShape == r.shape {
		return r.cache.hull
	}

	chart := geometry.NewChart(m.reg, r.origin)
	var pts [][]float64
	if r.boundary != nil {
		pts = chart.ToAll(r.boundary)
	} else {
		for _, h := range r.Handles() {
			if c, ok := env.Coords(h); ok {
				pts = append(pts, chart.To(c))
			}
		}
	}
	// The prototype is always inside its own region.
	pts = append(pts, chart.To(r.prototype))

	r.cache.hull = geometry.NewHull(pts)
	r.cache.hullShape = r.shape
	return r.cache.hull
}

// diameter returns the cached maximum intra-region distance.
func (m *Manager) diameter(ctx context.Context, r *Region, env Env) (float64, error) {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	c := &r.cache
	if c.diameterValid && c.diameterShape == r.shape && c.diameterMetric == env.Version {
		return c.diameter, nil
	}

	pts := make([][]float64, 0, r.Len())
	for _, h := range r.Handles() {
		if p, ok := env.Coords(h); ok {
			pts = append(pts, p)
		}
	}

	fn := env.Metric.Bind(env.Weights)
	var diam float64
	for i := range pts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for j := i + 1; j < len(pts); j++ {
			diam = max(diam, fn(pts[i], pts[j]))
		}
	}

	c.diameter = diam
	c.diameterShape = r.shape
	c.diameterMetric = env.Version
	c.diameterValid = true
	return diam, nil
}

// Diameter exposes the cached maximum intra-region distance.
func (m *Manager) Diameter(ctx context.Context, r *Region, env Env) (float64, error) {
	return m.diameter(ctx, r, env)
}

// Validate re-checks the boundary invariant for every member of r and returns
// the handles that currently violate it. The region records env.Version as its
// validation point.
func (m *Manager) Validate(ctx context.Context, r *Region, env Env) ([]pk.Handle, error) {
	var bad []pk.Handle
	for _, h := range r.Handles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, ok := env.Coords(h)
		if !ok {
			bad = append(bad, h)
			continue
		}
		inside, err := m.insideBoundary(ctx, r, c, env)
		if err != nil {
			return nil, err
		}
		if !inside {
			bad = append(bad, h)
		}
	}

	r.cache.mu.Lock()
	r.validated = validation{done: true, version: env.Version, shape: r.shape, layout: m.layout}
	r.cache.mu.Unlock()
	return bad, nil
}

// Validated reports whether the last Validate of r still holds: it ran under
// metric version and neither r nor, for cell regions, any other region has
// changed since.
func (m *Manager) Validated(r *Region, version uint64) bool {
	r.cache.mu.Lock()
	v := r.validated
	r.cache.mu.Unlock()

	if !v.done || v.version != version || v.shape != r.shape {
		return false
	}
	return r.kind != KindCell || v.layout == m.layout
}

func dedupeMembers(seeds []Member) []Member {
	seen := make(map[pk.Handle]struct{}, len(seeds))
	out := make([]Member, 0, len(seeds))
	for _, s := range seeds {
		if _, dup := seen[s.Handle]; dup {
			continue
		}
		seen[s.Handle] = struct{}{}
		out = append(out, s)
	}
	return out
}

func memberCoords(seeds []Member) [][]float64 {
	out := make([][]float64, len(seeds))
	for i, s := range seeds {
		out[i] = s.Coords
	}
	return out
}

func cloneAll(vs [][]float64) [][]float64 {
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = slices.Clone(v)
	}
	return out
}
