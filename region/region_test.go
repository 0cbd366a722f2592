package region

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/internal/pk"
	"github.com/hupe1980/conceptspace/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	reg    *dimension.Registry
	metric *distance.Metric
	points map[pk.Handle][]float64
	next   pk.Handle
	env    Env
}

func newFixture(t *testing.T, dims ...dimension.Dimension) *fixture {
	t.Helper()
	if len(dims) == 0 {
		dims = []dimension.Dimension{dimension.Linear("x", 0, 10), dimension.Linear("y", 0, 10)}
	}
	reg, err := dimension.NewRegistry(dims...)
	require.NoError(t, err)
	m, err := distance.NewMetric(reg)
	require.NoError(t, err)

	f := &fixture{reg: reg, metric: m, points: make(map[pk.Handle][]float64)}
	f.env = Env{
		Metric:  m,
		Weights: distance.UniformWeights(reg.Len()),
		Version: 1,
		Coords:  f.coords,
	}
	return f
}

func (f *fixture) coords(h pk.Handle) ([]float64, bool) {
	c, ok := f.points[h]
	return c, ok
}

func (f *fixture) members(coords ...[]float64) []Member {
	out := make([]Member, 0, len(coords))
	for _, c := range coords {
		h := f.next
		f.next++
		f.points[h] = c
		out = append(out, Member{Handle: h, Coords: c})
	}
	return out
}

func TestDefine_DerivedHull(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	r, err := m.Define(f.members([]float64{2, 2}, []float64{4, 2}, []float64{4, 4}, []float64{2, 4}), Spec{Name: "square"})
	require.NoError(t, err)

	assert.Equal(t, KindHull, r.Kind())
	assert.Equal(t, 4, r.Len())
	assert.False(t, r.Declared())
	assert.InDeltaSlice(t, []float64{3, 3}, r.Prototype(), 1e-12)
	assert.Equal(t, m.Space(), r.Ref().Space)

	ctx := context.Background()

	proto, err := m.Test(ctx, r, r.Prototype(), f.env)
	require.NoError(t, err)
	assert.True(t, proto.IsMember)
	assert.Equal(t, 1.0, proto.Degree)

	inner, err := m.Test(ctx, r, []float64{3.2, 3.1}, f.env)
	require.NoError(t, err)
	assert.True(t, inner.IsMember)
	assert.Greater(t, inner.Degree, 0.5)

	far, err := m.Test(ctx, r, []float64{9, 9}, f.env)
	require.NoError(t, err)
	assert.False(t, far.IsMember)
	assert.Equal(t, 0.0, far.Degree)

	_, err = m.Test(ctx, r, []float64{1}, f.env)
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestDefine_CollinearSeeds(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	r, err := m.Define(f.members([]float64{1, 1}, []float64{2, 2}, []float64{3, 3}), Spec{})
	require.NoError(t, err)

	off := []float64{2, 2.3}
	res, err := m.Test(context.Background(), r, off, f.env)
	require.NoError(t, err)

	// Close to the prototype, but outside the zero-area hull.
	assert.Greater(t, res.Degree, 0.5)
	assert.False(t, res.IsMember)

	on, err := m.Test(context.Background(), r, []float64{2.5, 2.5}, f.env)
	require.NoError(t, err)
	assert.True(t, on.IsMember)
}

func TestDefine_SuppliedBoundary(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	square := [][]float64{{0, 0}, {5, 0}, {5, 5}, {0, 5}}
	seeds := f.members([]float64{1, 1}, []float64{4, 4}, []float64{8, 8})

	r, err := m.Define(seeds, Spec{Boundary: square})
	require.NoError(t, err)
	assert.Equal(t, []pk.Handle{seeds[0].Handle, seeds[1].Handle}, r.Handles())
	assert.InDeltaSlice(t, []float64{2.5, 2.5}, r.Prototype(), 1e-12)
	assert.Equal(t, square, r.Boundary())

	t.Run("NonConvex", func(t *testing.T) {
		arrow := [][]float64{{0, 0}, {4, 2}, {0, 4}, {2, 2}}
		_, err := m.Define(f.members([]float64{1, 2}), Spec{Boundary: arrow})
		assert.ErrorIs(t, err, model.ErrNonConvexRegion)
	})

	t.Run("AllSeedsOutside", func(t *testing.T) {
		_, err := m.Define(f.members([]float64{9, 9}), Spec{Boundary: square})
		assert.ErrorIs(t, err, model.ErrEmptyRegion)
	})

	t.Run("BoundaryOnCell", func(t *testing.T) {
		_, err := m.Define(f.members([]float64{1, 1}), Spec{Kind: KindCell, Boundary: square})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	assert.Equal(t, 1, m.Len())
}

func TestDefine_Errors(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	_, err := m.Define(nil, Spec{})
	assert.ErrorIs(t, err, model.ErrEmptyRegion)

	_, err = m.Define(nil, Spec{Prototype: []float64{1}})
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)

	r, err := m.Define(nil, Spec{Prototype: []float64{1, 1}, Name: "declared"})
	require.NoError(t, err)
	assert.True(t, r.Declared())
	assert.True(t, r.Empty())
}

func TestDefine_AutoKind(t *testing.T) {
	f := newFixture(t,
		dimension.Linear("a", 0, 1), dimension.Linear("b", 0, 1),
		dimension.Linear("c", 0, 1), dimension.Linear("d", 0, 1),
	)
	m := NewManager(uuid.New(), f.reg, Config{})

	r, err := m.Define(f.members([]float64{0, 0, 0, 0}), Spec{})
	require.NoError(t, err)
	assert.Equal(t, KindCell, r.Kind())

	m2 := NewManager(uuid.New(), f.reg, Config{HullMaxDimensions: 4})
	r, err = m2.Define(f.members([]float64{0, 0, 0, 0}), Spec{})
	require.NoError(t, err)
	assert.Equal(t, KindHull, r.Kind())
}

func TestCellMembership(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	left, err := m.Define(f.members([]float64{1, 5}, []float64{3, 5}), Spec{Kind: KindCell})
	require.NoError(t, err)
	_, err = m.Define(f.members([]float64{7, 5}, []float64{9, 5}), Spec{Kind: KindCell})
	require.NoError(t, err)

	ctx := context.Background()

	res, err := m.Test(ctx, left, []float64{2.5, 5}, f.env)
	require.NoError(t, err)
	assert.True(t, res.IsMember)

	// Degree alone says yes, but the other prototype is nearer.
	wide, err := m.Define(f.members([]float64{0, 0}, []float64{10, 10}), Spec{Kind: KindCell})
	require.NoError(t, err)
	res, err = m.Test(ctx, wide, []float64{2.5, 5}, f.env)
	require.NoError(t, err)
	assert.Greater(t, res.Degree, 0.5)
	assert.False(t, res.IsMember)

	// Prototype reflexivity holds for cells too.
	res, err = m.Test(ctx, wide, wide.Prototype(), f.env)
	require.NoError(t, err)
	assert.True(t, res.IsMember)
}

func TestMerge(t *testing.T) {
	f := newFixture(t)
	m1 := NewManager(uuid.New(), f.reg, Config{})

	a, err := m1.Define(f.members([]float64{1, 1}, []float64{2, 1}, []float64{1, 2}), Spec{Name: "a"})
	require.NoError(t, err)
	b, err := m1.Define(f.members([]float64{6, 6}, []float64{7, 7}), Spec{Name: "b"})
	require.NoError(t, err)

	// A second manager holding identical regions.
	m2 := NewManager(m1.Space(), f.reg, Config{})
	for _, r := range m1.All() {
		_, err := m2.Restore(r.State())
		require.NoError(t, err)
	}

	ab, err := m1.Merge(a.Ref(), b.Ref(), f.coords)
	require.NoError(t, err)
	ba, err := m2.Merge(b.Ref(), a.Ref(), f.coords)
	require.NoError(t, err)

	assert.Equal(t, ab.Handles(), ba.Handles())
	assert.InDeltaSlice(t, ab.Prototype(), ba.Prototype(), 1e-12)
	assert.Equal(t, "a+b", ab.Name())
	assert.Equal(t, 5, ab.Len())
	assert.Equal(t, 1, m1.Len())

	// (3 * (4/3, 4/3) + 2 * (6.5, 6.5)) / 5
	assert.InDeltaSlice(t, []float64{3.4, 3.4}, ab.Prototype(), 1e-12)

	_, err = m1.Get(a.ID())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMerge_Errors(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})
	other := NewManager(uuid.New(), f.reg, Config{})

	a, err := m.Define(f.members([]float64{1, 1}), Spec{})
	require.NoError(t, err)
	foreign, err := other.Define(f.members([]float64{2, 2}), Spec{})
	require.NoError(t, err)

	_, err = m.Merge(a.Ref(), foreign.Ref(), f.coords)
	assert.ErrorIs(t, err, model.ErrIncompatibleSpaces)

	_, err = m.Merge(a.Ref(), a.Ref(), f.coords)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = m.Merge(a.Ref(), Ref{Space: m.Space(), Region: uuid.New()}, f.coords)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Failed merges leave the arena untouched.
	assert.Equal(t, 1, m.Len())
	_, err = m.Get(a.ID())
	assert.NoError(t, err)
}

func TestMerge_Declared(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	a, err := m.Define(nil, Spec{Name: "a", Prototype: []float64{1, 1}})
	require.NoError(t, err)
	b, err := m.Define(nil, Spec{Name: "b", Prototype: []float64{3, 3}})
	require.NoError(t, err)

	ab, err := m.Merge(a.Ref(), b.Ref(), f.coords)
	require.NoError(t, err)
	assert.True(t, ab.Declared())
	assert.True(t, ab.Empty())
	assert.InDeltaSlice(t, []float64{2, 2}, ab.Prototype(), 1e-12)

	// The merged state restores like any declared region.
	other := NewManager(m.Space(), f.reg, Config{})
	_, err = other.Restore(ab.State())
	require.NoError(t, err)

	// Mixed operands give a derived region that a cascade can dissolve.
	seeds := f.members([]float64{5, 5})
	derived, err := m.Define(seeds, Spec{})
	require.NoError(t, err)
	mixed, err := m.Merge(ab.Ref(), derived.Ref(), f.coords)
	require.NoError(t, err)
	assert.False(t, mixed.Declared())

	delete(f.points, seeds[0].Handle)
	assert.Equal(t, []ID{mixed.ID()}, m.RemoveMember(seeds[0].Handle, f.coords))
	assert.Equal(t, 0, m.Len())
}

func TestMerge_WithBoundary(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	a, err := m.Define(f.members([]float64{1, 1}), Spec{Boundary: [][]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}}})
	require.NoError(t, err)
	b, err := m.Define(f.members([]float64{5, 1}, []float64{6, 1}), Spec{})
	require.NoError(t, err)

	ab, err := m.Merge(a.Ref(), b.Ref(), f.coords)
	require.NoError(t, err)
	assert.NotNil(t, ab.Boundary())

	bad, err := m.Validate(context.Background(), ab, f.env)
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestRemoveMember_Cascade(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	seeds := f.members([]float64{1, 1}, []float64{3, 3})
	derived, err := m.Define(seeds, Spec{})
	require.NoError(t, err)
	single, err := m.Define(seeds[:1], Spec{})
	require.NoError(t, err)
	declared, err := m.Define(seeds[:1], Spec{Prototype: []float64{1, 1}})
	require.NoError(t, err)

	delete(f.points, seeds[0].Handle)
	dissolved := m.RemoveMember(seeds[0].Handle, f.coords)

	assert.Equal(t, []ID{single.ID()}, dissolved)
	assert.Equal(t, 2, m.Len())

	// Derived prototype follows the remaining member.
	assert.InDeltaSlice(t, []float64{3, 3}, derived.Prototype(), 1e-12)
	assert.Equal(t, 1, derived.Len())

	// Declared regions are retained empty with their prototype.
	assert.True(t, declared.Empty())
	assert.Equal(t, []float64{1, 1}, declared.Prototype())

	assert.Empty(t, m.RemoveMember(99, f.coords))
}

func TestMoveMember_Validate(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	seeds := f.members([]float64{1, 1}, []float64{2, 2})
	r, err := m.Define(seeds, Spec{Boundary: [][]float64{{0, 0}, {3, 0}, {3, 3}, {0, 3}}})
	require.NoError(t, err)

	ctx := context.Background()
	bad, err := m.Validate(ctx, r, f.env)
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Equal(t, uint64(1), r.ValidatedAt())

	f.points[seeds[1].Handle] = []float64{7, 7}
	touched := m.MoveMember(seeds[1].Handle, f.coords)
	assert.Equal(t, []ID{r.ID()}, touched)
	assert.InDeltaSlice(t, []float64{4, 4}, r.Prototype(), 1e-12)

	f.env.Version = 2
	bad, err = m.Validate(ctx, r, f.env)
	require.NoError(t, err)
	assert.Equal(t, []pk.Handle{seeds[1].Handle}, bad)
	assert.Equal(t, uint64(2), r.ValidatedAt())
}

func TestValidated(t *testing.T) {
	ctx := context.Background()

	t.Run("hull", func(t *testing.T) {
		f := newFixture(t)
		m := NewManager(uuid.New(), f.reg, Config{})

		seeds := f.members([]float64{1, 1}, []float64{2, 1}, []float64{1, 2})
		r, err := m.Define(seeds, Spec{Kind: KindHull})
		require.NoError(t, err)
		assert.False(t, m.Validated(r, f.env.Version))

		_, err = m.Validate(ctx, r, f.env)
		require.NoError(t, err)
		assert.True(t, m.Validated(r, f.env.Version))
		assert.False(t, m.Validated(r, f.env.Version+1), "weights changed")

		// Other regions do not affect a hull.
		_, err = m.Define(f.members([]float64{8, 8}), Spec{Kind: KindHull})
		require.NoError(t, err)
		assert.True(t, m.Validated(r, f.env.Version))

		f.points[seeds[2].Handle] = []float64{9, 9}
		m.MoveMember(seeds[2].Handle, f.coords)
		assert.False(t, m.Validated(r, f.env.Version))
	})

	t.Run("cell", func(t *testing.T) {
		f := newFixture(t)
		m := NewManager(uuid.New(), f.reg, Config{})

		r, err := m.Define(f.members([]float64{1, 5}, []float64{2, 5}, []float64{3, 5}), Spec{Kind: KindCell})
		require.NoError(t, err)
		other := f.members([]float64{8, 5})
		_, err = m.Define(other, Spec{Kind: KindCell})
		require.NoError(t, err)

		bad, err := m.Validate(ctx, r, f.env)
		require.NoError(t, err)
		assert.Empty(t, bad)
		assert.True(t, m.Validated(r, f.env.Version))

		// Moving the neighbor's prototype shifts the shared bisector.
		f.points[other[0].Handle] = []float64{3.5, 5}
		m.MoveMember(other[0].Handle, f.coords)
		assert.False(t, m.Validated(r, f.env.Version))

		bad, err = m.Validate(ctx, r, f.env)
		require.NoError(t, err)
		assert.Len(t, bad, 1)
		assert.True(t, m.Validated(r, f.env.Version))
	})
}

func TestDiameterFollowsMetricVersion(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	r, err := m.Define(f.members([]float64{0, 0}, []float64{3, 4}), Spec{})
	require.NoError(t, err)

	ctx := context.Background()
	d, err := m.Diameter(ctx, r, f.env)
	require.NoError(t, err)
	assert.InDelta(t, 5, d, 1e-12)

	// A new weight snapshot under the same version is served from cache.
	f.env.Weights, err = distance.NewWeights([]float64{1, 0})
	require.NoError(t, err)
	d, err = m.Diameter(ctx, r, f.env)
	require.NoError(t, err)
	assert.InDelta(t, 5, d, 1e-12)

	f.env.Version++
	d, err = m.Diameter(ctx, r, f.env)
	require.NoError(t, err)
	assert.InDelta(t, 3, d, 1e-12)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	m := NewManager(uuid.New(), f.reg, Config{})

	r, err := m.Define(f.members([]float64{1, 1}, []float64{2, 2}), Spec{Name: "r"})
	require.NoError(t, err)

	_, err = m.Restore(r.State())
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	st := r.State()
	st.ID = uuid.New()
	st.Members = nil
	_, err = m.Restore(st)
	assert.ErrorIs(t, err, model.ErrEmptyRegion)

	st.Declared = true
	got, err := m.Restore(st)
	require.NoError(t, err)
	assert.Equal(t, "r", got.Name())
	assert.Equal(t, 2, m.Len())
}

func TestBoundaryKindText(t *testing.T) {
	for _, k := range []BoundaryKind{KindAuto, KindHull, KindCell} {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got BoundaryKind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}
	var k BoundaryKind
	assert.Error(t, k.UnmarshalText([]byte("sphere")))
}
