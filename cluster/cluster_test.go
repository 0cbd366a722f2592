package cluster

import (
	"context"
	"testing"

	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plane(t *testing.T) (*distance.Metric, *distance.Weights) {
	t.Helper()
	reg, err := dimension.NewRegistry(dimension.Linear("x", 0, 100), dimension.Linear("y", 0, 100))
	require.NoError(t, err)
	m, err := distance.NewMetric(reg)
	require.NoError(t, err)
	return m, distance.UniformWeights(2)
}

func pt(id string, coords ...float64) model.Point {
	return model.Point{ID: model.ConceptID(id), Coordinates: coords}
}

func TestDiscover_TwoClustersAndNoise(t *testing.T) {
	m, w := plane(t)
	points := []model.Point{
		pt("b2", 51, 50), pt("a1", 10, 10), pt("a2", 11, 10), pt("a3", 10, 11),
		pt("b1", 50, 50), pt("b3", 50, 51), pt("z", 90, 90),
	}

	got, err := Discover(context.Background(), points, Params{MinDensity: 2, Radius: 1.5}, m, w)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []model.ConceptID{"a1", "a2", "a3"}, got[0].Members)
	assert.Equal(t, []model.ConceptID{"b1", "b2", "b3"}, got[1].Members)
	assert.InDeltaSlice(t, []float64{31.0 / 3, 31.0 / 3}, got[0].Prototype, 1e-9)
}

func TestDiscover_OrderIndependent(t *testing.T) {
	m, w := plane(t)
	reg := m.Registry()
	points := testutil.NewRNG(3).ClusteredPoints(reg, 60, 3, 0.02)

	p := Params{MinDensity: 3, Radius: 6}
	first, err := Discover(context.Background(), points, p, m, w)
	require.NoError(t, err)

	reversed := make([]model.Point, len(points))
	for i, pt := range points {
		reversed[len(points)-1-i] = pt
	}
	second, err := Discover(context.Background(), reversed, p, m, w)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDiscover_BorderJoinsFirstCluster(t *testing.T) {
	m, w := plane(t)
	// "m" is within reach of a2 and b1 but is not a core point itself.
	points := []model.Point{
		pt("a1", 0, 0), pt("a2", 1, 0), pt("a3", 0, 1), pt("a4", 1, 1),
		pt("m", 2.5, 0),
		pt("b1", 4, 0), pt("b2", 5, 0), pt("b3", 4, 1), pt("b4", 5, 1),
	}

	got, err := Discover(context.Background(), points, Params{MinDensity: 3, Radius: 1.5}, m, w)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []model.ConceptID{"a1", "a2", "a3", "a4", "m"}, got[0].Members)
	assert.Equal(t, []model.ConceptID{"b1", "b2", "b3", "b4"}, got[1].Members)
}

func TestDiscover_MinClusterSize(t *testing.T) {
	m, w := plane(t)
	points := []model.Point{pt("a", 0, 0), pt("b", 1, 0), pt("c", 50, 50), pt("d", 51, 50), pt("e", 52, 50)}

	got, err := Discover(context.Background(), points, Params{MinDensity: 1, Radius: 1.1, MinClusterSize: 3}, m, w)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []model.ConceptID{"c", "d", "e"}, got[0].Members)

	got, err = Discover(context.Background(), points, Params{MinDensity: 1, Radius: 1.1}, m, w)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDiscover_CircularWrap(t *testing.T) {
	reg, err := dimension.NewRegistry(dimension.Circular("hue", 0, 360))
	require.NoError(t, err)
	m, err := distance.NewMetric(reg)
	require.NoError(t, err)

	points := []model.Point{pt("a", 355), pt("b", 358), pt("c", 2), pt("d", 5), pt("e", 180)}
	got, err := Discover(context.Background(), points, Params{MinDensity: 1, Radius: 5}, m, distance.UniformWeights(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []model.ConceptID{"a", "b", "c", "d"}, got[0].Members)
	assert.InDelta(t, 0, wrapHue(got[0].Prototype[0]), 1e-9)
}

func wrapHue(v float64) float64 {
	if v > 180 {
		return v - 360
	}
	return v
}

func TestDiscover_Errors(t *testing.T) {
	m, w := plane(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		points []model.Point
		params Params
		want   error
	}{
		{"negative radius", nil, Params{Radius: -1}, model.ErrInvalidArgument},
		{"negative density", nil, Params{MinDensity: -1}, model.ErrInvalidArgument},
		{"dimension mismatch", []model.Point{pt("a", 1)}, Params{Radius: 1}, model.ErrDimensionMismatch},
		{"duplicate", []model.Point{pt("a", 1, 1), pt("a", 2, 2)}, Params{Radius: 1}, model.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(ctx, tt.points, tt.params, m, w)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDiscover_Canceled(t *testing.T) {
	m, w := plane(t)
	points := testutil.NewRNG(1).Points(m.Registry(), 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := Discover(ctx, points, Params{MinDensity: 1, Radius: 10}, m, w)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestPartition(t *testing.T) {
	m, w := plane(t)
	points := []model.Point{
		pt("a1", 0, 0), pt("a2", 0, 1), pt("a3", 1, 0),
		pt("b1", 10, 10), pt("b2", 10, 11), pt("b3", 11, 10),
	}

	got, err := Partition(context.Background(), points, 2, m, w, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []model.ConceptID{"a1", "a2", "a3"}, got[0].Members)
	assert.Equal(t, []model.ConceptID{"b1", "b2", "b3"}, got[1].Members)
	assert.InDeltaSlice(t, []float64{31.0 / 3, 31.0 / 3}, got[1].Prototype, 1e-9)
}

func TestPartition_Deterministic(t *testing.T) {
	m, w := plane(t)
	points := testutil.NewRNG(5).ClusteredPoints(m.Registry(), 90, 4, 0.03)

	first, err := Partition(context.Background(), points, 4, m, w, 50)
	require.NoError(t, err)
	second, err := Partition(context.Background(), points, 4, m, w, 50)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var total int
	for _, p := range first {
		total += len(p.Members)
	}
	assert.Equal(t, 90, total)
}

func TestPartition_KLargerThanPoints(t *testing.T) {
	m, w := plane(t)
	got, err := Partition(context.Background(), []model.Point{pt("a", 1, 1), pt("b", 9, 9)}, 5, m, w, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPartition_Errors(t *testing.T) {
	m, w := plane(t)
	_, err := Partition(context.Background(), nil, 0, m, w, 10)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	got, err := Partition(context.Background(), nil, 2, m, w, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Partition(ctx, []model.Point{pt("a", 1, 1)}, 1, m, w, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
