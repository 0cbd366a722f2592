package geometry

import (
	"math"
	"testing"

	"github.com/hupe1980/conceptspace/dimension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hueRegistry(t *testing.T) *dimension.Registry {
	t.Helper()
	reg, err := dimension.NewRegistry(
		dimension.Circular("hue", 0, 360),
		dimension.Linear("lightness", 0, 1),
	)
	require.NoError(t, err)
	return reg
}

func TestChart(t *testing.T) {
	reg := hueRegistry(t)
	c := NewChart(reg, []float64{350, 0.5})

	assert.InDeltaSlice(t, []float64{370, 0.2}, c.To([]float64{10, 0.2}), 1e-9)
	assert.InDeltaSlice(t, []float64{340, 0.2}, c.To([]float64{340, 0.2}), 1e-9)
	assert.InDeltaSlice(t, []float64{10, 0.2}, c.From([]float64{370, 0.2}), 1e-9)
	assert.InDeltaSlice(t, []float64{350, 0.5}, c.Origin(), 0)
}

func TestCentroid(t *testing.T) {
	reg := hueRegistry(t)

	t.Run("CircularMean", func(t *testing.T) {
		got := Centroid(reg, [][]float64{{350, 0.2}, {10, 0.4}})
		assert.InDelta(t, 0, math.Min(got[0], 360-got[0]), 1e-9)
		assert.InDelta(t, 0.3, got[1], 1e-12)
	})

	t.Run("Weighted", func(t *testing.T) {
		got := WeightedCentroid(reg, [][]float64{{0, 0}, {90, 1}}, []float64{3, 1})
		assert.InDelta(t, 0.25, got[1], 1e-12)
		assert.InDelta(t, math.Atan2(1, 3)*180/math.Pi, got[0], 1e-9)
	})

	t.Run("Cancelling", func(t *testing.T) {
		got := Centroid(reg, [][]float64{{0, 0}, {180, 1}})
		assert.Equal(t, 0.0, got[0])
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, Centroid(reg, nil))
	})
}

func TestHull2D(t *testing.T) {
	square := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}}
	h := NewHull(square)

	assert.Len(t, h.Vertices(), 4)

	tests := []struct {
		name string
		x    []float64
		in   bool
	}{
		{"Interior", []float64{0.5, 0.25}, true},
		{"Vertex", []float64{1, 1}, true},
		{"Edge", []float64{0.5, 0}, true},
		{"Outside", []float64{1.1, 0.5}, false},
		{"FarOutside", []float64{-3, -3}, false},
		{"WrongDimension", []float64{0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.in, h.Contains(tt.x))
		})
	}
}

func TestHull2D_Collinear(t *testing.T) {
	h := NewHull([][]float64{{0, 0}, {1, 1}, {2, 2}})

	assert.Len(t, h.Vertices(), 2)
	assert.True(t, h.Contains([]float64{1.5, 1.5}))
	assert.True(t, h.Contains([]float64{1, 1}))
	assert.False(t, h.Contains([]float64{1, 1.05}))
	assert.False(t, h.Contains([]float64{2.5, 2.5}))
}

func TestHull2D_SinglePoint(t *testing.T) {
	h := NewHull([][]float64{{1, 2}, {1, 2}})
	assert.Len(t, h.Vertices(), 1)
	assert.True(t, h.Contains([]float64{1, 2}))
	assert.False(t, h.Contains([]float64{1, 2.1}))
}

func TestHull3D(t *testing.T) {
	cube := [][]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 1, 0}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
		{0.5, 0.5, 0.5},
	}
	h := NewHull(cube)

	assert.Len(t, h.Vertices(), 8)
	assert.True(t, h.Contains([]float64{0.2, 0.3, 0.4}))
	assert.True(t, h.Contains([]float64{1, 1, 1}))
	assert.False(t, h.Contains([]float64{1.2, 0.5, 0.5}))
}

func TestHull3D_Collinear(t *testing.T) {
	h := NewHull([][]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}})
	assert.Len(t, h.Vertices(), 2)
	assert.True(t, h.Contains([]float64{0.5, 0.5, 0.5}))
	assert.False(t, h.Contains([]float64{0.5, 0.6, 0.5}))
}

func TestHull1D(t *testing.T) {
	h := NewHull([][]float64{{3}, {1}, {2}})
	assert.Len(t, h.Vertices(), 2)
	assert.True(t, h.Contains([]float64{2.5}))
	assert.False(t, h.Contains([]float64{3.5}))
}

func TestHull_Empty(t *testing.T) {
	h := NewHull(nil)
	assert.True(t, h.Empty())
	assert.False(t, h.Contains([]float64{0, 0}))
}

func TestIsConvexPolygon(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		convex bool
	}{
		{"Square", [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, true},
		{"Clockwise", [][]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, true},
		{"Triangle", [][]float64{{0, 0}, {2, 0}, {1, 1}}, true},
		{"Arrow", [][]float64{{0, 0}, {2, 1}, {0, 2}, {1, 1}}, false},
		{"Bowtie", [][]float64{{0, 0}, {1, 1}, {1, 0}, {0, 1}}, false},
		{"Pentagram", [][]float64{{0, 1}, {0.588, -0.809}, {-0.951, 0.309}, {0.951, 0.309}, {-0.588, -0.809}}, false},
		{"Segment", [][]float64{{0, 0}, {1, 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.convex, IsConvexPolygon(tt.points))
		})
	}
}

func TestBisector(t *testing.T) {
	p := []float64{0, 0}
	q := []float64{2, 0}

	h := Bisector(p, q, []float64{1, 1})
	assert.InDelta(t, 0, h.Eval([]float64{1, 5}), 1e-12)
	assert.Less(t, h.Eval([]float64{0.5, 0}), 0.0)
	assert.Greater(t, h.Eval([]float64{1.5, 0}), 0.0)
	assert.InDelta(t, -0.5, h.SignedDistance([]float64{0.5, 3}), 1e-12)

	// Weighted: points equidistant under w satisfy Eval == 0.
	w := []float64{4, 1}
	p2, q2 := []float64{0, 0}, []float64{1, 1}
	hw := Bisector(p2, q2, w)
	x := []float64{0.5, 0.5}
	assert.InDelta(t, 0, hw.Eval(x), 1e-12)
	assert.Equal(t, []float64{0.5, 0.5}, Midpoint(p2, q2))

	assert.Equal(t, 0.0, Hyperplane{Normal: []float64{0, 0}}.SignedDistance([]float64{1, 1}))
}
