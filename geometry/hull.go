package geometry

import (
	"math"
	"slices"
)

const (
	// gilbertMaxIter bounds the minimum-norm-point iteration.
	gilbertMaxIter = 2000

	// relEpsilon scales the containment tolerance to the hull's extent.
	relEpsilon = 1e-9
)

// Hull is the convex hull of a finite point set in chart coordinates.
// Degenerate hulls (a point, a segment, a flat polygon) are allowed and
// contain exactly the points of their lower-dimensional extent.
type Hull struct {
	dims     int
	points   [][]float64 // input, deduplicated
	vertices [][]float64
	eps      float64
}

// NewHull builds the convex hull of points. Points must share one dimensionality.
func NewHull(points [][]float64) *Hull {
	h := &Hull{points: dedupe(points)}
	if len(h.points) == 0 {
		return h
	}
	h.dims = len(h.points[0])

	var extent float64
	for j := range h.dims {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range h.points {
			lo = math.Min(lo, p[j])
			hi = math.Max(hi, p[j])
		}
		extent = math.Max(extent, hi-lo)
		extent = math.Max(extent, math.Max(math.Abs(lo), math.Abs(hi)))
	}
	h.eps = relEpsilon * (1 + extent)

	if h.dims == 2 {
		h.vertices = monotoneChain(h.points)
	} else {
		h.vertices = h.extremePoints()
	}
	return h
}

// Dimensions returns the dimensionality of the hull's points.
func (h *Hull) Dimensions() int { return h.dims }

// Vertices returns the hull vertices. In 2D they are in counter-clockwise order.
func (h *Hull) Vertices() [][]float64 {
	out := make([][]float64, len(h.vertices))
	for i, v := range h.vertices {
		out[i] = slices.Clone(v)
	}
	return out
}

// Empty reports whether the hull has no points.
func (h *Hull) Empty() bool { return len(h.points) == 0 }

// Contains reports whether x lies in the hull (boundary included, within tolerance).
func (h *Hull) Contains(x []float64) bool {
	if h.Empty() || len(x) != h.dims {
		return false
	}
	if h.dims == 2 {
		return h.containsPolygon(x)
	}
	_, separated := minNormPoint(h.vertices, x, h.eps)
	return !separated
}

func (h *Hull) containsPolygon(x []float64) bool {
	v := h.vertices
	switch len(v) {
	case 1:
		return math.Hypot(x[0]-v[0][0], x[1]-v[0][1]) <= h.eps
	case 2:
		return segmentDistance2D(v[0], v[1], x) <= h.eps
	}

	for i := range v {
		a, b := v[i], v[(i+1)%len(v)]
		// Left of or on every counter-clockwise edge, measured as distance.
		edge := math.Hypot(b[0]-a[0], b[1]-a[1])
		if cross(a, b, x)/edge < -h.eps {
			return false
		}
	}
	return true
}

// extremePoints keeps the points not contained in the hull of the others.
func (h *Hull) extremePoints() [][]float64 {
	if len(h.points) <= 2 {
		return h.points
	}

	var out [][]float64
	others := make([][]float64, 0, len(h.points)-1)
	for i, p := range h.points {
		others = others[:0]
		others = append(others, h.points[:i]...)
		others = append(others, h.points[i+1:]...)
		if _, separated := minNormPoint(others, p, h.eps); separated {
			out = append(out, p)
		}
	}
	return out
}

// IsConvexPolygon reports whether the 2D vertices, in the given order, form a
// convex polygon with no reflex vertex and no self-intersection. Collinear
// consecutive vertices are allowed.
func IsConvexPolygon(vertices [][]float64) bool {
	n := len(vertices)
	if n < 3 {
		return true
	}

	var sign float64
	var turning float64
	for i := range n {
		a, b, c := vertices[i], vertices[(i+1)%n], vertices[(i+2)%n]
		z := cross(a, b, c)
		if math.Abs(z) > 1e-12 {
			if sign == 0 {
				sign = math.Copysign(1, z)
			} else if math.Copysign(1, z) != sign {
				return false
			}
		}
		a1 := math.Atan2(b[1]-a[1], b[0]-a[0])
		a2 := math.Atan2(c[1]-b[1], c[0]-b[0])
		turning += wrapDelta(a2-a1, 2*math.Pi)
	}

	// A convex polygon winds exactly once.
	return math.Abs(math.Abs(turning)-2*math.Pi) < 1e-6
}

// monotoneChain returns the 2D hull in counter-clockwise order without collinear vertices.
func monotoneChain(points [][]float64) [][]float64 {
	pts := slices.Clone(points)
	slices.SortFunc(pts, func(a, b []float64) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		switch {
		case a[1] < b[1]:
			return -1
		case a[1] > b[1]:
			return 1
		}
		return 0
	})

	if len(pts) <= 2 {
		return pts
	}

	hull := make([][]float64, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Collinear input collapses to the two endpoints.
	return hull[:len(hull)-1]
}

// cross is the z component of (b - a) × (c - a).
func cross(a, b, c []float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func segmentDistance2D(a, b, x []float64) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = ((x[0]-a[0])*dx + (x[1]-a[1])*dy) / l2
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(x[0]-(a[0]+t*dx), x[1]-(a[1]+t*dy))
}

// minNormPoint runs Gilbert's algorithm on conv(points) - x. It returns the
// distance from x to the last iterate and whether a hyperplane separating x
// from the hull by more than eps was found.
//
// Points on the boundary converge slowly, so running out of iterations without
// a separating hyperplane counts as contained.
func minNormPoint(points [][]float64, x []float64, eps float64) (float64, bool) {
	if len(points) == 0 {
		return math.Inf(1), true
	}
	n := len(x)

	z := make([][]float64, len(points))
	for i, p := range points {
		zi := make([]float64, n)
		for j := range zi {
			zi[j] = p[j] - x[j]
		}
		z[i] = zi
	}

	// Start at the vertex closest to x.
	y := slices.Clone(z[0])
	for _, zi := range z[1:] {
		if dot(zi, zi) < dot(y, y) {
			y = slices.Clone(zi)
		}
	}

	for range gilbertMaxIter {
		yy := dot(y, y)
		norm := math.Sqrt(yy)
		if norm <= eps {
			break
		}

		// Support point minimizing <y, z_i>.
		best := z[0]
		bestDot := dot(y, z[0])
		for _, zi := range z[1:] {
			if d := dot(y, zi); d < bestDot {
				best, bestDot = zi, d
			}
		}

		// min_i <y/|y|, z_i> lower-bounds the distance.
		if bestDot/norm > eps {
			return norm, true
		}
		// Optimality gap closed.
		if yy-bestDot <= eps*eps {
			break
		}

		// Closest point to the origin on segment [y, best].
		diff := make([]float64, n)
		for j := range diff {
			diff[j] = best[j] - y[j]
		}
		dd := dot(diff, diff)
		if dd == 0 {
			break
		}
		t := math.Max(0, math.Min(1, -dot(y, diff)/dd))
		for j := range y {
			y[j] += t * diff[j]
		}
	}

	return math.Sqrt(dot(y, y)), false
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func dedupe(points [][]float64) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		if !slices.ContainsFunc(out, func(q []float64) bool { return slices.Equal(p, q) }) {
			out = append(out, slices.Clone(p))
		}
	}
	return out
}
