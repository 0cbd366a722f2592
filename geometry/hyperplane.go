package geometry

import "math"

// Hyperplane is the set of x with <Normal, x> = Offset.
type Hyperplane struct {
	Normal []float64 `json:"normal"`
	Offset float64   `json:"offset"`
}

// Eval returns <Normal, x> - Offset. Negative values lie on the side the normal points away from.
func (h Hyperplane) Eval(x []float64) float64 {
	return dot(h.Normal, x) - h.Offset
}

// SignedDistance returns the Euclidean signed distance from x to the plane.
func (h Hyperplane) SignedDistance(x []float64) float64 {
	n := math.Sqrt(dot(h.Normal, h.Normal))
	if n == 0 {
		return 0
	}
	return h.Eval(x) / n
}

// Bisector returns the weighted Euclidean bisector between p and q:
//
//	Σ w_i (q_i - p_i) x_i = ½ Σ w_i (q_i² - p_i²)
//
// Points with Eval(x) < 0 are strictly closer to p. Both points must be in
// the same chart.
func Bisector(p, q, w []float64) Hyperplane {
	normal := make([]float64, len(p))
	var offset float64
	for i := range p {
		normal[i] = w[i] * (q[i] - p[i])
		offset += w[i] * (q[i]*q[i] - p[i]*p[i])
	}
	return Hyperplane{Normal: normal, Offset: offset / 2}
}

// Midpoint returns the point halfway between p and q in chart coordinates.
func Midpoint(p, q []float64) []float64 {
	out := make([]float64, len(p))
	for i := range p {
		out[i] = (p[i] + q[i]) / 2
	}
	return out
}
