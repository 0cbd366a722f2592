package geometry

import (
	"math"

	"github.com/hupe1980/conceptspace/dimension"
)

// resultantEpsilon is the mean resultant length below which a circular mean is undefined.
const resultantEpsilon = 1e-12

// Centroid returns the dimension-wise mean of points, using the circular mean
// on circular dimensions. It returns nil for an empty input.
func Centroid(reg *dimension.Registry, points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	w := make([]float64, len(points))
	for i := range w {
		w[i] = 1
	}
	return WeightedCentroid(reg, points, w)
}

// WeightedCentroid returns the mean of points weighted by mass. When the circular
// mean of a dimension is undefined (the angles cancel out) the value of the
// heaviest point is used, lowest index first.
func WeightedCentroid(reg *dimension.Registry, points [][]float64, mass []float64) []float64 {
	if len(points) == 0 {
		return nil
	}

	var total float64
	heaviest := 0
	for i, m := range mass {
		total += m
		if m > mass[heaviest] {
			heaviest = i
		}
	}

	n := reg.Len()
	out := make([]float64, n)

	for j := range n {
		d := reg.At(j)
		if d.Kind != dimension.KindCircular {
			var sum float64
			for i, p := range points {
				sum += mass[i] * p[j]
			}
			out[j] = sum / total
			continue
		}

		r := d.Range()
		var s, c float64
		for i, p := range points {
			theta := 2 * math.Pi * (p[j] - d.Min) / r
			s += mass[i] * math.Sin(theta)
			c += mass[i] * math.Cos(theta)
		}
		if math.Hypot(s, c)/total < resultantEpsilon {
			out[j] = points[heaviest][j]
			continue
		}
		theta := math.Atan2(s, c)
		out[j] = d.Min + wrapPositive(theta/(2*math.Pi)*r, r)
	}

	return out
}
