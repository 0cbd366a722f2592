package testutil

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/model"
)

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Uniform returns a pseudo-random number in [minVal, maxVal).
func (r *RNG) Uniform(minVal, maxVal float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return minVal + r.rand.Float64()*(maxVal-minVal)
}

// Coordinates returns a random valid coordinate vector for reg.
func (r *RNG) Coordinates(reg *dimension.Registry) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coordinatesLocked(reg)
}

func (r *RNG) coordinatesLocked(reg *dimension.Registry) []float64 {
	out := make([]float64, reg.Len())
	for i := range out {
		d := reg.At(i)
		switch d.Kind {
		case dimension.KindOrdinal:
			out[i] = d.Min + float64(r.rand.Intn(d.Levels))
		default:
			out[i] = d.Min + r.rand.Float64()*d.Range()
		}
	}
	return out
}

// Points returns n random points with IDs "p0000", "p0001", ...
func (r *RNG) Points(reg *dimension.Registry, n int) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Point, n)
	for i := range out {
		out[i] = model.Point{ID: PointID(i), Coordinates: r.coordinatesLocked(reg)}
	}
	return out
}

// ClusteredPoints returns n points spread around `clusters` random centers.
// Spread is a fraction of each dimension's range; linear coordinates are clamped
// into range and circular ones wrap.
func (r *RNG) ClusteredPoints(reg *dimension.Registry, n, clusters int, spread float64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	centers := make([][]float64, clusters)
	for i := range centers {
		centers[i] = r.coordinatesLocked(reg)
	}

	out := make([]model.Point, n)
	for i := range out {
		c := centers[i%clusters]
		coords := make([]float64, len(c))
		for j := range coords {
			d := reg.At(j)
			v := c[j] + r.rand.NormFloat64()*spread*d.Range()
			switch d.Kind {
			case dimension.KindCircular:
				// Registry.Validate wraps it.
			case dimension.KindOrdinal:
				v = min(max(v, d.Min), d.Max)
				v = d.Min + float64(int(v-d.Min+0.5))
			default:
				v = min(max(v, d.Min), d.Max)
			}
			coords[j] = v
		}
		normalized, err := reg.Validate(coords)
		if err != nil {
			panic(err)
		}
		out[i] = model.Point{ID: PointID(i), Coordinates: normalized}
	}
	return out
}

// PointID formats the i-th generated concept ID. IDs sort in creation order.
func PointID(i int) model.ConceptID {
	return model.ConceptID(fmt.Sprintf("p%04d", i))
}

// BruteForceKNN performs exact search for ground truth, ordered by distance then ID.
func BruteForceKNN(points []model.Point, query []float64, k int, dist func(a, b []float64) float64) []model.Neighbor {
	results := make([]model.Neighbor, len(points))
	for i, p := range points {
		results[i] = model.Neighbor{ID: p.ID, Distance: dist(query, p.Coordinates)}
	}

	slices.SortFunc(results, model.CompareNeighbors)

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// BruteForceRange returns the IDs within radius of query, sorted.
func BruteForceRange(points []model.Point, query []float64, radius float64, dist func(a, b []float64) float64) []model.ConceptID {
	var out []model.ConceptID
	for _, p := range points {
		if dist(query, p.Coordinates) <= radius {
			out = append(out, p.ID)
		}
	}
	slices.Sort(out)
	return out
}
