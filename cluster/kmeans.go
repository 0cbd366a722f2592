package cluster

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/geometry"
	"github.com/hupe1980/conceptspace/model"
)

// DefaultMaxIterations bounds Partition when maxIter is zero.
const DefaultMaxIterations = 100

// Partition splits points into k clusters using Lloyd's algorithm under the
// active metric. Centroids use the circular mean on circular dimensions.
//
// Seeding is deterministic: the first centroid is the point with the smallest
// ID, each following one is the point farthest from all chosen centroids. An
// emptied cluster is reseeded with the point farthest from its centroid.
// Proposals are returned in the same order as Discover's, empty clusters are
// omitted.
func Partition(ctx context.Context, points []model.Point, k int, m *distance.Metric, w *distance.Weights, maxIter int) ([]Proposal, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k=%d", model.ErrInvalidArgument, k)
	}
	if maxIter < 0 {
		return nil, fmt.Errorf("%w: max iterations %d", model.ErrInvalidArgument, maxIter)
	}
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}
	if err := m.CheckWeights(w); err != nil {
		return nil, err
	}

	pts, err := sorted(points, m)
	if err != nil {
		return nil, err
	}
	n := len(pts)
	if n == 0 {
		return nil, nil
	}
	k = min(k, n)

	fn := m.Bind(w)
	reg := m.Registry()

	centroids := seed(pts, k, fn)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	for range maxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i := range n {
			best, bestD := 0, fn(pts[i].Coordinates, centroids[0])
			for j := 1; j < k; j++ {
				if d := fn(pts[i].Coordinates, centroids[j]); d < bestD {
					best, bestD = j, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		groups := make([][][]float64, k)
		for i, c := range assignments {
			groups[c] = append(groups[c], pts[i].Coordinates)
		}
		for j := range k {
			if len(groups[j]) > 0 {
				centroids[j] = geometry.Centroid(reg, groups[j])
				continue
			}
			centroids[j] = slices.Clone(pts[farthest(pts, centroids[j], fn)].Coordinates)
		}
	}

	members := make([][]int, k)
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}

	var out []Proposal
	for _, ms := range members {
		if len(ms) == 0 {
			continue
		}
		out = append(out, proposal(reg, pts, ms))
	}
	slices.SortFunc(out, func(a, b Proposal) int {
		return cmp.Compare(a.Members[0], b.Members[0])
	})
	return out, nil
}

func seed(pts []model.Point, k int, fn distance.Func) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, slices.Clone(pts[0].Coordinates))

	nearest := make([]float64, len(pts))
	for i := range pts {
		nearest[i] = fn(pts[i].Coordinates, centroids[0])
	}

	for len(centroids) < k {
		best := 0
		for i := range pts {
			if nearest[i] > nearest[best] {
				best = i
			}
		}
		c := slices.Clone(pts[best].Coordinates)
		centroids = append(centroids, c)
		for i := range pts {
			nearest[i] = min(nearest[i], fn(pts[i].Coordinates, c))
		}
	}
	return centroids
}

func farthest(pts []model.Point, c []float64, fn distance.Func) int {
	best, bestD := 0, -1.0
	for i := range pts {
		if d := fn(pts[i].Coordinates, c); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

// sorted validates and copies points ordered by ID.
func sorted(points []model.Point, m *distance.Metric) ([]model.Point, error) {
	out := make([]model.Point, len(points))
	for i, p := range points {
		if err := model.CheckDimension(m.Dimensions(), len(p.Coordinates)); err != nil {
			return nil, fmt.Errorf("point %q: %w", p.ID, err)
		}
		out[i] = p
	}
	slices.SortFunc(out, func(a, b model.Point) int { return cmp.Compare(a.ID, b.ID) })
	for i := 1; i < len(out); i++ {
		if out[i].ID == out[i-1].ID {
			return nil, fmt.Errorf("%w: duplicate point %q", model.ErrInvalidArgument, out[i].ID)
		}
	}
	return out, nil
}

func proposal(reg *dimension.Registry, pts []model.Point, members []int) Proposal {
	coords := make([][]float64, len(members))
	ids := make([]model.ConceptID, len(members))
	for i, j := range members {
		coords[i] = pts[j].Coordinates
		ids[i] = pts[j].ID
	}
	slices.Sort(ids)
	return Proposal{Prototype: geometry.Centroid(reg, coords), Members: ids}
}
