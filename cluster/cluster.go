package cluster

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/model"
)

// DefaultMinClusterSize is used when Params.MinClusterSize is zero.
const DefaultMinClusterSize = 2

// Params configures Discover.
type Params struct {
	// MinDensity is the number of other points a core point needs within Radius.
	MinDensity int `json:"min_density" mapstructure:"min_density"`
	// Radius is the neighborhood radius under the active metric.
	Radius float64 `json:"radius" mapstructure:"radius"`
	// MinClusterSize discards smaller clusters as noise. Zero means DefaultMinClusterSize.
	MinClusterSize int `json:"min_cluster_size" mapstructure:"min_cluster_size"`
}

func (p Params) validate() error {
	if p.MinDensity < 0 {
		return fmt.Errorf("%w: min density %d", model.ErrInvalidArgument, p.MinDensity)
	}
	if p.Radius < 0 {
		return fmt.Errorf("%w: radius %g", model.ErrInvalidArgument, p.Radius)
	}
	if p.MinClusterSize < 0 {
		return fmt.Errorf("%w: min cluster size %d", model.ErrInvalidArgument, p.MinClusterSize)
	}
	return nil
}

// Proposal is a candidate region.
type Proposal struct {
	Prototype []float64         `json:"prototype"`
	Members   []model.ConceptID `json:"members"`
}

const (
	unvisited = -1
	noise     = -2
)

// Discover groups points by density. Points are visited in concept ID order,
// so the result does not depend on the order of the input slice. A border
// point reachable from several clusters joins the first one that reaches it.
// Proposals are ordered by their smallest member ID.
func Discover(ctx context.Context, points []model.Point, p Params, m *distance.Metric, w *distance.Weights) ([]Proposal, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := m.CheckWeights(w); err != nil {
		return nil, err
	}
	minSize := p.MinClusterSize
	if minSize == 0 {
		minSize = DefaultMinClusterSize
	}

	pts, err := sorted(points, m)
	if err != nil {
		return nil, err
	}
	fn := m.Bind(w)

	n := len(pts)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	neighborhood := func(i int) ([]int, error) {
		var out []int
		for j := range n {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if j != i && fn(pts[i].Coordinates, pts[j].Coordinates) <= p.Radius {
				out = append(out, j)
			}
		}
		return out, nil
	}

	var clusters [][]int
	for i := range n {
		if labels[i] != unvisited {
			continue
		}
		nb, err := neighborhood(i)
		if err != nil {
			return nil, err
		}
		if len(nb) < p.MinDensity {
			labels[i] = noise
			continue
		}

		c := len(clusters)
		labels[i] = c
		members := []int{i}

		queue := nb
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == noise {
				// Border point.
				labels[j] = c
				members = append(members, j)
				continue
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = c
			members = append(members, j)

			nbj, err := neighborhood(j)
			if err != nil {
				return nil, err
			}
			if len(nbj) >= p.MinDensity {
				queue = append(queue, nbj...)
			}
		}
		clusters = append(clusters, members)
	}

	reg := m.Registry()
	out := make([]Proposal, 0, len(clusters))
	for _, members := range clusters {
		if len(members) < minSize {
			continue
		}
		slices.Sort(members)
		out = append(out, proposal(reg, pts, members))
	}

	// A border point visited early as noise can give a later cluster the
	// smaller first member.
	slices.SortFunc(out, func(a, b Proposal) int {
		return cmp.Compare(a.Members[0], b.Members[0])
	})
	return out, nil
}
