// Package tessellation partitions a space into Voronoi cells around the current
// region prototypes.
//
// Every point belongs to the cell of its nearest prototype under the active
// weighted metric. Two cells are neighbors when no third prototype is strictly
// closer to the midpoint of their prototypes. Under the Euclidean order the
// boundary between neighbors is a hyperplane, returned as a bisector expressed
// in the chart of the cell's prototype; for other orders the boundary is
// piecewise linear and only the assignment rule is provided.
//
// Diagrams are immutable. The owning space rebuilds them lazily after any
// prototype or weight change rather than updating them incrementally.
package tessellation

import (
	"context"
	"slices"

	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/geometry"
	"github.com/hupe1980/conceptspace/region"
)

// Snapshot is the input of Build: the prototypes and the metric state at one version.
type Snapshot struct {
	Metric     *distance.Metric
	Weights    *distance.Weights
	Version    uint64
	Regions    []region.ID
	Prototypes [][]float64
}

// Cell is the Voronoi cell of one region.
type Cell struct {
	Region    region.ID             `json:"region"`
	Prototype []float64             `json:"prototype"`
	Neighbors []region.ID           `json:"neighbors"`
	Bisectors []geometry.Hyperplane `json:"bisectors,omitempty"`

	diagram *Diagram
}

// Contains reports whether x is at least as close to this cell's prototype as
// to any other prototype. Points on a shared boundary belong to both cells.
func (c *Cell) Contains(x []float64) bool {
	own := c.diagram.fn(x, c.Prototype)
	for _, id := range c.diagram.order {
		if id == c.Region {
			continue
		}
		if c.diagram.fn(x, c.diagram.Cells[id].Prototype) < own {
			return false
		}
	}
	return true
}

// Diagram is a Voronoi-like tessellation.
type Diagram struct {
	Version uint64              `json:"version"`
	Cells   map[region.ID]*Cell `json:"cells"`

	order []region.ID
	fn    distance.Func
}

// Len returns the number of cells.
func (d *Diagram) Len() int { return len(d.order) }

// Regions returns the region IDs in canonical order.
func (d *Diagram) Regions() []region.ID { return slices.Clone(d.order) }

// Cell returns the cell of a region.
func (d *Diagram) Cell(id region.ID) (*Cell, bool) {
	c, ok := d.Cells[id]
	return c, ok
}

// Assign returns the region whose prototype is nearest to x. Ties go to the
// smallest region ID. It reports false for an empty diagram.
func (d *Diagram) Assign(x []float64) (region.ID, float64, bool) {
	var (
		best  region.ID
		bestD float64
		found bool
	)
	for _, id := range d.order {
		dist := d.fn(x, d.Cells[id].Prototype)
		if !found || dist < bestD {
			best, bestD, found = id, dist, true
		}
	}
	return best, bestD, found
}

// Build computes the diagram for snap. x must be coordinates of the metric's registry.
func Build(ctx context.Context, snap Snapshot) (*Diagram, error) {
	if err := snap.Metric.CheckWeights(snap.Weights); err != nil {
		return nil, err
	}

	n := len(snap.Regions)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int { return region.CompareIDs(snap.Regions[a], snap.Regions[b]) })

	d := &Diagram{
		Version: snap.Version,
		Cells:   make(map[region.ID]*Cell, n),
		order:   make([]region.ID, n),
		fn:      snap.Metric.Bind(snap.Weights),
	}

	protos := make([][]float64, n)
	for i, j := range idx {
		id := snap.Regions[j]
		d.order[i] = id
		protos[i] = slices.Clone(snap.Prototypes[j])
		d.Cells[id] = &Cell{Region: id, Prototype: protos[i], diagram: d}
	}

	reg := snap.Metric.Registry()
	euclidean := snap.Metric.Order() == distance.Euclidean
	w := effectiveWeights(reg, snap.Weights)

	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chart := geometry.NewChart(reg, protos[i])
		cell := d.Cells[d.order[i]]

		for j := range n {
			if i == j {
				continue
			}
			q := chart.To(protos[j])
			mid := chart.From(geometry.Midpoint(protos[i], q))

			if !gabriel(d.fn, mid, protos, i, j) {
				continue
			}
			cell.Neighbors = append(cell.Neighbors, d.order[j])
			if euclidean {
				cell.Bisectors = append(cell.Bisectors, geometry.Bisector(protos[i], q, w))
			}
		}
	}

	return d, nil
}

// gabriel reports whether no third prototype is strictly closer to mid than p_i and p_j.
func gabriel(fn distance.Func, mid []float64, protos [][]float64, i, j int) bool {
	r := min(fn(mid, protos[i]), fn(mid, protos[j]))
	for k := range protos {
		if k == i || k == j {
			continue
		}
		if fn(mid, protos[k]) < r-1e-12*(1+r) {
			return false
		}
	}
	return true
}

// effectiveWeights folds the ordinal level normalization into the weights, so
// the chart-space bisector matches the metric.
func effectiveWeights(reg *dimension.Registry, w *distance.Weights) []float64 {
	out := w.Values()
	for i := range out {
		if d := reg.At(i); d.Kind == dimension.KindOrdinal {
			l := float64(d.Levels)
			out[i] /= l * l
		}
	}
	return out
}
