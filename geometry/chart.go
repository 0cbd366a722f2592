package geometry

import (
	"math"

	"github.com/hupe1980/conceptspace/dimension"
)

// Chart unwraps circular coordinates around an origin.
type Chart struct {
	reg    *dimension.Registry
	origin []float64
}

// NewChart creates a chart centered at origin.
func NewChart(reg *dimension.Registry, origin []float64) *Chart {
	return &Chart{reg: reg, origin: origin}
}

// Origin returns the chart origin.
func (c *Chart) Origin() []float64 { return c.origin }

// To maps coordinates into the chart. Circular values land within half a
// range of the origin; other values pass through.
func (c *Chart) To(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if c.reg.IsCircular(i) {
			out[i] = c.origin[i] + wrapDelta(v-c.origin[i], c.reg.At(i).Range())
		} else {
			out[i] = v
		}
	}
	return out
}

// ToAll maps every point into the chart.
func (c *Chart) ToAll(xs [][]float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = c.To(x)
	}
	return out
}

// From maps chart coordinates back into the space, rewrapping circular values into [Min, Max).
func (c *Chart) From(u []float64) []float64 {
	out := make([]float64, len(u))
	for i, v := range u {
		if c.reg.IsCircular(i) {
			d := c.reg.At(i)
			out[i] = d.Min + wrapPositive(v-d.Min, d.Range())
		} else {
			out[i] = v
		}
	}
	return out
}

// wrapDelta maps d into [-r/2, r/2).
func wrapDelta(d, r float64) float64 {
	d = math.Mod(d+r/2, r)
	if d < 0 {
		d += r
	}
	return d - r/2
}

// wrapPositive maps v into [0, r).
func wrapPositive(v, r float64) float64 {
	v = math.Mod(v, r)
	if v < 0 {
		v += r
	}
	if v >= r {
		v = 0
	}
	return v
}
