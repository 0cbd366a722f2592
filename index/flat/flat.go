// Package flat provides an exact linear-scan index.
package flat

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/internal/queue"
	"github.com/hupe1980/conceptspace/model"
)

type entry struct {
	id     model.ConceptID
	coords []float64
}

// Flat scans every stored point on each query.
type Flat struct {
	mu      sync.RWMutex
	dims    int
	dist    distance.Func
	entries []entry                 // dense, removal swaps with the last entry
	pos     map[model.ConceptID]int // id -> position in entries
}

// New creates an empty flat index.
func New(dims int, fn distance.Func) *Flat {
	return &Flat{
		dims: dims,
		dist: fn,
		pos:  make(map[model.ConceptID]int),
	}
}

func (*Flat) Name() string { return "Flat" }

// Insert adds or replaces the coordinates of id.
func (f *Flat) Insert(id model.ConceptID, coords []float64) error {
	if err := model.CheckDimension(f.dims, len(coords)); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c := slices.Clone(coords)
	if i, ok := f.pos[id]; ok {
		f.entries[i].coords = c
		return nil
	}

	f.pos[id] = len(f.entries)
	f.entries = append(f.entries, entry{id: id, coords: c})
	return nil
}

// Remove deletes id.
func (f *Flat) Remove(id model.ConceptID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.pos[id]
	if !ok {
		return false
	}

	last := len(f.entries) - 1
	if i != last {
		f.entries[i] = f.entries[last]
		f.pos[f.entries[i].id] = i
	}
	f.entries[last] = entry{}
	f.entries = f.entries[:last]
	delete(f.pos, id)
	return true
}

// Rebind replaces the distance function.
func (f *Flat) Rebind(fn distance.Func) {
	f.mu.Lock()
	f.dist = fn
	f.mu.Unlock()
}

// Len returns the number of stored points.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// KNearest returns the k nearest points.
func (f *Flat) KNearest(ctx context.Context, q []float64, k int) ([]model.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be > 0, got %d", model.ErrInvalidArgument, k)
	}
	if err := model.CheckDimension(f.dims, len(q)); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	top := queue.NewTopK(min(k, len(f.entries)))
	for _, e := range f.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top.Offer(queue.Item{ID: e.id, Distance: f.dist(q, e.coords)})
	}

	return top.Sorted(), nil
}

// Range returns every point within radius.
func (f *Flat) Range(ctx context.Context, q []float64, radius float64) ([]model.Neighbor, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("%w: radius must be >= 0, got %g", model.ErrInvalidArgument, radius)
	}
	if err := model.CheckDimension(f.dims, len(q)); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []model.Neighbor
	for _, e := range f.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d := f.dist(q, e.coords); d <= radius {
			out = append(out, model.Neighbor{ID: e.id, Distance: d})
		}
	}

	slices.SortFunc(out, model.CompareNeighbors)
	return out, nil
}
