// Package vptree implements a vantage-point tree.
//
// Each node picks a vantage point and splits the remaining points at the median
// distance to it. Queries prune a subtree when the triangle inequality proves
// that no point in it can beat the current bound, so the tree works for any
// metric, including wrapped circular dimensions.
//
// Mutations do not restructure the tree. Inserts land in a pending buffer and
// removals tombstone tree entries; the next query after the churn exceeds a
// quarter of the tree (or after Rebind) rebuilds it.
package vptree

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

// minChurn is the churn tolerated before a rebuild regardless of tree size.
const minChurn = 32

// slack absorbs rounding in the pruning tests.
const slack = 1e-12

type node struct {
	id      model.ConceptID
	coords  []float64
	mu      float64 // median distance; inside holds points with d(vp, x) <= mu
	inside  *node
	outside *node
}

// Tree is a vantage-point tree over concept coordinates.
type Tree struct {
	mu   sync.RWMutex
	dims int
	dist distance.Func

	points map[model.ConceptID][]float64

	root    *node
	built   int                           // points in root
	stale   map[model.ConceptID]struct{}  // tree entries removed or moved since the build
	pending map[model.ConceptID][]float64 // points added or moved since the build
	dirty   bool                          // true when root must be rebuilt before use
}

// New creates an empty tree.
func New(dims int, fn distance.Func) *Tree {
	return &Tree{
		dims:    dims,
		dist:    fn,
		points:  make(map[model.ConceptID][]float64),
		stale:   make(map[model.ConceptID]struct{}),
		pending: make(map[model.ConceptID][]float64),
	}
}

func (*Tree) Name() string { return "VPTree" }

// Insert adds or replaces the coordinates of id.
func (t *Tree) Insert(id model.ConceptID, coords []float64) error {
	if err := model.CheckDimension(t.dims, len(coords)); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c := slices.Clone(coords)
	if _, ok := t.points[id]; ok {
		t.stale[id] = struct{}{}
	}
	t.points[id] = c
	t.pending[id] = c
	return nil
}

// Remove deletes id.
func (t *Tree) Remove(id model.ConceptID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.points[id]; !ok {
		return false
	}
	delete(t.points, id)
	delete(t.pending, id)
	t.stale[id] = struct{}{}
	return true
}

// Rebind replaces the distance function. The tree is rebuilt on the next query.
func (t *Tree) Rebind(fn distance.Func) {
	t.mu.Lock()
	t.dist = fn
	t.dirty = true
	t.mu.Unlock()
}

// Len returns the number of stored points.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}

func (t *Tree) needsRebuild() bool {
	churn := len(t.stale) + len(t.pending)
	return t.dirty || churn > max(minChurn, t.built/4)
}

// acquire returns with the read lock held and the tree fresh enough to query.
func (t *Tree) acquire() {
	t.mu.RLock()
	if !t.needsRebuild() {
		return
	}
	t.mu.RUnlock()

	t.mu.Lock()
	if t.needsRebuild() {
		t.rebuild()
	}
	t.mu.Unlock()

	// A writer may slip in here; it only grows pending/stale, which queries handle.
	t.mu.RLock()
}

func (t *Tree) rebuild() {
	items := make([]item, 0, len(t.points))
	for id, c := range t.points {
		items = append(items, item{id: id, coords: c})
	}
	// Deterministic vantage choice.
	slices.SortFunc(items, func(a, b item) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	t.root = build(items, t.dist)
	t.built = len(items)
	t.dirty = false
	clear(t.stale)
	clear(t.pending)
}

type item struct {
	id     model.ConceptID
	coords []float64
	d      float64
}

func build(items []item, dist distance.Func) *node {
	if len(items) == 0 {
		return nil
	}

	vp := items[0]
	rest := items[1:]
	n := &node{id: vp.id, coords: vp.coords}
	if len(rest) == 0 {
		return n
	}

	for i := range rest {
		rest[i].d = dist(vp.coords, rest[i].coords)
	}
	slices.SortStableFunc(rest, func(a, b item) int {
		switch {
		case a.d < b.d:
			return -1
		case a.d > b.d:
			return 1
		}
		return 0
	})

	mid := (len(rest) - 1) / 2
	n.mu = rest[mid].d
	n.inside = build(rest[:mid+1], dist)
	n.outside = build(rest[mid+1:], dist)
	return n
}

// KNearest returns the k nearest points.
func (t *Tree) KNearest(ctx context.Context, q []float64, k int) ([]model.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be > 0, got %d", model.ErrInvalidArgument, k)
	}
	if err := model.CheckDimension(t.dims, len(q)); err != nil {
		return nil, err
	}

	t.acquire()
	defer t.mu.RUnlock()

	s := &search{ctx: ctx, t: t, q: q, top: queue.NewTopK(min(k, len(t.points)))}
	s.knn(t.root)
	if s.err != nil {
		return nil, s.err
	}

	for id, c := range t.pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.top.Offer(queue.Item{ID: id, Distance: t.dist(q, c)})
	}

	return s.top.Sorted(), nil
}

// Range returns every point within radius.
func (t *Tree) Range(ctx context.Context, q []float64, radius float64) ([]model.Neighbor, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("%w: radius must be >= 0, got %g", model.ErrInvalidArgument, radius)
	}
	if err := model.CheckDimension(t.dims, len(q)); err != nil {
		return nil, err
	}

	t.acquire()
	defer t.mu.RUnlock()

	s := &search{ctx: ctx, t: t, q: q, radius: radius}
	s.within(t.root)
	if s.err != nil {
		return nil, s.err
	}

	for id, c := range t.pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d := t.dist(q, c); d <= radius {
			s.out = append(s.out, model.Neighbor{ID: id, Distance: d})
		}
	}

	slices.SortFunc(s.out, model.CompareNeighbors)
	return s.out, nil
}

type search struct {
	ctx    context.Context
	t      *Tree
	q      []float64
	top    *queue.TopK
	radius float64
	out    []model.Neighbor
	err    error
}

func (s *search) live(n *node) bool {
	_, gone := s.t.stale[n.id]
	return !gone
}

func (s *search) bound() float64 {
	if b, ok := s.top.Bound(); ok {
		return b
	}
	return math.Inf(1)
}

func (s *search) knn(n *node) {
	if n == nil || s.err != nil {
		return
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return
	}

	d := s.t.dist(s.q, n.coords)
	if s.live(n) {
		s.top.Offer(queue.Item{ID: n.id, Distance: d})
	}

	// Visit the side containing q first.
	if d <= n.mu {
		if d-n.mu <= s.bound()+slack {
			s.knn(n.inside)
		}
		if n.mu-d <= s.bound()+slack {
			s.knn(n.outside)
		}
		return
	}

	if n.mu-d <= s.bound()+slack {
		s.knn(n.outside)
	}
	if d-n.mu <= s.bound()+slack {
		s.knn(n.inside)
	}
}

func (s *search) within(n *node) {
	if n == nil || s.err != nil {
		return
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return
	}

	d := s.t.dist(s.q, n.coords)
	if d <= s.radius && s.live(n) {
		s.out = append(s.out, model.Neighbor{ID: n.id, Distance: d})
	}

	if d-n.mu <= s.radius+slack {
		s.within(n.inside)
	}
	if n.mu-d <= s.radius+slack {
		s.within(n.outside)
	}
}
