// Package queue provides a bounded top-k heap for nearest-neighbor search.
package queue

import "github.com/hupe1980/conceptspace/model"

// Item is a candidate in the queue.
type Item struct {
	ID       model.ConceptID
	Distance float64
}

// worse reports whether a ranks after b: larger distance, or equal distance and larger ID.
func worse(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.ID > b.ID
}

// TopK keeps the k best items seen so far. The root of the backing max-heap
// is the current worst kept item.
type TopK struct {
	k     int
	items []Item
}

// NewTopK creates a queue keeping at most k items.
func NewTopK(k int) *TopK {
	return &TopK{k: k, items: make([]Item, 0, k)}
}

// Len returns the number of kept items.
func (q *TopK) Len() int { return len(q.items) }

// Full reports whether k items are kept.
func (q *TopK) Full() bool { return len(q.items) >= q.k }

// Bound returns the distance an item must not exceed to be admitted.
// It is +Inf-like (ok=false) until the queue is full.
func (q *TopK) Bound() (float64, bool) {
	if !q.Full() || len(q.items) == 0 {
		return 0, false
	}
	return q.items[0].Distance, true
}

// Offer admits item if it ranks before the current worst kept item.
func (q *TopK) Offer(item Item) bool {
	if q.k <= 0 {
		return false
	}
	if len(q.items) < q.k {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if !worse(q.items[0], item) {
		return false
	}
	q.items[0] = item
	q.siftDown(0)
	return true
}

// Sorted drains the queue and returns the items best first.
func (q *TopK) Sorted() []model.Neighbor {
	out := make([]model.Neighbor, len(q.items))
	for i := len(q.items) - 1; i >= 0; i-- {
		top := q.items[0]
		last := len(q.items) - 1
		q.items[0] = q.items[last]
		q.items = q.items[:last]
		if last > 0 {
			q.siftDown(0)
		}
		out[i] = model.Neighbor{ID: top.ID, Distance: top.Distance}
	}
	return out
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(q.items[i], q.items[p]) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && worse(q.items[r], q.items[l]) {
			best = r
		}
		if !worse(q.items[best], q.items[i]) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
