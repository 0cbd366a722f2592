package pk

import (
	"iter"

	"github.com/hupe1980/conceptspace/model"
)

// Handle is a dense internal identifier.
type Handle uint32

// Table is a bidirectional ConceptID <-> Handle mapping with a free list.
type Table struct {
	byID     map[model.ConceptID]Handle
	byHandle []model.ConceptID // "" marks a free slot
	free     []Handle
}

// New creates an empty table.
func New() *Table {
	return &Table{byID: make(map[model.ConceptID]Handle)}
}

// Allocate returns the handle for id, assigning a new one if id is unknown.
// The second return value is true when a new handle was assigned.
func (t *Table) Allocate(id model.ConceptID) (Handle, bool) {
	if h, ok := t.byID[id]; ok {
		return h, false
	}

	var h Handle
	if n := len(t.free); n > 0 {
		h = t.free[n-1]
		t.free = t.free[:n-1]
		t.byHandle[h] = id
	} else {
		h = Handle(len(t.byHandle))
		t.byHandle = append(t.byHandle, id)
	}

	t.byID[id] = h
	return h, true
}

// Release frees the handle of id. It reports whether id was present.
func (t *Table) Release(id model.ConceptID) (Handle, bool) {
	h, ok := t.byID[id]
	if !ok {
		return 0, false
	}

	delete(t.byID, id)
	t.byHandle[h] = ""
	t.free = append(t.free, h)
	return h, true
}

// Handle returns the handle of id.
func (t *Table) Handle(id model.ConceptID) (Handle, bool) {
	h, ok := t.byID[id]
	return h, ok
}

// ID returns the concept identifier bound to h.
func (t *Table) ID(h Handle) (model.ConceptID, bool) {
	if int(h) >= len(t.byHandle) {
		return "", false
	}
	id := t.byHandle[h]
	return id, id != ""
}

// Len returns the number of live handles.
func (t *Table) Len() int { return len(t.byID) }

// Cap returns the size of the handle space (live + free).
func (t *Table) Cap() int { return len(t.byHandle) }

// All iterates live (handle, id) pairs in handle order.
func (t *Table) All() iter.Seq2[Handle, model.ConceptID] {
	return func(yield func(Handle, model.ConceptID) bool) {
		for h, id := range t.byHandle {
			if id == "" {
				continue
			}
			if !yield(Handle(h), id) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	out := &Table{
		byID:     make(map[model.ConceptID]Handle, len(t.byID)),
		byHandle: append([]model.ConceptID(nil), t.byHandle...),
		free:     append([]Handle(nil), t.free...),
	}
	for id, h := range t.byID {
		out.byID[id] = h
	}
	return out
}
