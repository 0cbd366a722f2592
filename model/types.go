package model

import (
	"fmt"
	"maps"
	"slices"
)

// ConceptID is the user-facing stable identifier of a concept.
type ConceptID string

// Point is a concept's position in a conceptual space.
type Point struct {
	ID          ConceptID      `json:"id"`
	Coordinates []float64      `json:"coordinates"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewPoint creates a point without metadata.
func NewPoint(id ConceptID, coords ...float64) Point {
	return Point{ID: id, Coordinates: coords}
}

// Dimension returns the number of coordinates.
func (p Point) Dimension() int { return len(p.Coordinates) }

// Clone returns a deep copy of the coordinates and a shallow copy of the metadata.
func (p Point) Clone() Point {
	return Point{
		ID:          p.ID,
		Coordinates: slices.Clone(p.Coordinates),
		Metadata:    maps.Clone(p.Metadata),
	}
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("Point(%s:%v)", p.ID, p.Coordinates)
}

// Neighbor is a single nearest-neighbor or range result.
type Neighbor struct {
	ID       ConceptID `json:"id"`
	Distance float64   `json:"distance"`
}

// Less orders neighbors by distance, then by concept ID.
func (n Neighbor) Less(o Neighbor) bool {
	if n.Distance != o.Distance {
		return n.Distance < o.Distance
	}
	return n.ID < o.ID
}

// CompareNeighbors is a cmp-style comparator for slices.SortFunc.
func CompareNeighbors(a, b Neighbor) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
