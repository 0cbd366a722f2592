package region

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace/geometry"
	"github.com/hupe1980/conceptspace/internal/pk"
)

// ID identifies a region.
type ID = uuid.UUID

// CompareIDs orders region IDs by their canonical string form.
func CompareIDs(a, b ID) int { return bytes.Compare(a[:], b[:]) }

// Ref names a region together with the space that owns it.
type Ref struct {
	Space  uuid.UUID `json:"space"`
	Region ID        `json:"region"`
}

func (r Ref) String() string { return fmt.Sprintf("%s/%s", r.Space, r.Region) }

// BoundaryKind selects how a region's boundary is represented.
type BoundaryKind int

const (
	// KindAuto picks Hull up to the configured dimensionality, Cell above it.
	KindAuto BoundaryKind = iota
	KindHull
	KindCell
)

func (k BoundaryKind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindHull:
		return "hull"
	case KindCell:
		return "cell"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BoundaryKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BoundaryKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "auto", "":
		*k = KindAuto
	case "hull":
		*k = KindHull
	case "cell":
		*k = KindCell
	default:
		return fmt.Errorf("unknown boundary kind %q", b)
	}
	return nil
}

// Region is a convex region of a space.
type Region struct {
	id       ID
	space    uuid.UUID
	name     string
	kind     BoundaryKind
	declared bool

	prototype []float64
	members   *roaring.Bitmap

	// origin is the chart origin the hull is expressed in.
	origin []float64
	// boundary holds user-supplied hull vertices; nil when the hull derives from members.
	boundary [][]float64

	// shape is bumped whenever members, prototype or boundary change.
	shape uint64
	// validated is the state the last Validate ran against.
	validated validation

	cache regionCache
}

type validation struct {
	done    bool
	version uint64
	shape   uint64
	layout  uint64
}

type regionCache struct {
	mu sync.Mutex

	hull      *geometry.Hull
	hullShape uint64

	diameter       float64
	diameterShape  uint64
	diameterMetric uint64
	diameterValid  bool
}

// ID returns the region identifier.
func (r *Region) ID() ID { return r.id }

// Ref returns the space-qualified reference.
func (r *Region) Ref() Ref { return Ref{Space: r.space, Region: r.id} }

// Name returns the optional label.
func (r *Region) Name() string { return r.name }

// Kind returns the boundary representation.
func (r *Region) Kind() BoundaryKind { return r.kind }

// Declared reports whether the prototype was supplied by the caller rather than derived.
func (r *Region) Declared() bool { return r.declared }

// Prototype returns a copy of the prototype coordinates.
func (r *Region) Prototype() []float64 { return slices.Clone(r.prototype) }

// Boundary returns a copy of the supplied hull vertices, nil if derived.
func (r *Region) Boundary() [][]float64 {
	if r.boundary == nil {
		return nil
	}
	out := make([][]float64, len(r.boundary))
	for i, v := range r.boundary {
		out[i] = slices.Clone(v)
	}
	return out
}

// Len returns the number of members.
func (r *Region) Len() int { return int(r.members.GetCardinality()) }

// Empty reports whether the region has no members.
func (r *Region) Empty() bool { return r.members.IsEmpty() }

// Has reports whether h is a member.
func (r *Region) Has(h pk.Handle) bool { return r.members.Contains(uint32(h)) }

// Handles returns the member handles in ascending order.
func (r *Region) Handles() []pk.Handle {
	raw := r.members.ToArray()
	out := make([]pk.Handle, len(raw))
	for i, h := range raw {
		out[i] = pk.Handle(h)
	}
	return out
}

// ValidatedAt returns the space version at which the boundary was last validated.
func (r *Region) ValidatedAt() uint64 {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()
	return r.validated.version
}

func (r *Region) touch() { r.shape++ }
