package dimension

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/conceptspace/model"
)

// Kind is the geometric kind of a quality dimension.
type Kind int

const (
	KindLinear Kind = iota
	KindCircular
	KindOrdinal
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindCircular:
		return "circular"
	case KindOrdinal:
		return "ordinal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseKind parses the textual name of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "linear":
		return KindLinear, nil
	case "circular":
		return KindCircular, nil
	case "ordinal":
		return KindOrdinal, nil
	default:
		return 0, fmt.Errorf("%w: unknown dimension kind %q", model.ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Dimension is a single quality dimension.
type Dimension struct {
	Name   string  `json:"name"`
	Kind   Kind    `json:"kind"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit,omitempty"`
	Levels int     `json:"levels,omitempty"`
}

// Linear creates a linear dimension with weight 1.
func Linear(name string, minimum, maximum float64) Dimension {
	return Dimension{Name: name, Kind: KindLinear, Min: minimum, Max: maximum, Weight: 1}
}

// Circular creates a circular dimension with weight 1. Distance wraps at maximum - minimum.
func Circular(name string, minimum, maximum float64) Dimension {
	return Dimension{Name: name, Kind: KindCircular, Min: minimum, Max: maximum, Weight: 1}
}

// Ordinal creates an ordinal dimension with ranks 0..levels-1 and weight 1.
func Ordinal(name string, levels int) Dimension {
	return Dimension{Name: name, Kind: KindOrdinal, Min: 0, Max: float64(levels - 1), Weight: 1, Levels: levels}
}

// WithWeight returns a copy of d with the given initial weight.
func (d Dimension) WithWeight(w float64) Dimension {
	d.Weight = w
	return d
}

// WithUnit returns a copy of d with the given unit label.
func (d Dimension) WithUnit(unit string) Dimension {
	d.Unit = unit
	return d
}

// Range returns Max - Min.
func (d Dimension) Range() float64 { return d.Max - d.Min }

// levels returns the number of ordinal levels.
func (d Dimension) levels() int {
	if d.Levels > 0 {
		return d.Levels
	}
	return int(math.Floor(d.Max-d.Min)) + 1
}

// Distance returns the per-dimension distance between two normalized coordinates.
func (d Dimension) Distance(a, b float64) float64 {
	diff := math.Abs(a - b)
	switch d.Kind {
	case KindCircular:
		r := d.Range()
		diff = math.Mod(diff, r)
		return math.Min(diff, r-diff)
	case KindOrdinal:
		return diff / float64(d.levels())
	default:
		return diff
	}
}

// Normalize maps a coordinate into [0, 1] relative to the declared range.
func (d Dimension) Normalize(v float64) float64 {
	return (v - d.Min) / d.Range()
}

// Denormalize maps a unit value back into the declared range.
func (d Dimension) Denormalize(u float64) float64 {
	return d.Min + u*d.Range()
}

// normalizeCoordinate validates v and returns its canonical form.
func (d Dimension) normalizeCoordinate(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, d.outOfRange(v)
	}

	switch d.Kind {
	case KindCircular:
		r := d.Range()
		w := math.Mod(v-d.Min, r)
		if w < 0 {
			w += r
		}
		// math.Mod can return r for tiny negative inputs after the shift.
		if w >= r {
			w = 0
		}
		return d.Min + w, nil
	case KindOrdinal:
		if v < d.Min || v > d.Max {
			return 0, d.outOfRange(v)
		}
		return math.Round(v-d.Min) + d.Min, nil
	default:
		if v < d.Min || v > d.Max {
			return 0, d.outOfRange(v)
		}
		return v, nil
	}
}

func (d Dimension) outOfRange(v float64) error {
	return &model.OutOfRangeError{Dimension: d.Name, Value: v, Min: d.Min, Max: d.Max}
}

func (d Dimension) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: dimension name must not be empty", model.ErrInvalidArgument)
	}
	if math.IsNaN(d.Min) || math.IsNaN(d.Max) || math.IsInf(d.Min, 0) || math.IsInf(d.Max, 0) || d.Min >= d.Max {
		return fmt.Errorf("%w: dimension %q requires min < max, got [%g, %g]", model.ErrInvalidArgument, d.Name, d.Min, d.Max)
	}
	if d.Kind < KindLinear || d.Kind > KindOrdinal {
		return fmt.Errorf("%w: dimension %q has unknown kind %d", model.ErrInvalidArgument, d.Name, int(d.Kind))
	}
	if d.Kind == KindOrdinal && d.Levels < 0 {
		return fmt.Errorf("%w: dimension %q has negative level count", model.ErrInvalidArgument, d.Name)
	}
	return nil
}
