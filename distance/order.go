package distance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/conceptspace/model"
)

// Order is the Minkowski exponent r.
type Order float64

const (
	Manhattan Order = 1
	Euclidean Order = 2
)

// Chebyshev is the limit r = ∞.
var Chebyshev = Order(math.Inf(1))

// IsChebyshev reports whether o is the r = ∞ limit.
func (o Order) IsChebyshev() bool { return math.IsInf(float64(o), 1) }

func (o Order) validate() error {
	if math.IsNaN(float64(o)) || o < 1 {
		return fmt.Errorf("%w: minkowski order must be >= 1, got %g", model.ErrInvalidArgument, float64(o))
	}
	return nil
}

func (o Order) String() string {
	switch {
	case o.IsChebyshev():
		return "chebyshev"
	case o == Manhattan:
		return "manhattan"
	case o == Euclidean:
		return "euclidean"
	default:
		return strconv.FormatFloat(float64(o), 'g', -1, 64)
	}
}

// ParseOrder accepts "manhattan", "euclidean", "chebyshev", "inf" or a number >= 1.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manhattan", "l1":
		return Manhattan, nil
	case "euclidean", "l2", "":
		return Euclidean, nil
	case "chebyshev", "inf", "linf":
		return Chebyshev, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid minkowski order %q", model.ErrInvalidArgument, s)
	}
	o := Order(f)
	if err := o.validate(); err != nil {
		return 0, err
	}
	return o, nil
}

// MarshalText implements encoding.TextMarshaler. JSON cannot carry +Inf as a number.
func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(b []byte) error {
	v, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
