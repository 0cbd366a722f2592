package distance

import (
	"errors"
	"fmt"
	"math"
)

// ErrAxiomViolation is returned by VerifyAxioms.
var ErrAxiomViolation = errors.New("metric axiom violated")

// AxiomError describes the first violated axiom found by VerifyAxioms.
type AxiomError struct {
	Axiom   string // "non-negativity", "identity", "symmetry", "triangle"
	I, J, K int    // indices into the sample; K only for the triangle inequality
}

func (e *AxiomError) Error() string {
	if e.Axiom == "triangle" {
		return fmt.Sprintf("%s: triangle inequality fails for (%d, %d, %d)", ErrAxiomViolation, e.I, e.J, e.K)
	}
	return fmt.Sprintf("%s: %s fails for (%d, %d)", ErrAxiomViolation, e.Axiom, e.I, e.J)
}

func (e *AxiomError) Is(target error) bool { return target == ErrAxiomViolation }

const axiomTolerance = 1e-9

// VerifyAxioms checks non-negativity, identity, symmetry and the triangle
// inequality on every pair and triple of the sample. The cost is cubic in len(points).
func (m *Metric) VerifyAxioms(points [][]float64, w *Weights) error {
	n := len(points)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			v, err := m.Distance(points[i], points[j], w)
			if err != nil {
				return err
			}
			d[i][j] = v
		}
	}

	for i := range n {
		if math.Abs(d[i][i]) > axiomTolerance {
			return &AxiomError{Axiom: "identity", I: i, J: i}
		}
		for j := range n {
			if d[i][j] < 0 {
				return &AxiomError{Axiom: "non-negativity", I: i, J: j}
			}
			if math.Abs(d[i][j]-d[j][i]) > axiomTolerance*(1+d[i][j]) {
				return &AxiomError{Axiom: "symmetry", I: i, J: j}
			}
		}
	}

	for i := range n {
		for j := range n {
			for k := range n {
				if d[i][k] > d[i][j]+d[j][k]+axiomTolerance*(1+d[i][k]) {
					return &AxiomError{Axiom: "triangle", I: i, J: j, K: k}
				}
			}
		}
	}

	return nil
}
