package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a coordinate count disagrees with the dimension count.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrOutOfRange is returned when a non-circular coordinate lies outside its declared range.
	ErrOutOfRange = errors.New("coordinate out of range")

	// ErrInvalidWeight is returned when a dimension weight is negative or not finite.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrNonConvexRegion is returned when a supplied region boundary is not convex.
	ErrNonConvexRegion = errors.New("non-convex region")

	// ErrIncompatibleSpaces is returned when an operation mixes regions of different spaces.
	ErrIncompatibleSpaces = errors.New("incompatible spaces")

	// ErrNotFound is returned when a concept or region identifier is unknown.
	ErrNotFound = errors.New("not found")

	// ErrEmptyRegion is returned when an operation needs members but the region has none.
	ErrEmptyRegion = errors.New("empty region")

	// ErrInvalidArgument is returned for malformed parameters (k <= 0, negative radius, ...).
	ErrInvalidArgument = errors.New("invalid argument")
)

// DimensionMismatchError carries the expected and actual coordinate counts.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// OutOfRangeError identifies the offending coordinate.
type OutOfRangeError struct {
	Dimension string
	Value     float64
	Min       float64
	Max       float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("coordinate out of range: %s=%g not in [%g, %g]", e.Dimension, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// InvalidWeightError identifies the offending weight.
type InvalidWeightError struct {
	Index  int
	Weight float64
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("invalid weight: w[%d]=%g", e.Index, e.Weight)
}

func (e *InvalidWeightError) Is(target error) bool { return target == ErrInvalidWeight }

// NotFoundError names the kind and identifier that could not be resolved.
type NotFoundError struct {
	Kind string // "concept" or "region"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConceptNotFound is a shorthand for a concept NotFoundError.
func ConceptNotFound(id ConceptID) error {
	return &NotFoundError{Kind: "concept", ID: string(id)}
}

// CheckDimension returns a DimensionMismatchError if actual != expected.
func CheckDimension(expected, actual int) error {
	if expected != actual {
		return &DimensionMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
