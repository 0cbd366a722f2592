// Package model defines core types used throughout conceptspace.
//
// # Identity Types
//
//   - ConceptID: caller-assigned, stable identifier of a concept (ordered lexicographically)
//
// # Data Types
//
//   - Point: a concept's coordinates, one per quality dimension, plus metadata
//   - Neighbor: a search result with ID and distance
//
// # Errors
//
// Every rejected operation reports one of the error kinds declared here
// (ErrDimensionMismatch, ErrOutOfRange, ErrInvalidWeight, ErrNonConvexRegion,
// ErrIncompatibleSpaces, ErrNotFound, ErrEmptyRegion, ErrInvalidArgument).
// Detailed errors wrap the kind, so errors.Is works on all of them.
package model
