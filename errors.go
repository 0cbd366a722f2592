package conceptspace

import "github.com/hupe1980/conceptspace/model"

// Error kinds. Every failing operation wraps exactly one of them and leaves the
// space unchanged.
var (
	ErrDimensionMismatch  = model.ErrDimensionMismatch
	ErrOutOfRange         = model.ErrOutOfRange
	ErrInvalidWeight      = model.ErrInvalidWeight
	ErrNonConvexRegion    = model.ErrNonConvexRegion
	ErrIncompatibleSpaces = model.ErrIncompatibleSpaces
	ErrNotFound           = model.ErrNotFound
	ErrEmptyRegion        = model.ErrEmptyRegion
	ErrInvalidArgument    = model.ErrInvalidArgument
)

// Detail-carrying error types, usable with errors.As.
type (
	DimensionMismatchError = model.DimensionMismatchError
	OutOfRangeError        = model.OutOfRangeError
	InvalidWeightError     = model.InvalidWeightError
	NotFoundError          = model.NotFoundError
)
