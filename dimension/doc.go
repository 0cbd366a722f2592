// Package dimension defines quality dimensions and the registry that composes a space.
//
// A quality dimension is an interpretable axis (hue, size, lightness) with a kind, a
// declared range and an initial weight:
//
//   - Linear: distance is |a - b|, values outside [Min, Max] are rejected
//   - Circular: distance wraps at Max - Min, values are normalized modulo the range
//   - Ordinal: integral ranks in [Min, Max], distance is the rank difference / Levels
//
// # Usage
//
//	reg, err := dimension.NewRegistry(
//		dimension.Circular("hue", 0, 360),
//		dimension.Linear("saturation", 0, 1),
//		dimension.Linear("lightness", 0, 1),
//	)
//	coords, err := reg.Validate([]float64{370, 0.8, 0.5}) // hue normalized to 10
package dimension
