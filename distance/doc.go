// Package distance is the metric engine of a conceptual space.
//
// Distances are weighted Minkowski aggregates of per-dimension distances:
//
//	d(p, q) = (Σ w_i · d_i(p, q)^r)^(1/r)
//
// where d_i is |p_i - q_i| for linear dimensions, the wrapped distance for circular
// dimensions, and the normalized rank difference for ordinal dimensions.
//
// # Supported Orders
//
//   - Manhattan (r = 1)
//   - Euclidean (r = 2, default)
//   - Chebyshev (r = ∞): max_i w_i · d_i
//   - any finite r >= 1
//
// Similarity is exp(-c · d) with decay c > 0.
//
// # Weights
//
// Weights are immutable snapshots. Computations take the snapshot explicitly so a
// concurrent weight update never shows up halfway through a batch.
//
// # Usage
//
//	m, _ := distance.NewMetric(reg, distance.WithOrder(distance.Euclidean))
//	w, _ := distance.NewWeights(reg.Weights())
//	d, _ := m.Distance(red, crimson, w)
//	s, _ := m.Similarity(red, crimson, w)
package distance
