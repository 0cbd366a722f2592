// Package geometry provides the convex geometry behind regions and tessellations.
//
// Circular dimensions are not Euclidean, so geometric constructions happen in a
// local chart: every coordinate is unwrapped relative to an origin (typically a
// region prototype), which makes the chart an ordinary Euclidean space around it.
//
//   - Chart: unwrap / rewrap coordinates around an origin
//   - Centroid, WeightedCentroid: dimension-wise means, circular mean on circular axes
//   - Hull: convex hull membership (exact polygon in 2D, Gilbert's algorithm otherwise)
//   - Hyperplane, Bisector: weighted Euclidean bisectors between prototypes
package geometry
