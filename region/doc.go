// Package region implements the region manager of a conceptual space.
//
// A region is a convex category: a prototype, a member set and a boundary. The
// boundary is either an explicit convex hull (low dimensionality) or an implicit
// Voronoi cell, "nearer to this prototype than to any other". Member sets are
// roaring bitmaps over the space's dense point handles.
//
// Regions are validated lazily. Mutations that move points or change the metric
// only bump version counters; boundary invariants are re-checked by Validate or
// on the next membership query.
//
// The Manager is not synchronized. The owning space serializes writers and
// lets readers in concurrently; the per-region caches guard themselves.
package region
