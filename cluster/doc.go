// Package cluster proposes regions from unlabeled concept points.
//
// Discover runs a density-based scan: a point is a core point when at least
// MinDensity other points lie within Radius of it, core points reachable from
// each other form a cluster, and clusters smaller than MinClusterSize are
// discarded as noise. Partition runs Lloyd's k-means with deterministic
// farthest-point seeding.
//
// Both functions only return proposals. Committing a proposal as a region is
// the caller's decision.
package cluster
