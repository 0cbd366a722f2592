// Package testutil provides testing utilities for conceptspace.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating reproducible random points inside a
// dimension registry and for computing exact nearest neighbors.
//
// # Random Points
//
//	rng := testutil.NewRNG(seed)
//	coords := rng.Coordinates(reg)              // uniform inside every range
//	pts := rng.ClusteredPoints(reg, 100, 4, 0.05)
//
// # Exact Search (Ground Truth)
//
//	want := testutil.BruteForceKNN(points, query, k, dist)
package testutil
