// Package conceptspace implements conceptual spaces: geometric knowledge
// representation where concepts are points along interpretable quality
// dimensions and categories are convex regions around prototypes.
//
// A Space owns a dimension registry, the concept points placed in it and the
// regions defined over them. Similarity is a decaying function of a weighted
// Minkowski distance; circular dimensions such as hue wrap around.
//
// # Quick Start
//
//	ctx := context.Background()
//	space, _ := conceptspace.New([]dimension.Dimension{
//	    dimension.Circular("hue", 0, 360),
//	    dimension.Linear("saturation", 0, 1),
//	    dimension.Linear("lightness", 0, 1),
//	})
//
//	space.Insert(ctx, model.NewPoint("red", 0, 0.8, 0.5))
//	space.Insert(ctx, model.NewPoint("crimson", 350, 0.8, 0.45))
//
//	d, _ := space.Distance("red", "crimson") // ≈ 10.0001, the hue term wraps
//
// # Regions
//
// Regions are defined from seed concepts. Their prototype is the centroid of
// the seeds (circular mean on circular dimensions) unless one is declared:
//
//	ref, _ := space.DefineRegion(ctx, []model.ConceptID{"red", "crimson"}, region.Spec{Name: "reds"})
//	m, _ := space.TestMembership(ctx, ref, []float64{355, 0.8, 0.48})
//
// Low-dimensional regions carry an explicit convex hull; higher-dimensional
// ones are Voronoi cells of their prototype. Tessellation returns the current
// cell diagram, Discover proposes regions from dense clusters and
// AdaptWeights learns dimension weights from similarity feedback.
//
// # Concurrency
//
// Mutations (points, regions, weights) are serialized per space. Queries run
// concurrently against a stable snapshot and never observe a half-applied
// mutation. Weight vectors are immutable snapshots; changing weights installs a
// new snapshot and lazily invalidates every derived cache.
//
// # Persistence
//
// Export captures everything needed to rebuild a space; Restore rebuilds it.
// The snapshot package encodes that state and stores it in a blobstore.
package conceptspace
