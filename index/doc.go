// Package index provides the spatial index behind a space's point store.
//
// Two implementations satisfy Index:
//
//   - vptree: a vantage-point metric tree. It only relies on the triangle inequality,
//     so circular and ordinal dimensions prune correctly.
//   - flat: an exact linear scan.
//
// New picks the tree unless the dimensionality exceeds Config.TreeMaxDimensions
// (default 10); above that, metric-tree pruning degrades toward a full scan and the
// flat index is cheaper. Both return the same results: ordered by distance, with
// equal distances ordered by concept ID.
//
// Indexes are bound to a distance function fixed to one weight snapshot. After a
// weight change the owner calls Rebind.
package index
