// Package pk maps user-facing concept identifiers to dense uint32 handles.
//
// Handles are small integers suited for roaring bitmaps and slice-indexed
// storage. Released handles go on a free list and are reused by later
// allocations, so the handle space stays compact under churn.
//
// The table is not synchronized; the owning space serializes writers.
package pk
