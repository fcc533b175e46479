// Package mtree reconstructs cross-snapshot galaxy ancestry from a
// partitioned catalog.
//
// The catalog stores each snapshot's link arrays split across partitions,
// with link values that are relative to the destination snapshot's own
// partition boundaries. The Stitcher rebuilds a single globally-indexed
// link array per (snapshot, kind) by applying cumulative partition
// offsets; the Walker uses stitched arrays to trace one galaxy's
// first-progenitor chain backward and its descendant chain forward,
// detecting the snapshot at which the galaxy merges into another lineage.
//
// Both components are pure readers over a Source: no caching, no state
// between calls, errors surfaced immediately.
package mtree
