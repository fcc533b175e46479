// Package galago reads partitioned, snapshot-structured galaxy catalogs
// and reconstructs cross-snapshot ancestry.
//
// A catalog is a directory on a BlobStore: a YAML manifest describing the
// snapshot list and per-partition record counts, plus one binary segment
// per (snapshot, partition) holding galaxy records and raw merger-tree
// link arrays. The Catalog type reads records and metadata; the mtree
// package underneath stitches per-partition link arrays into global index
// space and walks first-progenitor and descendant chains, detecting the
// snapshot at which a galaxy merges into another lineage.
//
// Storage backends live in blobstore: local files (mmap), memory, S3 and
// MinIO, with optional block caching and rate limiting. CatalogWriter
// builds catalogs for converters, fixtures and tests.
package galago
