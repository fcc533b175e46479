// Package blobstore abstracts access to the immutable blobs that make up a
// galaxy catalog: the manifest document and one segment per
// (snapshot, partition).
//
// Backends include the local file system (memory-mapped reads), an
// in-memory store for testing, and S3/MinIO object storage. Wrappers add
// block-level caching and read rate limiting for shared remote endpoints.
package blobstore
