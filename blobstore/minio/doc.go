// Package minio provides a blobstore.BlobStore for MinIO and other
// S3-compatible object storage, using ranged GETs for reads and streaming
// uploads for writes.
package minio
