// Package s3 provides a blobstore.BlobStore backed by Amazon S3.
//
// Reads use ranged GETs so that segment sections can be fetched without
// downloading whole objects; writes stream through the upload manager.
//
// The store takes an injected *s3.Client:
//
//	client := s3.NewFromConfig(cfg)
//	store := s3store.NewStore(client, "my-bucket", "catalogs/tiamat/")
package s3
