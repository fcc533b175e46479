package blobstore

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// RateLimitedStore wraps a BlobStore and throttles read throughput with a
// token bucket. Intended for shared object-store endpoints where a deep
// history traversal would otherwise saturate the link.
type RateLimitedStore struct {
	inner   BlobStore
	limiter *rate.Limiter
}

// NewRateLimitedStore creates a RateLimitedStore capped at bytesPerSec.
func NewRateLimitedStore(inner BlobStore, bytesPerSec int) *RateLimitedStore {
	return &RateLimitedStore{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec),
	}
}

// Open opens a blob whose reads are rate limited.
func (s *RateLimitedStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rateLimitedBlob{inner: b, limiter: s.limiter}, nil
}

// Create passes through to the inner store; writes are not throttled.
func (s *RateLimitedStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

// Put passes through to the inner store.
func (s *RateLimitedStore) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, name, data)
}

// Delete passes through to the inner store.
func (s *RateLimitedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *RateLimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type rateLimitedBlob struct {
	inner   Blob
	limiter *rate.Limiter
}

func (b *rateLimitedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := b.wait(ctx, len(p)); err != nil {
		return 0, err
	}
	return b.inner.ReadAt(ctx, p, off)
}

func (b *rateLimitedBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := b.wait(ctx, int(length)); err != nil {
		return nil, err
	}
	return b.inner.ReadRange(ctx, off, length)
}

// wait blocks until the limiter admits n bytes. Requests larger than the
// bucket are admitted in burst-sized slices.
func (b *rateLimitedBlob) wait(ctx context.Context, n int) error {
	burst := b.limiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := b.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (b *rateLimitedBlob) Size() int64 {
	return b.inner.Size()
}

func (b *rateLimitedBlob) Close() error {
	return b.inner.Close()
}
