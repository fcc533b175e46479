package galago

import (
	"context"
	"errors"
	"fmt"

	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/manifest"
	"github.com/dragonsim/galago/segment"
)

// CatalogWriter builds a catalog on a BlobStore: one segment per
// (snapshot, partition) plus the manifest. Snapshots are added in order,
// 0 first; Commit writes the manifest last so a partially written catalog
// never opens.
type CatalogWriter struct {
	store     blobstore.BlobStore
	man       *manifest.Manifest
	segOpts   segment.WriterOptions
	committed bool
}

// WriterOption configures a CatalogWriter.
type WriterOption func(*CatalogWriter)

// WithCompression selects the segment block compression. The default
// writes uncompressed segments, which keeps single-record reads cheap.
func WithCompression(c segment.Compression) WriterOption {
	return func(w *CatalogWriter) {
		w.segOpts.Compression = c
	}
}

// WithBlockSize overrides the segment compression block size.
func WithBlockSize(size int) WriterOption {
	return func(w *CatalogWriter) {
		w.segOpts.BlockSize = size
	}
}

// NewCatalogWriter starts a catalog with the given partition count, run
// parameters and units.
func NewCatalogWriter(store blobstore.BlobStore, nCores int, params manifest.RunParams, units manifest.Units, optFns ...WriterOption) *CatalogWriter {
	w := &CatalogWriter{
		store: store,
		man: &manifest.Manifest{
			Version: manifest.Version,
			NCores:  nCores,
			Params:  params,
			Units:   units,
		},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(w)
		}
	}
	return w
}

// AddSnapshot appends the next snapshot: one PartitionData per core, in
// core order, written as segments immediately.
func (w *CatalogWriter) AddSnapshot(ctx context.Context, redshift, ltTime float64, parts []*segment.PartitionData) error {
	if w.committed {
		return errors.New("galago: writer already committed")
	}
	if len(parts) != w.man.NCores {
		return fmt.Errorf("galago: snapshot %d has %d partitions, want %d", len(w.man.Snapshots), len(parts), w.man.NCores)
	}

	snap := len(w.man.Snapshots)
	entry := manifest.Snapshot{
		Snapshot:   snap,
		Redshift:   redshift,
		LTTime:     ltTime,
		CoreCounts: make([]int64, w.man.NCores),
	}
	for core, p := range parts {
		if err := p.Validate(); err != nil {
			return err
		}
		if err := segment.Write(ctx, w.store, manifest.SegmentName(snap, core), p, w.segOpts); err != nil {
			return fmt.Errorf("galago: write segment snapshot %d core %d: %w", snap, core, err)
		}
		entry.CoreCounts[core] = int64(len(p.Galaxies))
		entry.NGalaxies += int64(len(p.Galaxies))
	}
	w.man.Snapshots = append(w.man.Snapshots, entry)
	return nil
}

// Commit validates and writes the manifest. The writer cannot be reused
// afterwards.
func (w *CatalogWriter) Commit(ctx context.Context) error {
	if w.committed {
		return errors.New("galago: writer already committed")
	}
	data, err := w.man.Encode()
	if err != nil {
		return err
	}
	if err := w.store.Put(ctx, manifest.FileName, data); err != nil {
		return fmt.Errorf("galago: write manifest: %w", err)
	}
	w.committed = true
	return nil
}
