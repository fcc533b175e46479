package galago

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/manifest"
	"github.com/dragonsim/galago/model"
	"github.com/dragonsim/galago/mtree"
	"github.com/dragonsim/galago/segment"
)

// Catalog is a read-only view of a partitioned galaxy catalog: the
// manifest plus one segment per (snapshot, partition). It implements
// mtree.Source, so the traversal core reads through it directly.
//
// A Catalog keeps no segment handles open between calls; every read opens,
// reads and closes the segments it touches. Wrap the store in a
// blobstore.CachingStore when that matters.
type Catalog struct {
	store blobstore.BlobStore
	man   *manifest.Manifest
	opts  options

	stitcher *mtree.Stitcher
	walker   *mtree.Walker
}

// Open loads and validates the catalog manifest from the store.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Catalog, error) {
	o := applyOptions(optFns)

	blob, err := store.Open(ctx, manifest.FileName)
	if err != nil {
		return nil, translateError(fmt.Errorf("galago: open manifest: %w", err))
	}
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("galago: read manifest: %w", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("galago: read manifest: %w", err)
	}

	man, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		store: store,
		man:   man,
		opts:  o,
	}
	c.stitcher = mtree.NewStitcher(c)
	c.walker = mtree.NewWalker(c, mtree.WithLogger(o.logger.Logger))

	o.logger.InfoContext(ctx, "catalog opened",
		"snapshots", len(man.Snapshots),
		"cores", man.NCores,
	)
	return c, nil
}

// Close exists for symmetry with other handle types; the catalog holds no
// open resources between calls.
func (c *Catalog) Close() error {
	return nil
}

// Params returns the simulation run parameters.
func (c *Catalog) Params() manifest.RunParams {
	return c.man.Params
}

// Units returns the catalog's unit strings.
func (c *Catalog) Units() manifest.Units {
	return c.man.Units
}

// NCores returns the number of partitions per snapshot.
func (c *Catalog) NCores() int {
	return c.man.NCores
}

// Snapshots returns a copy of the manifest's snapshot entries.
func (c *Catalog) Snapshots() []manifest.Snapshot {
	out := make([]manifest.Snapshot, len(c.man.Snapshots))
	copy(out, c.man.Snapshots)
	return out
}

// Redshift returns the redshift of one snapshot.
func (c *Catalog) Redshift(snapshot int) (float64, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return 0, err
	}
	return c.man.Snapshots[snapshot].Redshift, nil
}

// LTTime returns the light-travel time of one snapshot.
func (c *Catalog) LTTime(snapshot int) (float64, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return 0, err
	}
	return c.man.Snapshots[snapshot].LTTime, nil
}

// SnapshotAtRedshift returns the snapshot closest to the requested
// redshift. ErrNotFound if the closest snapshot is further than tol away.
func (c *Catalog) SnapshotAtRedshift(z, tol float64) (int, error) {
	best, bestDist := -1, math.Inf(1)
	for _, s := range c.man.Snapshots {
		if d := math.Abs(s.Redshift - z); d < bestDist {
			best, bestDist = s.Snapshot, d
		}
	}
	if bestDist > tol {
		return 0, fmt.Errorf("%w: no snapshot within %g of redshift %g (closest is %g away)",
			ErrNotFound, tol, z, bestDist)
	}
	return best, nil
}

func (c *Catalog) checkSnapshot(snapshot int) error {
	if snapshot < 0 || snapshot >= len(c.man.Snapshots) {
		return fmt.Errorf("%w: snapshot %d (catalog has %d)", ErrNotFound, snapshot, len(c.man.Snapshots))
	}
	return nil
}

// partitionBase returns the global index of partition's first record.
func (c *Catalog) partitionBase(snapshot, partition int) int32 {
	var base int32
	for p := 0; p < partition; p++ {
		base += int32(c.man.Snapshots[snapshot].CoreCounts[p])
	}
	return base
}

func (c *Catalog) openSegment(ctx context.Context, snapshot, partition int) (*segment.Reader, error) {
	r, err := segment.Open(ctx, c.store, manifest.SegmentName(snapshot, partition))
	if err != nil {
		return nil, translateError(err)
	}
	return r, nil
}

// SnapshotCount implements mtree.Source.
func (c *Catalog) SnapshotCount() int {
	return len(c.man.Snapshots)
}

// PartitionCount implements mtree.Source.
func (c *Catalog) PartitionCount(snapshot int) (int, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return 0, err
	}
	return c.man.NCores, nil
}

// PartitionSize implements mtree.Source.
func (c *Catalog) PartitionSize(snapshot, partition int) (int, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return 0, err
	}
	if partition < 0 || partition >= c.man.NCores {
		return 0, fmt.Errorf("%w: partition %d at snapshot %d (catalog has %d cores)",
			ErrNotFound, partition, snapshot, c.man.NCores)
	}
	return int(c.man.Snapshots[snapshot].CoreCounts[partition]), nil
}

// TotalCount implements mtree.Source.
func (c *Catalog) TotalCount(snapshot int) (int, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return 0, err
	}
	return int(c.man.Snapshots[snapshot].NGalaxies), nil
}

// RawLinks implements mtree.Source: one partition's link sub-array exactly
// as the simulation core wrote it.
func (c *Catalog) RawLinks(ctx context.Context, snapshot, partition int, kind mtree.LinkKind) ([]int32, error) {
	if _, err := c.PartitionSize(snapshot, partition); err != nil {
		return nil, err
	}
	r, err := c.openSegment(ctx, snapshot, partition)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var section uint32
	switch kind {
	case mtree.FirstProgenitor:
		section = segment.SectionFirstProgenitor
	case mtree.NextProgenitor:
		section = segment.SectionNextProgenitor
	case mtree.Descendant:
		section = segment.SectionDescendant
	default:
		return nil, fmt.Errorf("galago: unknown link kind %d", kind)
	}
	return r.Links(ctx, section)
}

// locatePartition maps a global index to (partition, local index).
func (c *Catalog) locatePartition(snapshot int, index int32) (int, int32, error) {
	if index >= 0 {
		rest := index
		for p, count := range c.man.Snapshots[snapshot].CoreCounts {
			if int64(rest) < count {
				return p, rest, nil
			}
			rest -= int32(count)
		}
	}
	return 0, 0, fmt.Errorf("%w: index %d at snapshot %d (holds %d galaxies)",
		ErrNotFound, index, snapshot, c.man.Snapshots[snapshot].NGalaxies)
}

// FetchRecord implements mtree.Source. The stored partition-local
// CentralGal is promoted to a global index, and the catalog's default
// little-h rescaling is applied.
func (c *Catalog) FetchRecord(ctx context.Context, snapshot int, index int32) (model.Galaxy, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return model.Galaxy{}, err
	}
	partition, local, err := c.locatePartition(snapshot, index)
	if err != nil {
		return model.Galaxy{}, err
	}
	r, err := c.openSegment(ctx, snapshot, partition)
	if err != nil {
		return model.Galaxy{}, err
	}
	defer r.Close()

	g, err := r.RecordAt(ctx, int(local))
	if err != nil {
		return model.Galaxy{}, err
	}
	if g.CentralGal >= 0 {
		g.CentralGal += c.partitionBase(snapshot, partition)
	}
	return model.ScaleLittleH(g, c.opts.littleH), nil
}

// FetchRecords implements mtree.Source: a batched fetch returning records
// in ascending global-index order. indices must be sorted ascending.
func (c *Catalog) FetchRecords(ctx context.Context, snapshot int, indices []int32) ([]model.Galaxy, error) {
	return c.fetchSelected(ctx, snapshot, indices, c.opts.littleH)
}

// fetchSelected reads the requested global indices partition by partition,
// using a roaring bitmap to select each partition's share of the request.
func (c *Catalog) fetchSelected(ctx context.Context, snapshot int, indices []int32, littleH float64) ([]model.Galaxy, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return nil, err
	}
	total := c.man.Snapshots[snapshot].NGalaxies

	wanted := roaring.New()
	for _, idx := range indices {
		if idx < 0 || int64(idx) >= total {
			return nil, fmt.Errorf("%w: index %d at snapshot %d (holds %d galaxies)",
				ErrNotFound, idx, snapshot, total)
		}
		wanted.Add(uint32(idx))
	}

	out := make([]model.Galaxy, 0, wanted.GetCardinality())
	var base int32
	for p, count := range c.man.Snapshots[snapshot].CoreCounts {
		part := roaring.New()
		part.AddRange(uint64(base), uint64(base)+uint64(count))
		part.And(wanted)
		if part.IsEmpty() {
			base += int32(count)
			continue
		}

		r, err := c.openSegment(ctx, snapshot, p)
		if err != nil {
			return nil, err
		}
		it := part.Iterator()
		for it.HasNext() {
			global := int32(it.Next())
			g, err := r.RecordAt(ctx, int(global-base))
			if err != nil {
				r.Close()
				return nil, err
			}
			if g.CentralGal >= 0 {
				g.CentralGal += base
			}
			out = append(out, model.ScaleLittleH(g, littleH))
		}
		if err := r.Close(); err != nil {
			return nil, err
		}
		base += int32(count)
	}
	return out, nil
}

// ReadOptions controls ReadGalaxies.
type ReadOptions struct {
	// Indices selects specific global indices; nil reads the whole
	// snapshot. The slice is sorted internally and results come back in
	// ascending global-index order.
	Indices []int32

	// LittleH overrides the catalog's default Hubble rescaling for this
	// read. Zero falls back to the default.
	LittleH float64
}

// ReadGalaxies reads one snapshot's records, whole or by index, with
// partition-local CentralGal values promoted to global indices and
// optional little-h rescaling applied.
func (c *Catalog) ReadGalaxies(ctx context.Context, snapshot int, opts ReadOptions) (gals []model.Galaxy, err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordRead(len(gals), time.Since(start), err)
		c.opts.logger.LogRead(ctx, snapshot, len(gals), err)
	}()

	littleH := opts.LittleH
	if littleH == 0 {
		littleH = c.opts.littleH
	}

	if opts.Indices != nil {
		sorted := make([]int32, len(opts.Indices))
		copy(sorted, opts.Indices)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return c.fetchSelected(ctx, snapshot, sorted, littleH)
	}

	if err := c.checkSnapshot(snapshot); err != nil {
		return nil, err
	}
	out := make([]model.Galaxy, 0, c.man.Snapshots[snapshot].NGalaxies)
	var base int32
	for p, count := range c.man.Snapshots[snapshot].CoreCounts {
		r, err := c.openSegment(ctx, snapshot, p)
		if err != nil {
			return nil, err
		}
		recs, err := r.Records(ctx)
		if err != nil {
			r.Close()
			return nil, err
		}
		if err := r.Close(); err != nil {
			return nil, err
		}
		for _, g := range recs {
			if g.CentralGal >= 0 {
				g.CentralGal += base
			}
			out = append(out, model.ScaleLittleH(g, littleH))
		}
		base += int32(count)
	}
	return out, nil
}

// FindGalaxyByID scans one snapshot for a galaxy ID and returns its global
// index and record.
func (c *Catalog) FindGalaxyByID(ctx context.Context, snapshot int, id int64) (int32, model.Galaxy, error) {
	if err := c.checkSnapshot(snapshot); err != nil {
		return 0, model.Galaxy{}, err
	}
	var base int32
	for p, count := range c.man.Snapshots[snapshot].CoreCounts {
		r, err := c.openSegment(ctx, snapshot, p)
		if err != nil {
			return 0, model.Galaxy{}, err
		}
		recs, err := r.Records(ctx)
		if err != nil {
			r.Close()
			return 0, model.Galaxy{}, err
		}
		if err := r.Close(); err != nil {
			return 0, model.Galaxy{}, err
		}
		for i, g := range recs {
			if g.ID == id {
				if g.CentralGal >= 0 {
					g.CentralGal += base
				}
				return base + int32(i), model.ScaleLittleH(g, c.opts.littleH), nil
			}
		}
		base += int32(count)
	}
	return 0, model.Galaxy{}, fmt.Errorf("%w: galaxy ID %d at snapshot %d", ErrNotFound, id, snapshot)
}

// FirstProgenitorIndices returns the stitched first-progenitor link array
// for one snapshot: targets are global indices into the previous snapshot.
func (c *Catalog) FirstProgenitorIndices(ctx context.Context, snapshot int) ([]mtree.Link, error) {
	return c.stitch(ctx, snapshot, mtree.FirstProgenitor)
}

// NextProgenitorIndices returns the stitched next-progenitor link array
// for one snapshot: targets chain siblings within the same snapshot.
func (c *Catalog) NextProgenitorIndices(ctx context.Context, snapshot int) ([]mtree.Link, error) {
	return c.stitch(ctx, snapshot, mtree.NextProgenitor)
}

// DescendantIndices returns the stitched descendant link array for one
// snapshot: targets are global indices into the next snapshot.
func (c *Catalog) DescendantIndices(ctx context.Context, snapshot int) ([]mtree.Link, error) {
	return c.stitch(ctx, snapshot, mtree.Descendant)
}

func (c *Catalog) stitch(ctx context.Context, snapshot int, kind mtree.LinkKind) (links []mtree.Link, err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordStitch(time.Since(start), err)
		c.opts.logger.LogStitch(ctx, snapshot, kind, err)
	}()
	return c.stitcher.Stitch(ctx, snapshot, kind)
}

// GalaxyHistory traces the lineage of the galaxy at (startSnapshot,
// startIndex): its first-progenitor chain backward, and forward along
// descendant links to futureSnapshot with merger detection. See
// mtree.Walker.GalaxyHistory for the full contract.
func (c *Catalog) GalaxyHistory(ctx context.Context, startSnapshot int, startIndex int32, futureSnapshot int) (h *mtree.History, err error) {
	start := time.Now()
	defer func() {
		populated := 0
		if h != nil {
			populated = h.PopulatedCount()
		}
		c.opts.metricsCollector.RecordHistory(populated, time.Since(start), err)
		c.opts.logger.LogHistory(ctx, startSnapshot, futureSnapshot, populated, err)
	}()
	return c.walker.GalaxyHistory(ctx, startSnapshot, startIndex, futureSnapshot)
}

// GalaxyHistoryByID resolves a galaxy ID at startSnapshot and traces its
// lineage.
func (c *Catalog) GalaxyHistoryByID(ctx context.Context, id int64, startSnapshot, futureSnapshot int) (*mtree.History, error) {
	index, _, err := c.FindGalaxyByID(ctx, startSnapshot, id)
	if err != nil {
		return nil, err
	}
	return c.GalaxyHistory(ctx, startSnapshot, index, futureSnapshot)
}
