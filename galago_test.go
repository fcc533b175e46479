package galago

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/manifest"
	"github.com/dragonsim/galago/model"
	"github.com/dragonsim/galago/mtree"
	"github.com/dragonsim/galago/segment"
)

// buildTestCatalog writes a 3-snapshot, 2-core catalog. Core 0 carries a
// merger: galaxy 0@s0 and galaxy 1@s0 both descend to 0@s1, whose first
// progenitor is 1@s0, so 0@s0 merges at snapshot 1. The chain continues
// to 0@s2. Core 1 carries an independent short lineage 2@s1 -> 3@s2.
//
// Raw link values are partition-local: each core's targets are encoded
// relative to its own base in the destination snapshot (bases 0 and 2).
func buildTestCatalog(t *testing.T, store blobstore.BlobStore) {
	t.Helper()
	ctx := context.Background()

	// IDs are 100*snapshot + globalIndex; base is the core's first global
	// index at that snapshot.
	gals := func(snap, base int, centrals ...int32) []model.Galaxy {
		out := make([]model.Galaxy, len(centrals))
		for i, cg := range centrals {
			out[i] = model.Galaxy{
				ID:          int64(100*snap + base + i),
				CentralGal:  cg,
				StellarMass: 7.0,
				Mvir:        14.0,
				Vmax:        200,
			}
		}
		return out
	}

	w := NewCatalogWriter(store, 2,
		manifest.RunParams{BoxSize: 125, Hubble: 0.7, VolumeFactor: 1},
		manifest.Units{Mass: "1e10 Msun/h", Length: "Mpc/h"},
		WithCompression(segment.CompressionZSTD),
	)

	// Snapshot 0, redshift 8.
	require.NoError(t, w.AddSnapshot(ctx, 8.0, 13000, []*segment.PartitionData{
		{
			Galaxies:        gals(0, 0, 0, 0),
			FirstProgenitor: []int32{-1, -1},
			NextProgenitor:  []int32{-1, -1},
			Descendant:      []int32{0, 0},
		},
		{
			Galaxies:        gals(0, 2, 0, 0),
			FirstProgenitor: []int32{-1, -1},
			NextProgenitor:  []int32{-1, -1},
			Descendant:      []int32{0, -1},
		},
	}))

	// Snapshot 1, redshift 5.
	require.NoError(t, w.AddSnapshot(ctx, 5.0, 12500, []*segment.PartitionData{
		{
			Galaxies:        gals(1, 0, 1, -1),
			FirstProgenitor: []int32{1, -1},
			NextProgenitor:  []int32{-1, -1},
			Descendant:      []int32{0, -1},
		},
		{
			Galaxies:        gals(1, 2, 0, 0),
			FirstProgenitor: []int32{0, -1},
			NextProgenitor:  []int32{1, -1},
			Descendant:      []int32{1, -1},
		},
	}))

	// Snapshot 2, redshift 2.
	require.NoError(t, w.AddSnapshot(ctx, 2.0, 10000, []*segment.PartitionData{
		{
			Galaxies:        gals(2, 0, 0, -1),
			FirstProgenitor: []int32{0, -1},
			NextProgenitor:  []int32{-1, -1},
			Descendant:      []int32{-1, -1},
		},
		{
			Galaxies:        gals(2, 2, 0, 1),
			FirstProgenitor: []int32{-1, 0},
			NextProgenitor:  []int32{-1, -1},
			Descendant:      []int32{-1, -1},
		},
	}))

	require.NoError(t, w.Commit(ctx))
}

func TestOpenValidatesManifest(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := Open(ctx, store)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, manifest.FileName, []byte("version: 99\n")))
	_, err = Open(ctx, store)
	require.ErrorIs(t, err, manifest.ErrInvalid)
}

func TestCatalogMetadata(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	cat, err := Open(ctx, store)
	require.NoError(t, err)
	defer cat.Close()

	require.Equal(t, 3, cat.SnapshotCount())
	require.Equal(t, 2, cat.NCores())
	require.Equal(t, 125.0, cat.Params().BoxSize)
	require.Equal(t, "Mpc/h", cat.Units().Length)
	require.Len(t, cat.Snapshots(), 3)

	z, err := cat.Redshift(1)
	require.NoError(t, err)
	require.Equal(t, 5.0, z)
	lt, err := cat.LTTime(2)
	require.NoError(t, err)
	require.Equal(t, 10000.0, lt)
	_, err = cat.Redshift(7)
	require.ErrorIs(t, err, ErrNotFound)

	snap, err := cat.SnapshotAtRedshift(5.2, 0.5)
	require.NoError(t, err)
	require.Equal(t, 1, snap)
	_, err = cat.SnapshotAtRedshift(30, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadGalaxiesWholeSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	cat, err := Open(ctx, store)
	require.NoError(t, err)

	gals, err := cat.ReadGalaxies(ctx, 1, ReadOptions{})
	require.NoError(t, err)
	require.Len(t, gals, 4)

	// IDs in global order, core 0 first.
	require.Equal(t, int64(100), gals[0].ID)
	require.Equal(t, int64(101), gals[1].ID)
	require.Equal(t, int64(102), gals[2].ID)
	require.Equal(t, int64(103), gals[3].ID)

	// Core 1's local CentralGal 0 promoted past core 0's two records;
	// absent (-1) values untouched.
	require.Equal(t, int32(1), gals[0].CentralGal)
	require.Equal(t, int32(-1), gals[1].CentralGal)
	require.Equal(t, int32(2), gals[2].CentralGal)
	require.Equal(t, int32(2), gals[3].CentralGal)
}

func TestReadGalaxiesByIndex(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	cat, err := Open(ctx, store)
	require.NoError(t, err)

	// Unsorted input: results come back in ascending index order.
	gals, err := cat.ReadGalaxies(ctx, 2, ReadOptions{Indices: []int32{3, 0}})
	require.NoError(t, err)
	require.Len(t, gals, 2)
	require.Equal(t, int64(200), gals[0].ID)
	require.Equal(t, int64(203), gals[1].ID)
	require.Equal(t, int32(3), gals[1].CentralGal)

	_, err = cat.ReadGalaxies(ctx, 2, ReadOptions{Indices: []int32{9}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadGalaxiesLittleH(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	cat, err := Open(ctx, store)
	require.NoError(t, err)

	gals, err := cat.ReadGalaxies(ctx, 0, ReadOptions{LittleH: 0.7})
	require.NoError(t, err)
	require.InDelta(t, 7.0/0.7, gals[0].StellarMass, 1e-4)
	require.InDelta(t, 14.0/0.7, gals[0].Mvir, 1e-4)
	// Velocities carry no h dependence.
	require.Equal(t, float32(200), gals[0].Vmax)

	// Catalog-wide default via option.
	cat2, err := Open(ctx, store, WithLittleH(0.7))
	require.NoError(t, err)
	g, err := cat2.FetchRecord(ctx, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 7.0/0.7, g.StellarMass, 1e-4)
}

func TestFindGalaxyByID(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	cat, err := Open(ctx, store)
	require.NoError(t, err)

	idx, g, err := cat.FindGalaxyByID(ctx, 1, 102)
	require.NoError(t, err)
	require.Equal(t, int32(2), idx)
	require.Equal(t, int64(102), g.ID)
	// Core 1's local CentralGal promoted to global space.
	require.Equal(t, int32(2), g.CentralGal)

	_, _, err = cat.FindGalaxyByID(ctx, 1, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStitchedLinkConveniences(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	cat, err := Open(ctx, store)
	require.NoError(t, err)

	fp, err := cat.FirstProgenitorIndices(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []mtree.Link{mtree.To(1), mtree.Absent(), mtree.To(2), mtree.Absent()}, fp)

	np, err := cat.NextProgenitorIndices(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []mtree.Link{mtree.Absent(), mtree.Absent(), mtree.To(3), mtree.Absent()}, np)

	desc, err := cat.DescendantIndices(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []mtree.Link{mtree.To(0), mtree.To(0), mtree.To(2), mtree.Absent()}, desc)

	_, err = cat.FirstProgenitorIndices(ctx, 0)
	require.ErrorIs(t, err, ErrSnapshotBoundary)
	_, err = cat.DescendantIndices(ctx, 2)
	require.ErrorIs(t, err, ErrSnapshotBoundary)
}

func TestGalaxyHistoryEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	buildTestCatalog(t, store)

	metrics := &BasicMetricsCollector{}
	cat, err := Open(ctx, store, WithMetricsCollector(metrics))
	require.NoError(t, err)

	// Galaxy 0@s0 merges into 0@s1 (whose primary progenitor is 1@s0)
	// and the chain still reaches snapshot 2.
	h, err := cat.GalaxyHistory(ctx, 0, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 1, h.MergedSnapshot)
	require.Equal(t, []bool{true, true, true}, h.Populated)

	// Backward from 0@s2: primary chain 0@s2 <- 0@s1 <- 1@s0, no merger.
	h, err = cat.GalaxyHistory(ctx, 2, 0, 2)
	require.NoError(t, err)
	require.Equal(t, -1, h.MergedSnapshot)
	require.Equal(t, []bool{true, true, true}, h.Populated)
	g, ok := h.Record(0)
	require.True(t, ok)
	require.Equal(t, int64(1), g.ID)

	// By ID: galaxy 103 at snapshot 1 has no progenitor; its history is a
	// single slot.
	h, err = cat.GalaxyHistoryByID(ctx, 103, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []bool{false, true}, h.Populated)
	require.Equal(t, 1, h.FormationSnapshot())

	stats := metrics.GetStats()
	require.Positive(t, stats.HistoryCount)
	require.Positive(t, stats.HistorySlots)
	require.Zero(t, stats.HistoryErrors)
}
