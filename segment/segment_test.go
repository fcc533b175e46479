package segment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/model"
)

func testPartition(n int) *PartitionData {
	p := &PartitionData{
		Galaxies:        make([]model.Galaxy, n),
		FirstProgenitor: make([]int32, n),
		NextProgenitor:  make([]int32, n),
		Descendant:      make([]int32, n),
	}
	for i := 0; i < n; i++ {
		p.Galaxies[i] = model.Galaxy{
			ID:          int64(1000 + i),
			Type:        int32(i % 3),
			CentralGal:  int32(i / 10 * 10),
			Pos:         [3]float32{float32(i), float32(2 * i), float32(3 * i)},
			Mvir:        float32(i) * 1e10,
			StellarMass: float32(i) * 1e8,
		}
		p.FirstProgenitor[i] = int32(i - 1)
		p.NextProgenitor[i] = -1
		p.Descendant[i] = int32(i)
	}
	return p
}

func TestSegmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		store := blobstore.NewMemoryStore()
		p := testPartition(137)
		require.NoError(t, Write(ctx, store, "seg", p, WriterOptions{Compression: c}))

		r, err := Open(ctx, store, "seg")
		require.NoError(t, err)
		require.Equal(t, 137, r.Count())
		require.Equal(t, c, r.Compression())

		got, err := r.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, p, got)
		require.NoError(t, r.Close())
	}
}

func TestSegmentLinkSentinelsSurvive(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	p := testPartition(5)
	p.FirstProgenitor = []int32{-1, 0, -1, 2, -1}
	p.Descendant = []int32{4, -1, -1, 0, 1}
	require.NoError(t, Write(ctx, store, "seg", p, WriterOptions{Compression: CompressionLZ4}))

	r, err := Open(ctx, store, "seg")
	require.NoError(t, err)
	defer r.Close()

	fp, err := r.Links(ctx, SectionFirstProgenitor)
	require.NoError(t, err)
	require.Equal(t, p.FirstProgenitor, fp)

	desc, err := r.Links(ctx, SectionDescendant)
	require.NoError(t, err)
	require.Equal(t, p.Descendant, desc)
}

func TestSegmentRecordAt(t *testing.T) {
	ctx := context.Background()
	p := testPartition(300)

	for _, tc := range []struct {
		name string
		opts WriterOptions
	}{
		// Small block sizes force records to straddle block boundaries.
		{"uncompressed", WriterOptions{Compression: CompressionNone, BlockSize: 1000}},
		{"zstd", WriterOptions{Compression: CompressionZSTD, BlockSize: 4096}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			require.NoError(t, Write(ctx, store, "seg", p, tc.opts))

			r, err := Open(ctx, store, "seg")
			require.NoError(t, err)
			defer r.Close()

			for _, idx := range []int{0, 1, 8, 150, 299} {
				g, err := r.RecordAt(ctx, idx)
				require.NoError(t, err)
				require.Equal(t, p.Galaxies[idx], g)
			}

			_, err = r.RecordAt(ctx, 300)
			require.ErrorIs(t, err, ErrCorrupt)
			_, err = r.RecordAt(ctx, -1)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestSegmentEmptyPartition(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, Write(ctx, store, "seg", &PartitionData{}, WriterOptions{}))

	r, err := Open(ctx, store, "seg")
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 0, r.Count())

	got, err := r.Read(ctx)
	require.NoError(t, err)
	require.Empty(t, got.Galaxies)
	require.Empty(t, got.Descendant)
}

func TestSegmentValidateMismatchedLinks(t *testing.T) {
	p := testPartition(4)
	p.NextProgenitor = p.NextProgenitor[:3]
	_, err := Encode(p, WriterOptions{})
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestSegmentRejectsBadMagic(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "seg", make([]byte, 200)))

	_, err := Open(ctx, store, "seg")
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestSegmentRejectsTruncatedBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	data, err := Encode(testPartition(10), WriterOptions{})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "seg", data[:headerSize-4]))
	_, err = Open(ctx, store, "seg")
	require.ErrorIs(t, err, ErrCorrupt)

	// Intact header but a section pointing past the end.
	require.NoError(t, store.Put(ctx, "seg", data[:len(data)-10]))
	_, err = Open(ctx, store, "seg")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCompressionBlockFraming(t *testing.T) {
	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i % 7) // highly compressible
	}
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		framed, err := compressAll(data, c, 1024)
		require.NoError(t, err)
		back, err := decompressAll(framed, c)
		require.NoError(t, err)
		require.Equal(t, data, back)
	}
}

func TestCompressionIncompressibleStoredRaw(t *testing.T) {
	// A pseudo-random block should be stored raw under LZ4.
	data := make([]byte, 4096)
	state := uint32(12345)
	for i := range data {
		state = state*1664525 + 1013904223
		data[i] = byte(state >> 24)
	}
	framed, err := compressAll(data, CompressionLZ4, len(data))
	require.NoError(t, err)
	require.Equal(t, blockHeaderSize+len(data), len(framed))

	back, err := decompressAll(framed, CompressionLZ4)
	require.NoError(t, err)
	require.Equal(t, data, back)
}
