package mtree

import (
	"context"
	"fmt"

	"github.com/dragonsim/galago/model"
)

// fakeSource is an in-memory catalog built from global ground truth: full
// per-snapshot record arrays and global link arrays, split into raw
// per-partition sub-arrays the way the simulation cores would have
// written them (values relative to the destination snapshot's partition
// boundaries, -1 untouched).
type fakeSource struct {
	sizes   [][]int                  // per snapshot, per partition
	records [][]model.Galaxy         // per snapshot, global order
	raw     map[LinkKind][][][]int32 // kind -> snapshot -> partition -> values

	rawCalls int // RawLinks invocations, for idempotence checks
}

func newFakeSource(snapshots int, cores int) *fakeSource {
	return &fakeSource{
		sizes:   make([][]int, snapshots),
		records: make([][]model.Galaxy, snapshots),
		raw: map[LinkKind][][][]int32{
			FirstProgenitor: make([][][]int32, snapshots),
			NextProgenitor:  make([][][]int32, snapshots),
			Descendant:      make([][][]int32, snapshots),
		},
	}
}

// setSnapshot installs one snapshot's partition sizes and records. IDs
// default to 1000*snapshot + globalIndex so tests can tell slots apart.
func (f *fakeSource) setSnapshot(snapshot int, sizes ...int) {
	f.sizes[snapshot] = sizes
	total := 0
	for _, s := range sizes {
		total += s
	}
	recs := make([]model.Galaxy, total)
	for i := range recs {
		recs[i] = model.Galaxy{ID: int64(1000*snapshot + i), StellarMass: float32(i) + 0.5}
	}
	f.records[snapshot] = recs
}

// setLinks installs one snapshot's link array from global target values
// (-1 for absent), deriving the raw per-partition encoding.
func (f *fakeSource) setLinks(snapshot int, kind LinkKind, global []int32) {
	dest := destSnapshot(snapshot, kind)
	destOffsets := make([]int32, len(f.sizes[dest]))
	var off int32
	for p, s := range f.sizes[dest] {
		destOffsets[p] = off
		off += int32(s)
	}

	parts := make([][]int32, len(f.sizes[snapshot]))
	pos := 0
	for p, size := range f.sizes[snapshot] {
		sub := make([]int32, size)
		for i := 0; i < size; i++ {
			v := global[pos+i]
			if v != AbsentIndex {
				v -= destOffsets[p]
				if v < 0 {
					// A core only links galaxies at or past its own
					// destination base; a fixture below it cannot be
					// encoded without colliding with the sentinel.
					panic(fmt.Sprintf("fixture: target %d below partition %d base %d", global[pos+i], p, destOffsets[p]))
				}
			}
			sub[i] = v
		}
		parts[p] = sub
		pos += size
	}
	f.raw[kind][snapshot] = parts
}

func (f *fakeSource) SnapshotCount() int {
	return len(f.sizes)
}

func (f *fakeSource) PartitionCount(snapshot int) (int, error) {
	if snapshot < 0 || snapshot >= len(f.sizes) {
		return 0, fmt.Errorf("%w: snapshot %d", ErrNotFound, snapshot)
	}
	return len(f.sizes[snapshot]), nil
}

func (f *fakeSource) PartitionSize(snapshot, partition int) (int, error) {
	if snapshot < 0 || snapshot >= len(f.sizes) || partition < 0 || partition >= len(f.sizes[snapshot]) {
		return 0, fmt.Errorf("%w: snapshot %d partition %d", ErrNotFound, snapshot, partition)
	}
	return f.sizes[snapshot][partition], nil
}

func (f *fakeSource) TotalCount(snapshot int) (int, error) {
	if snapshot < 0 || snapshot >= len(f.records) {
		return 0, fmt.Errorf("%w: snapshot %d", ErrNotFound, snapshot)
	}
	return len(f.records[snapshot]), nil
}

func (f *fakeSource) RawLinks(_ context.Context, snapshot, partition int, kind LinkKind) ([]int32, error) {
	f.rawCalls++
	snaps := f.raw[kind]
	if snapshot < 0 || snapshot >= len(snaps) || snaps[snapshot] == nil {
		return nil, fmt.Errorf("%w: %s links at snapshot %d", ErrNotFound, kind, snapshot)
	}
	return snaps[snapshot][partition], nil
}

func (f *fakeSource) FetchRecord(_ context.Context, snapshot int, index int32) (model.Galaxy, error) {
	if snapshot < 0 || snapshot >= len(f.records) {
		return model.Galaxy{}, fmt.Errorf("%w: snapshot %d", ErrNotFound, snapshot)
	}
	recs := f.records[snapshot]
	if index < 0 || int(index) >= len(recs) {
		return model.Galaxy{}, fmt.Errorf("%w: index %d at snapshot %d", ErrNotFound, index, snapshot)
	}
	return recs[index], nil
}

func (f *fakeSource) FetchRecords(ctx context.Context, snapshot int, indices []int32) ([]model.Galaxy, error) {
	out := make([]model.Galaxy, 0, len(indices))
	for _, idx := range indices {
		g, err := f.FetchRecord(ctx, snapshot, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
