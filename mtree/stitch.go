package mtree

import (
	"context"
	"fmt"
)

// Stitcher rebuilds globally-indexed link arrays from per-partition raw
// sub-arrays. It holds no state beyond the source; every Stitch call
// re-derives its result from the catalog.
type Stitcher struct {
	src Source
}

// NewStitcher returns a stitcher over the given source.
func NewStitcher(src Source) *Stitcher {
	return &Stitcher{src: src}
}

// destSnapshot returns the snapshot a link kind's values point into.
// FirstProgenitor targets live in the previous snapshot, Descendant
// targets in the next; NextProgenitor chains siblings within the same
// snapshot, so its offsets come from the snapshot's own boundaries.
func destSnapshot(snapshot int, kind LinkKind) int {
	switch kind {
	case FirstProgenitor:
		return snapshot - 1
	case Descendant:
		return snapshot + 1
	default:
		return snapshot
	}
}

// Stitch reconstructs the full link array for one (snapshot, kind) pair.
// The result has one Link per galaxy in the snapshot; each present link
// holds a valid global index into the destination snapshot's concatenated
// record space.
func (s *Stitcher) Stitch(ctx context.Context, snapshot int, kind LinkKind) ([]Link, error) {
	n := s.src.SnapshotCount()
	if snapshot < 0 || snapshot >= n {
		return nil, fmt.Errorf("%w: snapshot %d (catalog has %d)", ErrNotFound, snapshot, n)
	}

	// FirstProgenitor and NextProgenitor both presuppose a previous
	// snapshot; Descendant a next one.
	switch kind {
	case FirstProgenitor, NextProgenitor:
		if snapshot == 0 {
			return nil, &BoundaryError{Snapshot: snapshot, Kind: kind}
		}
	case Descendant:
		if snapshot == n-1 {
			return nil, &BoundaryError{Snapshot: snapshot, Kind: kind}
		}
	default:
		return nil, fmt.Errorf("mtree: unknown link kind %d", kind)
	}

	offsets, err := s.destOffsets(destSnapshot(snapshot, kind))
	if err != nil {
		return nil, err
	}

	total, err := s.src.TotalCount(snapshot)
	if err != nil {
		return nil, err
	}
	parts, err := s.src.PartitionCount(snapshot)
	if err != nil {
		return nil, err
	}
	// n_cores is fixed for the run; the per-partition offsets pair up
	// with this snapshot's partitions positionally.
	if parts != len(offsets) {
		return nil, &PartitionMismatchError{Snapshot: snapshot, Sum: parts, Total: len(offsets)}
	}

	result := make([]Link, total)
	pos := 0
	for p := 0; p < parts; p++ {
		size, err := s.src.PartitionSize(snapshot, p)
		if err != nil {
			return nil, err
		}
		raw, err := s.src.RawLinks(ctx, snapshot, p, kind)
		if err != nil {
			return nil, err
		}
		if len(raw) != size {
			return nil, &PartitionMismatchError{Snapshot: snapshot, Sum: len(raw), Total: size}
		}
		if pos+size > total {
			return nil, &PartitionMismatchError{Snapshot: snapshot, Sum: pos + size, Total: total}
		}
		off := offsets[p]
		for i, v := range raw {
			if v == AbsentIndex {
				result[pos+i] = Absent()
			} else {
				result[pos+i] = To(v + off)
			}
		}
		pos += size
	}
	if pos != total {
		return nil, &PartitionMismatchError{Snapshot: snapshot, Sum: pos, Total: total}
	}
	return result, nil
}

// destOffsets computes each partition's cumulative base offset into the
// destination snapshot's global index space.
func (s *Stitcher) destOffsets(dest int) ([]int32, error) {
	parts, err := s.src.PartitionCount(dest)
	if err != nil {
		return nil, err
	}
	offsets := make([]int32, parts)
	var off int32
	for p := 0; p < parts; p++ {
		offsets[p] = off
		size, err := s.src.PartitionSize(dest, p)
		if err != nil {
			return nil, err
		}
		off += int32(size)
	}
	return offsets, nil
}
