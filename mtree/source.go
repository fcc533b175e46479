package mtree

import (
	"context"

	"github.com/dragonsim/galago/model"
)

// Source is the read-only view of a partitioned catalog that the stitcher
// and walker consume. Implementations must be safe for concurrent readers
// if callers traverse concurrently; the traversal itself is sequential.
//
// Global indices are positions in the logical concatenation of one
// snapshot's partitions, in partition order. They are snapshot-local.
type Source interface {
	// SnapshotCount reports the number of snapshots, numbered 0..N-1.
	SnapshotCount() int

	// PartitionCount reports how many partitions the snapshot is split
	// across.
	PartitionCount(snapshot int) (int, error)

	// PartitionSize reports the number of records one partition holds.
	PartitionSize(snapshot, partition int) (int, error)

	// TotalCount reports the snapshot's declared total record count.
	TotalCount(snapshot int) (int, error)

	// RawLinks returns one partition's raw link sub-array as stored:
	// values relative to the destination snapshot's partition boundaries,
	// -1 for no relation.
	RawLinks(ctx context.Context, snapshot, partition int, kind LinkKind) ([]int32, error)

	// FetchRecord returns the record at one global index.
	FetchRecord(ctx context.Context, snapshot int, index int32) (model.Galaxy, error)

	// FetchRecords returns the records at the given global indices, in
	// ascending index order. Indices must be sorted ascending.
	FetchRecords(ctx context.Context, snapshot int, indices []int32) ([]model.Galaxy, error)
}
