package mtree

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a snapshot or global index does not
	// exist in the catalog.
	ErrNotFound = errors.New("mtree: not found")

	// ErrSnapshotBoundary is returned when a link kind is requested at a
	// snapshot with no valid adjacent snapshot.
	ErrSnapshotBoundary = errors.New("mtree: snapshot boundary")

	// ErrInconsistentPartitions is returned when partition sizes do not
	// sum to a snapshot's declared total.
	ErrInconsistentPartitions = errors.New("mtree: inconsistent partition metadata")
)

// BoundaryError reports a link request with no adjacent snapshot:
// FirstProgenitor or NextProgenitor at snapshot 0, Descendant at the last
// snapshot.
type BoundaryError struct {
	Snapshot int
	Kind     LinkKind
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("mtree: %s links undefined at snapshot %d: no adjacent snapshot", e.Kind, e.Snapshot)
}

func (e *BoundaryError) Unwrap() error {
	return ErrSnapshotBoundary
}

// PartitionMismatchError reports partition sizes that do not sum to the
// snapshot's declared galaxy count.
type PartitionMismatchError struct {
	Snapshot int
	Sum      int
	Total    int
}

func (e *PartitionMismatchError) Error() string {
	return fmt.Sprintf("mtree: snapshot %d partition sizes sum to %d, declared total is %d", e.Snapshot, e.Sum, e.Total)
}

func (e *PartitionMismatchError) Unwrap() error {
	return ErrInconsistentPartitions
}
