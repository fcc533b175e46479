package galago

import (
	"errors"
	"fmt"

	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/mtree"
)

// Sentinel errors re-exported from the traversal core so callers can match
// them without importing mtree.
var (
	// ErrNotFound is returned when a snapshot, galaxy index or galaxy ID
	// does not exist in the catalog.
	ErrNotFound = mtree.ErrNotFound

	// ErrSnapshotBoundary is returned when a link kind is requested at a
	// snapshot with no valid adjacent snapshot.
	ErrSnapshotBoundary = mtree.ErrSnapshotBoundary

	// ErrInconsistentPartitions is returned when partition metadata does
	// not agree with a snapshot's declared totals.
	ErrInconsistentPartitions = mtree.ErrInconsistentPartitions
)

// translateError unifies storage-layer not-found conditions with the
// catalog's own sentinel. Everything else passes through unmodified.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
