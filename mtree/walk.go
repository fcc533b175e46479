package mtree

import (
	"context"
	"fmt"
	"log/slog"
)

// Position is a galaxy's location in the catalog: a snapshot and a global
// index within it.
type Position struct {
	Snapshot int
	Index    int32
}

// Walker traces single-galaxy lineages across snapshots. Each traversal
// re-derives its link arrays from the catalog; the walker keeps no state
// between calls.
type Walker struct {
	src      Source
	stitcher *Stitcher
	logger   *slog.Logger
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithLogger sets the logger used for warning-class conditions. The
// default discards everything.
func WithLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWalker returns a walker over the given source.
func NewWalker(src Source, opts ...WalkerOption) *Walker {
	w := &Walker{
		src:      src,
		stitcher: NewStitcher(src),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// checkPosition validates that pos names an existing galaxy.
func (w *Walker) checkPosition(pos Position) error {
	if pos.Snapshot < 0 || pos.Snapshot >= w.src.SnapshotCount() {
		return fmt.Errorf("%w: snapshot %d (catalog has %d)", ErrNotFound, pos.Snapshot, w.src.SnapshotCount())
	}
	total, err := w.src.TotalCount(pos.Snapshot)
	if err != nil {
		return err
	}
	if pos.Index < 0 || int(pos.Index) >= total {
		return fmt.Errorf("%w: index %d at snapshot %d (holds %d galaxies)", ErrNotFound, pos.Index, pos.Snapshot, total)
	}
	return nil
}

// ProgenitorStep derives one backward move: the position of pos's first
// progenitor in the previous snapshot. ok is false when the chain ends,
// either because pos has no progenitor or because pos is already at
// snapshot 0. Each step stitches afresh; steps are pure given pos.
func (w *Walker) ProgenitorStep(ctx context.Context, pos Position) (next Position, ok bool, err error) {
	if err := w.checkPosition(pos); err != nil {
		return Position{}, false, err
	}
	if pos.Snapshot == 0 {
		return Position{}, false, nil
	}
	links, err := w.stitcher.Stitch(ctx, pos.Snapshot, FirstProgenitor)
	if err != nil {
		return Position{}, false, err
	}
	target, ok := links[pos.Index].Target()
	if !ok {
		return Position{}, false, nil
	}
	return Position{Snapshot: pos.Snapshot - 1, Index: target}, true, nil
}

// DescendantStep derives one forward move: the position of pos's
// descendant in the next snapshot. ok is false when the lineage ends,
// either because pos has no descendant or because pos is already at the
// last snapshot.
func (w *Walker) DescendantStep(ctx context.Context, pos Position) (next Position, ok bool, err error) {
	if err := w.checkPosition(pos); err != nil {
		return Position{}, false, err
	}
	if pos.Snapshot == w.src.SnapshotCount()-1 {
		return Position{}, false, nil
	}
	links, err := w.stitcher.Stitch(ctx, pos.Snapshot, Descendant)
	if err != nil {
		return Position{}, false, err
	}
	target, ok := links[pos.Index].Target()
	if !ok {
		return Position{}, false, nil
	}
	return Position{Snapshot: pos.Snapshot + 1, Index: target}, true, nil
}

// GalaxyHistory builds the full first-progenitor history of the galaxy at
// (startSnapshot, startIndex), optionally extended forward to
// futureSnapshot (equal to startSnapshot means no forward trace).
//
// The backward phase always runs: records are filled from startSnapshot
// down to the formation snapshot, where the first-progenitor link is
// absent. A start galaxy with no progenitor at all is not an error; it
// yields a single-slot history and a logged warning.
//
// The forward phase follows descendant links from startSnapshot+1 up to
// futureSnapshot. While advancing, if the descendant's own first
// progenitor does not point back at the index the walker arrived from,
// the traced galaxy has merged into another lineage: MergedSnapshot
// records the first snapshot where this happens and never changes after,
// even if later links realign. Descendant records keep being filled in
// either way until the chain breaks.
func (w *Walker) GalaxyHistory(ctx context.Context, startSnapshot int, startIndex int32, futureSnapshot int) (*History, error) {
	if futureSnapshot < startSnapshot || futureSnapshot >= w.src.SnapshotCount() {
		return nil, fmt.Errorf("%w: future snapshot %d (start %d, catalog has %d)",
			ErrNotFound, futureSnapshot, startSnapshot, w.src.SnapshotCount())
	}
	start := Position{Snapshot: startSnapshot, Index: startIndex}
	if err := w.checkPosition(start); err != nil {
		return nil, err
	}

	h := newHistory(futureSnapshot + 1)

	rec, err := w.src.FetchRecord(ctx, start.Snapshot, start.Index)
	if err != nil {
		return nil, err
	}
	h.set(start.Snapshot, rec)

	// Backward phase.
	pos := start
	for pos.Snapshot > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, ok, err := w.ProgenitorStep(ctx, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			if pos == start {
				w.logger.Warn("galaxy has no progenitors",
					slog.Int("snapshot", start.Snapshot),
					slog.Int("index", int(start.Index)))
			}
			break
		}
		rec, err := w.src.FetchRecord(ctx, next.Snapshot, next.Index)
		if err != nil {
			return nil, err
		}
		h.set(next.Snapshot, rec)
		pos = next
	}

	// Forward phase.
	pos = start
	for pos.Snapshot < futureSnapshot {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, ok, err := w.DescendantStep(ctx, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		// The final requested snapshot has no lookahead to diverge from,
		// so the merge check stops one short of it.
		if next.Snapshot < futureSnapshot && h.MergedSnapshot == -1 {
			fp, err := w.stitcher.Stitch(ctx, next.Snapshot, FirstProgenitor)
			if err != nil {
				return nil, err
			}
			if target, ok := fp[next.Index].Target(); !ok || target != pos.Index {
				h.MergedSnapshot = next.Snapshot
			}
		}

		rec, err := w.src.FetchRecord(ctx, next.Snapshot, next.Index)
		if err != nil {
			return nil, err
		}
		h.set(next.Snapshot, rec)
		pos = next
	}

	return h, nil
}
