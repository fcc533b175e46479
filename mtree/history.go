package mtree

import "github.com/dragonsim/galago/model"

// History is one galaxy's per-snapshot record array, slot i holding the
// galaxy's record at snapshot i. Slots the lineage never reaches stay
// zero-valued, with Populated false.
type History struct {
	// Records has one slot per snapshot from 0 through the requested
	// future snapshot.
	Records []model.Galaxy

	// Populated marks which slots were actually visited.
	Populated []bool

	// MergedSnapshot is the first future snapshot at which the traced
	// galaxy stopped being its descendant's primary progenitor, or -1 if
	// no such divergence was seen.
	MergedSnapshot int
}

func newHistory(slots int) *History {
	return &History{
		Records:        make([]model.Galaxy, slots),
		Populated:      make([]bool, slots),
		MergedSnapshot: -1,
	}
}

func (h *History) set(snapshot int, g model.Galaxy) {
	h.Records[snapshot] = g
	h.Populated[snapshot] = true
}

// Record returns the record at one snapshot and whether the lineage
// reached it.
func (h *History) Record(snapshot int) (model.Galaxy, bool) {
	if snapshot < 0 || snapshot >= len(h.Records) {
		return model.Galaxy{}, false
	}
	return h.Records[snapshot], h.Populated[snapshot]
}

// PopulatedCount reports how many snapshots the lineage covers.
func (h *History) PopulatedCount() int {
	n := 0
	for _, p := range h.Populated {
		if p {
			n++
		}
	}
	return n
}

// FormationSnapshot returns the earliest populated snapshot, or -1 for an
// empty history.
func (h *History) FormationSnapshot() int {
	for i, p := range h.Populated {
		if p {
			return i
		}
	}
	return -1
}

// Merged reports whether a merger divergence was detected.
func (h *History) Merged() bool {
	return h.MergedSnapshot >= 0
}
