package mtree

import "fmt"

// LinkKind selects one of the three per-galaxy link arrays.
type LinkKind uint8

const (
	// FirstProgenitor links a galaxy to its primary progenitor in the
	// previous snapshot.
	FirstProgenitor LinkKind = iota
	// NextProgenitor links a galaxy to the next sibling progenitor of the
	// same descendant, within the same snapshot.
	NextProgenitor
	// Descendant links a galaxy to its descendant in the next snapshot.
	Descendant
)

func (k LinkKind) String() string {
	switch k {
	case FirstProgenitor:
		return "first_progenitor"
	case NextProgenitor:
		return "next_progenitor"
	case Descendant:
		return "descendant"
	default:
		return fmt.Sprintf("link_kind(%d)", uint8(k))
	}
}

// AbsentIndex is the wire sentinel for "no such relation". It appears only
// in raw link arrays; stitched results use Link instead.
const AbsentIndex int32 = -1

// Link is an optional global index into an adjacent snapshot's record
// space. The zero value is the absent link.
type Link struct {
	target int32
	valid  bool
}

// To returns a link pointing at the given global index.
func To(index int32) Link {
	return Link{target: index, valid: true}
}

// Absent returns the no-relation link.
func Absent() Link {
	return Link{}
}

// FromRaw converts a wire value, mapping the -1 sentinel to Absent.
func FromRaw(v int32) Link {
	if v == AbsentIndex {
		return Absent()
	}
	return To(v)
}

// Target returns the linked global index, and whether the link is present.
func (l Link) Target() (int32, bool) {
	return l.target, l.valid
}

// IsAbsent reports whether the link is the no-relation value.
func (l Link) IsAbsent() bool {
	return !l.valid
}

// Raw converts back to the wire encoding, -1 for absent links.
func (l Link) Raw() int32 {
	if !l.valid {
		return AbsentIndex
	}
	return l.target
}

func (l Link) String() string {
	if !l.valid {
		return "absent"
	}
	return fmt.Sprintf("->%d", l.target)
}
