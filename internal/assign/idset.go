// Package assign reconciles an edited tutor/student selection against the
// relation last fetched from the admin API.
//
// The reconciler computes which counterpart ids to link and which to unlink
// and submits them in at most two writes: one assign and one unassign. The
// two writes are independent; if the second fails the first stays applied
// and the failure is reported as a partial apply.
package assign

import (
	"maps"
	"slices"

	"github.com/dhanwis/tutoradmin/internal/model"
)

// IDSet is an unordered set of record ids.
type IDSet map[model.ID]struct{}

// NewIDSet builds a set from ids. Duplicates collapse.
func NewIDSet(ids ...model.ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id model.ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int {
	return len(s)
}

// Minus returns the ids in s that are not in other.
func (s IDSet) Minus(other IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if !other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold the same ids.
func (s IDSet) Equal(other IDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []model.ID {
	return slices.Sorted(maps.Keys(s))
}

// Plan is the pair of writes needed to turn one selection into another.
// ToAssign and ToUnassign are sorted and never share an id.
type Plan struct {
	ToAssign   []model.ID
	ToUnassign []model.ID
}

// Diff computes newIDs minus oldIDs as the ids to assign and oldIDs minus
// newIDs as the ids to unassign.
func Diff(oldIDs, newIDs IDSet) Plan {
	return Plan{
		ToAssign:   newIDs.Minus(oldIDs).Sorted(),
		ToUnassign: oldIDs.Minus(newIDs).Sorted(),
	}
}

// Empty reports whether the plan needs no writes.
func (p Plan) Empty() bool {
	return len(p.ToAssign) == 0 && len(p.ToUnassign) == 0
}

// Writes returns the number of requests the plan will issue.
func (p Plan) Writes() int {
	n := 0
	if len(p.ToAssign) > 0 {
		n++
	}
	if len(p.ToUnassign) > 0 {
		n++
	}
	return n
}
