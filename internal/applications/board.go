// Package applications tracks tutor applications through review.
package applications

import (
	"slices"

	"github.com/dhanwis/tutoradmin/internal/model"
)

// Board groups tutors by application state. Each tutor is in exactly one list.
type Board struct {
	Pending  []model.Entity
	Approved []model.Entity
	Rejected []model.Entity
}

// Partition sorts tutors into a Board by their approval flags.
func Partition(tutors []model.Entity) Board {
	var b Board
	seen := make(map[model.ID]struct{}, len(tutors))
	for _, t := range tutors {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		b.add(t)
	}
	return b
}

func (b *Board) add(t model.Entity) {
	switch t.Status() {
	case model.StatusApproved:
		b.Approved = append(b.Approved, t)
	case model.StatusRejected:
		b.Rejected = append(b.Rejected, t)
	default:
		b.Pending = append(b.Pending, t)
	}
}

// List returns the tutors in the given state.
func (b Board) List(status model.ApprovalStatus) []model.Entity {
	switch status {
	case model.StatusApproved:
		return b.Approved
	case model.StatusRejected:
		return b.Rejected
	default:
		return b.Pending
	}
}

// Find returns the tutor with id and its current state.
func (b Board) Find(id model.ID) (model.Entity, model.ApprovalStatus, bool) {
	for _, status := range []model.ApprovalStatus{model.StatusPending, model.StatusApproved, model.StatusRejected} {
		for _, t := range b.List(status) {
			if t.ID == id {
				return t, status, true
			}
		}
	}
	return model.Entity{}, "", false
}

// Len returns the number of tutors on the board.
func (b Board) Len() int {
	return len(b.Pending) + len(b.Approved) + len(b.Rejected)
}

// Apply moves the tutor to the list matching outcome and returns the new
// Board. The tutor leaves every other list, so applying the same outcome
// again changes nothing. Unknown ids leave the board as it was.
func (b Board) Apply(outcome Outcome) Board {
	t, _, ok := b.Find(outcome.ID)
	if !ok {
		return b
	}
	if outcome.Tutor != nil {
		t = *outcome.Tutor
		t.ID = outcome.ID
	}
	t.IsApproved = outcome.Status == model.StatusApproved
	t.IsRejected = outcome.Status == model.StatusRejected

	without := func(list []model.Entity) []model.Entity {
		return slices.DeleteFunc(slices.Clone(list), func(e model.Entity) bool { return e.ID == outcome.ID })
	}
	next := Board{
		Pending:  without(b.Pending),
		Approved: without(b.Approved),
		Rejected: without(b.Rejected),
	}
	next.add(t)
	return next
}
