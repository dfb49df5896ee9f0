// Package modal holds the state machine behind the assignment picker.
//
// The machine is a pure reducer: Reduce takes a State and an Event and
// returns the next State without touching its input, so every transition can
// be tested without a terminal. Side effects (the writes and the refresh) are
// driven by the caller when it observes the Saving and Closed phases.
//
//	Closed -> Viewing(anchor) -> Editing(selection) -> Saving -> Closed
//	                                   ^                   |
//	                                   +---- SaveFailed ---+
package modal

import (
	"slices"

	"github.com/dhanwis/tutoradmin/internal/assign"
	"github.com/dhanwis/tutoradmin/internal/model"
)

// Phase is the coarse state of the picker.
type Phase int

const (
	Closed Phase = iota
	Viewing
	Editing
	Saving
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// Notices shown alongside the state.
const (
	NoticeBusy  = "A save is already in progress."
	NoticeSaved = "Assignments updated successfully."
)

// State is an immutable snapshot of the picker. Selection is sorted and
// only meaningful while Editing or Saving.
type State struct {
	Phase     Phase
	Direction assign.Direction
	Anchor    model.Entity
	Selection []model.ID
	Err       error
	Notice    string
	// RefreshRequested is set on the transition to Closed after a successful
	// save; the caller re-fetches the collections and opens a fresh state.
	RefreshRequested bool
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Open shows the anchor's current assignments.
type Open struct {
	Anchor    model.Entity
	Direction assign.Direction
}

// BeginEdit starts editing from the anchor's current assignments.
type BeginEdit struct{}

// Toggle flips one counterpart in or out of the selection.
type Toggle struct{ ID model.ID }

// Cancel discards the selection and closes the picker. The last save error,
// if any, is kept on the closed state.
type Cancel struct{}

// Save commits the selection.
type Save struct{}

// SaveSucceeded reports that every write was applied.
type SaveSucceeded struct{}

// SaveFailed reports that a write failed. Anchor, when set, is the anchor as
// re-fetched after some writes were applied; it replaces the stale one so a
// retry only sends what is still missing.
type SaveFailed struct {
	Err    error
	Anchor *model.Entity
}

// Close dismisses the picker.
type Close struct{}

func (Open) isEvent()          {}
func (BeginEdit) isEvent()     {}
func (Toggle) isEvent()        {}
func (Cancel) isEvent()        {}
func (Save) isEvent()          {}
func (SaveSucceeded) isEvent() {}
func (SaveFailed) isEvent()    {}
func (Close) isEvent()         {}

// Reduce returns the state that follows s after e. Events that do not apply
// to the current phase leave the state unchanged; while Saving, any event
// that would abandon or restart the save only sets NoticeBusy.
func Reduce(s State, e Event) State {
	if s.Phase == Saving {
		return reduceSaving(s, e)
	}

	switch e := e.(type) {
	case Open:
		return State{Phase: Viewing, Direction: e.Direction, Anchor: e.Anchor}

	case BeginEdit:
		if s.Phase != Viewing {
			return s
		}
		next := s.clone()
		next.Phase = Editing
		next.Selection = s.Original().Sorted()
		next.Err = nil
		next.Notice = ""
		return next

	case Toggle:
		if s.Phase != Editing {
			return s
		}
		next := s.clone()
		next.Notice = ""
		if i, found := slices.BinarySearch(next.Selection, e.ID); found {
			next.Selection = slices.Delete(next.Selection, i, i+1)
		} else {
			next.Selection = slices.Insert(next.Selection, i, e.ID)
		}
		return next

	case Save:
		if s.Phase != Editing {
			return s
		}
		next := s.clone()
		next.Phase = Saving
		next.Err = nil
		next.Notice = ""
		return next

	case Cancel, Close:
		if s.Phase == Closed {
			return s
		}
		return State{Phase: Closed, Err: s.Err}

	default:
		return s
	}
}

func reduceSaving(s State, e Event) State {
	switch e := e.(type) {
	case SaveSucceeded:
		return State{Phase: Closed, Notice: NoticeSaved, RefreshRequested: true}

	case SaveFailed:
		next := s.clone()
		next.Phase = Editing
		next.Err = e.Err
		if e.Anchor != nil {
			next.Anchor = *e.Anchor
		}
		return next

	case Save, Cancel, Close, Open:
		next := s.clone()
		next.Notice = NoticeBusy
		return next

	default:
		return s
	}
}

func (s State) clone() State {
	s.Selection = slices.Clone(s.Selection)
	return s
}

// Original returns the anchor's assignments as last fetched.
func (s State) Original() assign.IDSet {
	return assign.NewIDSet(s.Anchor.AssignedIDs(s.Direction.Counterpart())...)
}

// Selected returns the in-progress selection as a set.
func (s State) Selected() assign.IDSet {
	return assign.NewIDSet(s.Selection...)
}

// IsSelected reports whether id is in the selection.
func (s State) IsSelected(id model.ID) bool {
	_, found := slices.BinarySearch(s.Selection, id)
	return found
}

// Plan returns the writes a save would issue from this state.
func (s State) Plan() assign.Plan {
	return assign.Diff(s.Original(), s.Selected())
}

// Dirty reports whether saving would change anything.
func (s State) Dirty() bool {
	return !s.Plan().Empty()
}
