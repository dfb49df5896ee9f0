package assign

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/model"
)

type call struct {
	anchor   model.Kind
	anchorID model.ID
	action   model.AssignAction
	ids      []model.ID
}

type fakeWriter struct {
	mu      sync.Mutex
	calls   []call
	failOn  model.AssignAction
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (w *fakeWriter) Manage(ctx context.Context, anchor model.Kind, anchorID model.ID, action model.AssignAction, ids []model.ID) error {
	if w.entered != nil {
		w.entered <- struct{}{}
	}
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call{anchor, anchorID, action, slices.Clone(ids)})
	if action == w.failOn {
		return w.err
	}
	return nil
}

func (w *fakeWriter) recorded() []call {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.calls)
}

func TestDirection(t *testing.T) {
	if got := TutorsForStudent.Anchor(); got != model.KindStudent {
		t.Errorf("TutorsForStudent.Anchor() = %q", got)
	}
	if got := StudentsForTutor.Counterpart(); got != model.KindStudent {
		t.Errorf("StudentsForTutor.Counterpart() = %q", got)
	}
	if got := TutorsForStudent.String(); got != "tutors-for-student" {
		t.Errorf("String() = %q", got)
	}
}

func TestReconciler_Save(t *testing.T) {
	t.Run("assign before unassign", func(t *testing.T) {
		w := &fakeWriter{}
		refreshed := 0
		r := New(w, WithRefresher(func(context.Context) error {
			refreshed++
			return nil
		}))

		res, err := r.Save(context.Background(), StudentsForTutor, 7, set(1, 2, 3), set(2, 3, 4))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		calls := w.recorded()
		if len(calls) != 2 {
			t.Fatalf("got %d calls, want 2", len(calls))
		}
		if calls[0].action != model.ActionAssign || !slices.Equal(calls[0].ids, ids(4)) {
			t.Errorf("first call = %+v, want assign [4]", calls[0])
		}
		if calls[1].action != model.ActionUnassign || !slices.Equal(calls[1].ids, ids(1)) {
			t.Errorf("second call = %+v, want unassign [1]", calls[1])
		}
		for _, c := range calls {
			if c.anchor != model.KindTutor || c.anchorID != 7 {
				t.Errorf("call anchor = %s %d, want tutor 7", c.anchor, c.anchorID)
			}
		}
		if res.Requests != 2 {
			t.Errorf("Requests = %d, want 2", res.Requests)
		}
		if refreshed != 1 {
			t.Errorf("refreshed %d times, want 1", refreshed)
		}
	})

	t.Run("single assign", func(t *testing.T) {
		w := &fakeWriter{}
		r := New(w)

		res, err := r.Save(context.Background(), TutorsForStudent, 3, set(), set(5))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		calls := w.recorded()
		if len(calls) != 1 {
			t.Fatalf("got %d calls, want 1", len(calls))
		}
		if calls[0].action != model.ActionAssign || !slices.Equal(calls[0].ids, ids(5)) {
			t.Errorf("call = %+v, want assign [5]", calls[0])
		}
		if calls[0].anchor != model.KindStudent {
			t.Errorf("anchor = %s, want student", calls[0].anchor)
		}
		if !slices.Equal(res.Applied, []model.AssignAction{model.ActionAssign}) {
			t.Errorf("Applied = %v", res.Applied)
		}
	})

	t.Run("unchanged selection sends nothing", func(t *testing.T) {
		w := &fakeWriter{}
		refreshed := false
		r := New(w, WithRefresher(func(context.Context) error {
			refreshed = true
			return nil
		}))

		res, err := r.Save(context.Background(), TutorsForStudent, 3, set(1, 2), set(2, 1))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if n := len(w.recorded()); n != 0 {
			t.Errorf("got %d calls, want 0", n)
		}
		if res.Requests != 0 || refreshed {
			t.Errorf("Requests = %d, refreshed = %v; want no activity", res.Requests, refreshed)
		}
	})

	t.Run("second save after success is a no-op", func(t *testing.T) {
		w := &fakeWriter{}
		r := New(w)

		if _, err := r.Save(context.Background(), StudentsForTutor, 1, set(1), set(2)); err != nil {
			t.Fatalf("first Save() error = %v", err)
		}
		// The refreshed relation now equals the selection.
		if _, err := r.Save(context.Background(), StudentsForTutor, 1, set(2), set(2)); err != nil {
			t.Fatalf("second Save() error = %v", err)
		}
		if n := len(w.recorded()); n != 2 {
			t.Errorf("got %d calls, want 2", n)
		}
	})
}

func TestReconciler_Save_Failures(t *testing.T) {
	cause := errors.NewAPIError("POST", "/admin/manage-students/", 500)

	t.Run("assign fails", func(t *testing.T) {
		w := &fakeWriter{failOn: model.ActionAssign, err: cause}
		refreshed := false
		r := New(w, WithRefresher(func(context.Context) error {
			refreshed = true
			return nil
		}))

		_, err := r.Save(context.Background(), StudentsForTutor, 7, set(1), set(2))
		if err == nil {
			t.Fatal("Save() error = nil, want error")
		}
		if errors.Is(err, errors.ErrPartialApply) {
			t.Error("error matches ErrPartialApply, want full failure")
		}
		if !errors.IsRetryable(err) {
			t.Error("IsRetryable() = false for a 500 cause")
		}
		if n := len(w.recorded()); n != 1 {
			t.Errorf("got %d calls, want 1 (unassign skipped)", n)
		}
		if refreshed {
			t.Error("refresh ran after a failed save")
		}
	})

	t.Run("unassign fails after assign", func(t *testing.T) {
		w := &fakeWriter{failOn: model.ActionUnassign, err: cause}
		r := New(w)

		res, err := r.Save(context.Background(), StudentsForTutor, 7, set(1), set(2))
		if !errors.Is(err, errors.ErrPartialApply) {
			t.Fatalf("Save() error = %v, want ErrPartialApply", err)
		}
		var assignErr *errors.AssignmentError
		if !errors.As(err, &assignErr) {
			t.Fatal("error is not an AssignmentError")
		}
		if !slices.Equal(assignErr.Applied, []string{"assign"}) {
			t.Errorf("Applied = %v, want [assign]", assignErr.Applied)
		}
		if assignErr.AnchorKind != "tutor" || assignErr.AnchorID != 7 {
			t.Errorf("anchor = %s %d", assignErr.AnchorKind, assignErr.AnchorID)
		}
		if res.Requests != 2 {
			t.Errorf("Requests = %d, want 2", res.Requests)
		}
		if r.Busy(StudentsForTutor, 7) {
			t.Error("anchor still busy after a failed save")
		}
	})

	t.Run("partial apply refreshes and retry sends the remainder", func(t *testing.T) {
		w := &fakeWriter{failOn: model.ActionUnassign, err: cause}
		refreshes := 0
		r := New(w, WithRefresher(func(context.Context) error {
			refreshes++
			return nil
		}))

		res, err := r.Save(context.Background(), StudentsForTutor, 7, set(1), set(2))
		if !errors.Is(err, errors.ErrPartialApply) {
			t.Fatalf("Save() error = %v, want ErrPartialApply", err)
		}
		if refreshes != 1 {
			t.Fatalf("refreshes = %d after a partial apply, want 1", refreshes)
		}
		if !slices.Equal(res.Applied, []model.AssignAction{model.ActionAssign}) {
			t.Errorf("Applied = %v, want [assign]", res.Applied)
		}

		// The refreshed anchor now carries both students.
		w.mu.Lock()
		w.failOn = ""
		w.mu.Unlock()
		if _, err := r.Save(context.Background(), StudentsForTutor, 7, set(1, 2), set(2)); err != nil {
			t.Fatalf("retry Save() error = %v", err)
		}

		calls := w.recorded()
		if len(calls) != 3 {
			t.Fatalf("got %d calls, want 3", len(calls))
		}
		retry := calls[2]
		if retry.action != model.ActionUnassign || !slices.Equal(retry.ids, []model.ID{1}) {
			t.Errorf("retry sent %s %v, want unassign [1]", retry.action, retry.ids)
		}
		if refreshes != 2 {
			t.Errorf("refreshes = %d, want 2", refreshes)
		}
	})

	t.Run("refresh fails after writes", func(t *testing.T) {
		w := &fakeWriter{}
		r := New(w, WithRefresher(func(context.Context) error {
			return fmt.Errorf("network down")
		}))

		res, err := r.Save(context.Background(), StudentsForTutor, 7, set(), set(2))
		if err != nil {
			t.Fatalf("Save() error = %v, want nil", err)
		}
		if res.RefreshErr == nil {
			t.Error("RefreshErr = nil, want error")
		}
	})
}

func TestReconciler_SingleFlight(t *testing.T) {
	w := &fakeWriter{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	r := New(w)

	done := make(chan error, 1)
	go func() {
		_, err := r.Save(context.Background(), StudentsForTutor, 7, set(), set(1))
		done <- err
	}()
	<-w.entered

	if !r.Busy(StudentsForTutor, 7) {
		t.Error("Busy() = false while a save is outstanding")
	}

	_, err := r.Save(context.Background(), StudentsForTutor, 7, set(), set(1, 2))
	if !errors.Is(err, errors.ErrBusy) {
		t.Errorf("concurrent Save() error = %v, want ErrBusy", err)
	}

	// Other anchors and the other direction are not blocked.
	if r.Busy(StudentsForTutor, 8) || r.Busy(TutorsForStudent, 7) {
		t.Error("unrelated anchor reported busy")
	}

	close(w.block)
	if err := <-done; err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if n := len(w.recorded()); n != 1 {
		t.Errorf("got %d calls, want 1", n)
	}
	if r.Busy(StudentsForTutor, 7) {
		t.Error("Busy() = true after the save finished")
	}
}
