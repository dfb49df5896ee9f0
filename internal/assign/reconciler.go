package assign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/logging"
	"github.com/dhanwis/tutoradmin/internal/model"
)

// Direction says which side of the relation is being edited.
type Direction int

const (
	// TutorsForStudent edits the tutors linked to one student.
	TutorsForStudent Direction = iota
	// StudentsForTutor edits the students linked to one tutor.
	StudentsForTutor
)

// Anchor returns the kind of the record whose links are edited.
func (d Direction) Anchor() model.Kind {
	if d == StudentsForTutor {
		return model.KindTutor
	}
	return model.KindStudent
}

// Counterpart returns the kind of the records being linked.
func (d Direction) Counterpart() model.Kind {
	return d.Anchor().Counterpart()
}

func (d Direction) String() string {
	return d.Counterpart().Plural() + "-for-" + string(d.Anchor())
}

// Writer submits one assign or unassign request to the admin API.
type Writer interface {
	Manage(ctx context.Context, anchor model.Kind, anchorID model.ID, action model.AssignAction, ids []model.ID) error
}

// Refresher re-fetches the collections after a save that applied at least
// one write.
type Refresher func(ctx context.Context) error

// Result describes a finished save.
type Result struct {
	Plan Plan
	// Requests is the number of writes that were sent.
	Requests int
	// Applied lists the writes the server accepted, in order.
	Applied []model.AssignAction
	// RefreshErr is set when some writes were applied but the re-fetch failed.
	RefreshErr error
	Duration   time.Duration
}

type flightKey struct {
	dir Direction
	id  model.ID
}

// Reconciler turns edited selections into assign/unassign writes.
// It is safe for concurrent use; only one save per anchor runs at a time.
type Reconciler struct {
	writer  Writer
	refresh Refresher
	logger  *logging.Logger

	mu       sync.Mutex
	inFlight map[flightKey]struct{}
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRefresher sets the function called after a save that changed something.
func WithRefresher(fn Refresher) Option {
	return func(r *Reconciler) {
		r.refresh = fn
	}
}

// WithLogger sets the logger used for save events.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a Reconciler that writes through w.
func New(w Writer, opts ...Option) *Reconciler {
	r := &Reconciler{
		writer:   w,
		logger:   logging.NopLogger(),
		inFlight: make(map[flightKey]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Busy reports whether a save for the anchor is outstanding.
func (r *Reconciler) Busy(dir Direction, anchorID model.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[flightKey{dir, anchorID}]
	return ok
}

func (r *Reconciler) acquire(key flightKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inFlight[key]; ok {
		return false
	}
	r.inFlight[key] = struct{}{}
	return true
}

func (r *Reconciler) release(key flightKey) {
	r.mu.Lock()
	delete(r.inFlight, key)
	r.mu.Unlock()
}

// Save commits newIDs as the counterparts of anchorID, given that oldIDs is
// what the server last reported. An empty plan sends nothing and skips the
// refresh. The assign write goes first; if it fails the unassign is not
// attempted. If the unassign fails after the assign succeeded the returned
// error matches errors.ErrPartialApply.
func (r *Reconciler) Save(ctx context.Context, dir Direction, anchorID model.ID, oldIDs, newIDs IDSet) (Result, error) {
	plan := Diff(oldIDs, newIDs)
	result := Result{Plan: plan}
	if plan.Empty() {
		return result, nil
	}

	key := flightKey{dir, anchorID}
	if !r.acquire(key) {
		return result, fmt.Errorf("save %s %d: %w", dir, anchorID, errors.ErrBusy)
	}
	defer r.release(key)

	start := time.Now()
	logger := r.logger.WithAnchor(string(dir.Anchor()), int(anchorID)).With("direction", dir.String())
	logger.Info("saving assignments",
		"assign", len(plan.ToAssign),
		"unassign", len(plan.ToUnassign))

	steps := []struct {
		action model.AssignAction
		ids    []model.ID
	}{
		{model.ActionAssign, plan.ToAssign},
		{model.ActionUnassign, plan.ToUnassign},
	}
	for _, step := range steps {
		if len(step.ids) == 0 {
			continue
		}
		result.Requests++
		if err := r.writer.Manage(ctx, dir.Anchor(), anchorID, step.action, step.ids); err != nil {
			result.Duration = time.Since(start)
			applied := make([]string, 0, len(result.Applied))
			for _, a := range result.Applied {
				applied = append(applied, string(a))
			}
			logger.Error("assignment write failed",
				"action", string(step.action),
				"applied", applied,
				"error", err.Error())
			// Earlier writes landed, so the cached collections are stale.
			if len(result.Applied) > 0 {
				r.refreshAfter(ctx, logger, &result)
			}
			return result, errors.NewAssignmentError(string(step.action)+" failed", err).
				WithAnchor(string(dir.Anchor()), int(anchorID)).
				WithApplied(applied...).
				WithRetryable(errors.IsRetryable(err))
		}
		result.Applied = append(result.Applied, step.action)
	}

	r.refreshAfter(ctx, logger, &result)

	result.Duration = time.Since(start)
	logger.Info("assignments saved",
		"requests", result.Requests,
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

func (r *Reconciler) refreshAfter(ctx context.Context, logger *logging.Logger, result *Result) {
	if r.refresh == nil {
		return
	}
	if err := r.refresh(ctx); err != nil {
		logger.Warn("refresh after save failed", "error", err.Error())
		result.RefreshErr = err
	}
}
