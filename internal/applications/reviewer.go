package applications

import (
	"context"
	"fmt"
	"sync"

	"github.com/dhanwis/tutoradmin/internal/api"
	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/logging"
	"github.com/dhanwis/tutoradmin/internal/model"
)

// ReviewAPI is the write side used to review applications.
type ReviewAPI interface {
	Review(ctx context.Context, id model.ID, decision model.ReviewDecision, reason string) (api.ReviewResult, error)
}

// Outcome is the state a review left a tutor in.
type Outcome struct {
	ID     model.ID
	Status model.ApprovalStatus
	// Tutor is the updated record when the server sent one.
	Tutor *model.Entity
}

// Reviewer submits reviews, one at a time per tutor.
type Reviewer struct {
	api    ReviewAPI
	logger *logging.Logger

	mu       sync.Mutex
	inFlight map[model.ID]struct{}
}

// NewReviewer creates a Reviewer.
func NewReviewer(reviewAPI ReviewAPI, logger *logging.Logger) *Reviewer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Reviewer{
		api:      reviewAPI,
		logger:   logger,
		inFlight: make(map[model.ID]struct{}),
	}
}

// Review approves or rejects tutor id. A second review of the same tutor
// while the first is outstanding fails with errors.ErrBusy.
func (r *Reviewer) Review(ctx context.Context, id model.ID, decision model.ReviewDecision, reason string) (Outcome, error) {
	r.mu.Lock()
	if _, busy := r.inFlight[id]; busy {
		r.mu.Unlock()
		return Outcome{}, fmt.Errorf("review tutor %d: %w", id, errors.ErrBusy)
	}
	r.inFlight[id] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, id)
		r.mu.Unlock()
	}()

	logger := r.logger.WithAnchor(string(model.KindTutor), int(id))
	res, err := r.api.Review(ctx, id, decision, reason)
	if err != nil {
		logger.Error("review failed", "decision", string(decision), "error", err.Error())
		return Outcome{}, err
	}

	outcome := Outcome{ID: id, Status: res.Status(), Tutor: res.Tutor}
	logger.Info("tutor reviewed", "status", string(outcome.Status))
	return outcome, nil
}
