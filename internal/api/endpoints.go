package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/model"
)

// Endpoint paths relative to the base URL.
const (
	PathStudents       = "/admin/students/"
	PathApprovedTutors = "/admin/tutors/approved/"
	PathTutors         = "/admin/tutors/"
	PathManageTutors   = "/admin/manage-tutors/"
	PathManageStudents = "/admin/manage-students/"
	PathLogin          = "/login/"
)

// ReviewPath returns the review endpoint for one user.
func ReviewPath(id model.ID) string {
	return fmt.Sprintf("/admin/review-user/%d/", id)
}

// ManageTutorsBody links or unlinks tutors for one student.
type ManageTutorsBody struct {
	StudentID model.ID           `json:"student_id" validate:"gt=0"`
	TutorIDs  []model.ID         `json:"tutor_ids" validate:"required,min=1,dive,gt=0"`
	Action    model.AssignAction `json:"action" validate:"oneof=assign unassign"`
}

// ManageStudentsBody links or unlinks students for one tutor.
type ManageStudentsBody struct {
	TutorID    model.ID           `json:"tutor_id" validate:"gt=0"`
	StudentIDs []model.ID         `json:"student_ids" validate:"required,min=1,dive,gt=0"`
	Action     model.AssignAction `json:"action" validate:"oneof=assign unassign"`
}

// ReviewBody approves or rejects a tutor application.
type ReviewBody struct {
	Action model.ReviewDecision `json:"action" validate:"oneof=approve reject"`
	Reason string               `json:"reason,omitempty" validate:"max=1000"`
}

// LoginBody is sent to the login endpoint.
type LoginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ReviewResult is the approval state the server reports after a review.
type ReviewResult struct {
	ID         model.ID `json:"id"`
	IsApproved bool     `json:"is_approved"`
	IsRejected bool     `json:"is_rejected"`
	Message    string   `json:"message,omitempty"`
	// Tutor is set when the server echoes the full record.
	Tutor *model.Entity `json:"-"`
}

// Status returns the application state carried by the result.
func (r ReviewResult) Status() model.ApprovalStatus {
	return model.Entity{IsApproved: r.IsApproved, IsRejected: r.IsRejected}.Status()
}

// ListStudents returns every student.
func (c *Client) ListStudents(ctx context.Context) ([]model.Entity, error) {
	return c.list(ctx, PathStudents)
}

// ListApprovedTutors returns the tutors that can be assigned.
func (c *Client) ListApprovedTutors(ctx context.Context) ([]model.Entity, error) {
	return c.list(ctx, PathApprovedTutors)
}

// ListTutors returns every tutor whatever its application state.
func (c *Client) ListTutors(ctx context.Context) ([]model.Entity, error) {
	return c.list(ctx, PathTutors)
}

func (c *Client) list(ctx context.Context, path string) ([]model.Entity, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeList(path, resp.body)
}

// decodeList requires a JSON array of records.
func decodeList(path string, body []byte) ([]model.Entity, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.NewDecodeError(path, fmt.Sprintf("expected a JSON array, got %s", jsonKind(trimmed)))
	}

	var out []model.Entity
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, errors.NewDecodeError(path, "invalid record list").WithCause(err)
	}
	if out == nil {
		out = []model.Entity{}
	}
	return out, nil
}

func jsonKind(b []byte) string {
	if len(b) == 0 {
		return "an empty body"
	}
	switch b[0] {
	case '{':
		return "an object"
	case '"':
		return "a string"
	case 'n':
		return "null"
	case 't', 'f':
		return "a boolean"
	default:
		return "a scalar"
	}
}

// Manage sends one assign or unassign request. The anchor kind picks the
// endpoint: a student anchor edits its tutors, a tutor anchor its students.
func (c *Client) Manage(ctx context.Context, anchor model.Kind, anchorID model.ID, action model.AssignAction, ids []model.ID) error {
	var (
		path string
		body any
	)
	switch anchor {
	case model.KindStudent:
		path = PathManageTutors
		body = ManageTutorsBody{StudentID: anchorID, TutorIDs: ids, Action: action}
	case model.KindTutor:
		path = PathManageStudents
		body = ManageStudentsBody{TutorID: anchorID, StudentIDs: ids, Action: action}
	default:
		return errors.NewValidationError("unknown anchor kind").WithField("anchor").WithValue(anchor)
	}

	_, err := c.do(ctx, request{method: http.MethodPost, path: path, body: body})
	return err
}

// Review approves or rejects a tutor. The reason is sent only when set.
// When the server answers without approval flags the result is inferred
// from the decision.
func (c *Client) Review(ctx context.Context, id model.ID, decision model.ReviewDecision, reason string) (ReviewResult, error) {
	if id <= 0 {
		return ReviewResult{}, errors.NewValidationError("id must be positive").WithField("id").WithValue(id)
	}
	path := ReviewPath(id)
	resp, err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   path,
		body:   ReviewBody{Action: decision, Reason: reason},
	})
	if err != nil {
		return ReviewResult{}, err
	}
	return decodeReview(path, id, decision, resp.body)
}

func decodeReview(path string, id model.ID, decision model.ReviewDecision, body []byte) (ReviewResult, error) {
	inferred := ReviewResult{
		ID:         id,
		IsApproved: decision == model.DecisionApprove,
		IsRejected: decision == model.DecisionReject,
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return inferred, nil
	}

	var raw struct {
		ID         *model.ID     `json:"id"`
		IsApproved *bool         `json:"is_approved"`
		IsRejected *bool         `json:"is_rejected"`
		Message    string        `json:"message"`
		User       *model.Entity `json:"user"`
		Tutor      *model.Entity `json:"tutor"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return ReviewResult{}, errors.NewDecodeError(path, "invalid review response").WithCause(err)
	}

	result := inferred
	result.Message = raw.Message
	record := raw.Tutor
	if record == nil {
		record = raw.User
	}
	if record != nil {
		result.Tutor = record
		result.IsApproved = record.IsApproved
		result.IsRejected = record.IsRejected
	}
	if raw.IsApproved != nil || raw.IsRejected != nil {
		result.IsApproved = raw.IsApproved != nil && *raw.IsApproved
		result.IsRejected = raw.IsRejected != nil && *raw.IsRejected
	}
	if raw.ID != nil && *raw.ID != id {
		return ReviewResult{}, errors.NewDecodeError(path, fmt.Sprintf("response is for user %d, want %d", *raw.ID, id))
	}
	return result, nil
}

// Login exchanges credentials for a token. A rejected login carries the
// server's message when it sends one.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      PathLogin,
		body:      LoginBody{Email: email, Password: password},
		anonymous: true,
	})
	if err != nil {
		var apiErr *errors.APIError
		if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.ServerMessage == "" {
			apiErr.WithMessage("login failed")
		}
		return "", err
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return "", errors.NewDecodeError(PathLogin, "invalid login response").WithCause(err)
	}
	if out.Token == "" {
		return "", errors.NewDecodeError(PathLogin, "response has no token")
	}
	return out.Token, nil
}
