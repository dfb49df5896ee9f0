package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// APIError Tests
// -----------------------------------------------------------------------------

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "status text",
			err:  NewAPIError("GET", "/admin/students/", 404),
			want: "api error [GET /admin/students/, status=404]: not found",
		},
		{
			name: "server message",
			err:  NewAPIError("POST", "/admin/manage-tutors/", 400).WithMessage("invalid tutor id"),
			want: "api error [POST /admin/manage-tutors/, status=400]: invalid tutor id",
		},
		{
			name: "transport failure",
			err:  NewAPIError("GET", "/admin/tutors/", 0).WithCause(New("connection refused")),
			want: "api error [GET /admin/tutors/]: request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{400, false},
		{401, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := NewAPIError("GET", "/", tt.status)
			if got := err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	unauthorized := NewAPIError("GET", "/admin/students/", 401)
	if !Is(unauthorized, ErrUnauthorized) {
		t.Error("Is(ErrUnauthorized) = false for 401, want true")
	}
	if !Is(NewAPIError("GET", "/", 403), ErrUnauthorized) {
		t.Error("Is(ErrUnauthorized) = false for 403, want true")
	}
	if Is(NewAPIError("GET", "/", 500), ErrUnauthorized) {
		t.Error("Is(ErrUnauthorized) = true for 500, want false")
	}
	if !Is(unauthorized, &APIError{}) {
		t.Error("Is(APIError{}) = false, want true")
	}

	wrapped := fmt.Errorf("load students: %w", unauthorized)
	var apiErr *APIError
	if !As(wrapped, &apiErr) {
		t.Fatal("As(*APIError) = false, want true")
	}
	if apiErr.Status != 401 {
		t.Errorf("Status = %d, want 401", apiErr.Status)
	}
}

// -----------------------------------------------------------------------------
// DecodeError Tests
// -----------------------------------------------------------------------------

func TestDecodeError(t *testing.T) {
	err := NewDecodeError("/admin/students/", "expected a JSON array")

	if got, want := err.Error(), "decode error [/admin/students/]: expected a JSON array"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrMalformedResponse) {
		t.Error("Is(ErrMalformedResponse) = false, want true")
	}
	if IsRetryable(err) {
		t.Error("IsRetryable() = true, want false")
	}
}

// -----------------------------------------------------------------------------
// AssignmentError Tests
// -----------------------------------------------------------------------------

func TestAssignmentError(t *testing.T) {
	cause := NewAPIError("POST", "/admin/manage-students/", 500)

	t.Run("nothing applied", func(t *testing.T) {
		err := NewAssignmentError("assign failed", cause).WithAnchor("tutor", 7)
		if err.Partial() {
			t.Error("Partial() = true, want false")
		}
		if Is(err, ErrPartialApply) {
			t.Error("Is(ErrPartialApply) = true, want false")
		}
		want := "assignment error [tutor=7]: assign failed: api error [POST /admin/manage-students/, status=500]: internal server error"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("assign applied before unassign failed", func(t *testing.T) {
		err := NewAssignmentError("unassign failed", cause).WithAnchor("tutor", 7).WithApplied("assign")
		if !err.Partial() {
			t.Error("Partial() = false, want true")
		}
		if !Is(err, ErrPartialApply) {
			t.Error("Is(ErrPartialApply) = false, want true")
		}
		var apiErr *APIError
		if !As(err, &apiErr) {
			t.Error("As(*APIError) = false, want true")
		}
	})
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("tutor", "42")
	if got, want := err.Error(), "tutor '42' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, &NotFoundError{}) {
		t.Error("Is(NotFoundError{}) = false, want true")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name cannot be empty").WithField("name").WithValue("")
	if got, want := err.Error(), "validation error [field=name, value=]: name cannot be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("GET /admin/students/", 15*time.Second)
	if got, want := err.Error(), "timeout error: GET /admin/students/ (timeout: 15s)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"wrapped server error", fmt.Errorf("load: %w", NewAPIError("GET", "/", 502)), true},
		{"client error", NewAPIError("GET", "/", 400), false},
		{"assignment over a retryable cause", NewAssignmentError("assign failed", nil).WithRetryable(true), true},
		{"assignment", NewAssignmentError("assign failed", nil), false},
		{"bare timeout sentinel", fmt.Errorf("GET /: %w", ErrTimeout), true},
		{"validation", NewValidationError("bad"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"generic api", NewAPIError("POST", "/", 400), "Failed to update assignments."},
		{"timeout", NewTimeoutError("POST /", time.Second), "Failed to update assignments. Please try again."},
		{"server error", NewAPIError("POST", "/", 503), "Failed to update assignments. Please try again."},
		{
			"retryable assignment failure",
			NewAssignmentError("assign failed", NewAPIError("POST", "/", 500)).WithRetryable(true),
			"Failed to update assignments. Please try again.",
		},
		{"unauthorized", NewAPIError("POST", "/", 401), "Failed to update assignments. Please log in again."},
		{"busy", ErrBusy, "Cannot update assignments: a save is already in progress."},
		{
			"partial",
			NewAssignmentError("unassign failed", nil).WithApplied("assign"),
			"Failed to update assignments. Some changes were applied; reload and check before retrying.",
		},
		{
			"invalid input",
			fmt.Errorf("wrapped: %w", NewValidationError("ids must be positive").WithField("ids")),
			"Cannot update assignments: ids must be positive.",
		},
		{"not found", NewNotFoundError("student", "42"), "Cannot update assignments: student '42' not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage("update assignments", tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
