// Package errors provides centralized error definitions and error handling utilities
// for tutoradmin. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures at a particular boundary:
//   - APIError: a non-2xx response or transport failure talking to the admin API
//   - DecodeError: a response body that does not have the expected shape
//   - AssignmentError: a tutor/student assignment save that did not fully apply
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
//	err := errors.NewAPIError("GET", "/admin/students/", 502).WithRequestID(id)
//
//	if errors.Is(err, errors.ErrUnauthorized) { ... }
//
//	var apiErr *errors.APIError
//	if errors.As(err, &apiErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// All types support the standard library's errors.Is and errors.As through
// Unwrap and Is implementations.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrNotLoggedIn indicates that no API token is stored locally.
	ErrNotLoggedIn = New("not logged in")
	// ErrUnauthorized indicates that the API rejected the stored token.
	ErrUnauthorized = New("unauthorized")
)

// Assignment-related sentinel errors
var (
	// ErrBusy indicates that a save for the same anchor is already in flight.
	ErrBusy = New("save already in progress")
	// ErrPartialApply indicates that only one of the two assignment writes succeeded.
	ErrPartialApply = New("assignment partially applied")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrMalformedResponse indicates that a response body could not be decoded.
	ErrMalformedResponse = New("malformed response")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// AdminError is the base interface for all tutoradmin errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type AdminError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// APIError represents a failed call to the admin API. Status is zero when the
// request never produced a response (network/transport failure).
//
// Example:
//
//	err := errors.NewAPIError("POST", "/admin/manage-tutors/", 400).WithMessage("invalid tutor id")
//	fmt.Println(err) // "api error [POST /admin/manage-tutors/, status=400]: invalid tutor id"
type APIError struct {
	baseError
	Method    string
	Path      string
	Status    int
	RequestID string

	// ServerMessage is the message the API sent in the error body, if any.
	ServerMessage string
}

// NewAPIError creates a new APIError for a response with the given status.
// 5xx, 429 and transport failures (status 0) are retryable.
func NewAPIError(method, path string, status int) *APIError {
	msg := http.StatusText(status)
	if status == 0 {
		msg = "request failed"
	}
	return &APIError{
		baseError: baseError{
			message:   strings.ToLower(msg),
			retryable: status == 0 || status == http.StatusTooManyRequests || status >= 500,
		},
		Method: method,
		Path:   path,
		Status: status,
	}
}

// WithMessage replaces the default status text with a server-provided message.
func (e *APIError) WithMessage(msg string) *APIError {
	if msg != "" {
		e.message = msg
		e.ServerMessage = msg
	}
	return e
}

// WithRequestID records the request ID that was sent with the failing call.
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithCause adds a cause to the error.
func (e *APIError) WithCause(cause error) *APIError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	parts := []string{strings.TrimSpace(e.Method + " " + e.Path)}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	prefix := fmt.Sprintf("api error [%s]", strings.Join(parts, ", "))

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *APIError) Is(target error) bool {
	if _, ok := target.(*APIError); ok {
		return true
	}
	if target == ErrUnauthorized {
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return e.baseError.Is(target)
}

// DecodeError represents a response body that could not be decoded into the
// expected shape, e.g. an object where a list was required.
//
// Example:
//
//	err := errors.NewDecodeError("/admin/students/", "expected a JSON array")
type DecodeError struct {
	baseError
	Path string
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(path, message string) *DecodeError {
	return &DecodeError{
		baseError: baseError{
			message:   message,
			retryable: false,
		},
		Path: path,
	}
}

// WithCause adds a cause to the error.
func (e *DecodeError) WithCause(cause error) *DecodeError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *DecodeError) Error() string {
	prefix := "decode error"
	if e.Path != "" {
		prefix = fmt.Sprintf("decode error [%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DecodeError) Is(target error) bool {
	if _, ok := target.(*DecodeError); ok {
		return true
	}
	if target == ErrMalformedResponse {
		return true
	}
	return e.baseError.Is(target)
}

// AssignmentError represents an assignment save that failed after zero or
// more of its writes were applied. The writes are independent, so nothing is
// rolled back; Applied lists the actions that did reach the server.
//
// Example:
//
//	err := errors.NewAssignmentError("unassign failed", cause).WithAnchor("tutor", 7).WithApplied("assign")
//	fmt.Println(err) // "assignment error [tutor=7, applied=assign]: unassign failed: ..."
type AssignmentError struct {
	baseError
	AnchorKind string
	AnchorID   int
	Applied    []string
}

// NewAssignmentError creates a new AssignmentError.
func NewAssignmentError(message string, cause error) *AssignmentError {
	return &AssignmentError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			retryable: false,
		},
	}
}

// WithAnchor adds the anchor entity to the error context.
func (e *AssignmentError) WithAnchor(kind string, id int) *AssignmentError {
	e.AnchorKind = kind
	e.AnchorID = id
	return e
}

// WithApplied records the actions that were applied before the failure.
func (e *AssignmentError) WithApplied(actions ...string) *AssignmentError {
	e.Applied = append(e.Applied, actions...)
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *AssignmentError) WithRetryable(r bool) *AssignmentError {
	e.retryable = r
	return e
}

// Partial reports whether some, but not all, writes were applied.
func (e *AssignmentError) Partial() bool {
	return len(e.Applied) > 0
}

// Error returns the formatted error message.
func (e *AssignmentError) Error() string {
	var parts []string
	if e.AnchorKind != "" {
		parts = append(parts, fmt.Sprintf("%s=%d", e.AnchorKind, e.AnchorID))
	}
	if len(e.Applied) > 0 {
		parts = append(parts, "applied="+strings.Join(e.Applied, "+"))
	}

	prefix := "assignment error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("assignment error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *AssignmentError) Is(target error) bool {
	if _, ok := target.(*AssignmentError); ok {
		return true
	}
	if target == ErrPartialApply {
		return e.Partial()
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("tutor", "42")
//	fmt.Println(err) // "tutor '42' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:   fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			retryable: false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("category name cannot be empty")
//	err = err.WithField("name").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:   message,
			retryable: false,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("GET /admin/students/", 15*time.Second)
//	fmt.Println(err) // "timeout error: GET /admin/students/ (timeout: 15s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Nothing in tutoradmin retries automatically;
// this only decides whether the user is told that trying again may help.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var adminErr AdminError
	if As(err, &adminErr) {
		return adminErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// UserMessage returns the text shown to the admin when action fails. All
// API failure kinds collapse to the same generic sentence; the only additions
// are the hints for a missing login, an in-flight save, a partial apply and a
// transient failure, which each change what the admin should do next. Input
// rejected locally is echoed back so it can be corrected.
func UserMessage(action string, err error) string {
	var invalid *ValidationError
	var missing *NotFoundError
	switch {
	case err == nil:
		return ""
	case Is(err, ErrPartialApply):
		return fmt.Sprintf("Failed to %s. Some changes were applied; reload and check before retrying.", action)
	case As(err, &invalid):
		return fmt.Sprintf("Cannot %s: %s.", action, invalid.message)
	case As(err, &missing):
		return fmt.Sprintf("Cannot %s: %s '%s' not found.", action, missing.ResourceType, missing.ResourceID)
	case Is(err, ErrNotLoggedIn), Is(err, ErrUnauthorized):
		return fmt.Sprintf("Failed to %s. Please log in again.", action)
	case Is(err, ErrBusy):
		return fmt.Sprintf("Cannot %s: a save is already in progress.", action)
	case IsRetryable(err):
		return fmt.Sprintf("Failed to %s. Please try again.", action)
	default:
		return fmt.Sprintf("Failed to %s.", action)
	}
}
