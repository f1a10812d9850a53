package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// UpstreamErrorMessage describes retrieval or model provider failures.
	UpstreamErrorMessage = "upstream dependency failed"
	// InvalidStateMessage describes a conversation state the agent refuses to run.
	InvalidStateMessage = "invalid conversation state"
	// NotFoundMessage describes a missing conversation or resource.
	NotFoundMessage = "not found"
	// TimeoutMessage describes a dependency that did not answer in time.
	TimeoutMessage = "upstream dependency timed out"
)

var (
	// ErrUnknownDecision is returned when a decision label has no handler node.
	// It is a programming error and aborts the invocation.
	ErrUnknownDecision = errors.New("unknown decision label")
	// ErrInvalidState is returned when the agent is invoked with an unusable state.
	ErrInvalidState = errors.New("invalid conversation state")
	// ErrNotFound is returned when the requested conversation does not exist.
	ErrNotFound = errors.New("not found")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// InvalidState reports a rejected conversation state with a 400 status.
func InvalidState(reason string) error {
	return New(fmt.Errorf("%w: %s", ErrInvalidState, reason), http.StatusBadRequest, InvalidStateMessage)
}

// NotFound reports a missing resource with a 404 status.
func NotFound(what string) error {
	return New(fmt.Errorf("%w: %s", ErrNotFound, what), http.StatusNotFound, NotFoundMessage)
}

// WrapUpstream wraps retrieval and generation failures with a 502 status.
func WrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return New(err, http.StatusBadGateway, UpstreamErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when none is set.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that is safe to show to API clients.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
