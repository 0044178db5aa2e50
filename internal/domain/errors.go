package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDefinitionNotFound's text is what a run records when its workflow is gone.
	ErrDefinitionNotFound = errors.New("Workflow not found")
	ErrPreconditionDenied = errors.New("precondition denied")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidRequest     = errors.New("invalid request")

	ErrRunNotFound      = errors.New("run not found")
	ErrRunFinished      = errors.New("run already finished")
	ErrChannelNotFound  = errors.New("Channel not found")
	ErrUserNotFound     = errors.New("User not found")
	ErrDuplicateHandler = errors.New("action handler already registered")
)

// UnsupportedActionKindError is returned by the dispatcher for a type with
// no registered handler.
type UnsupportedActionKindError struct {
	Kind string
}

func (e *UnsupportedActionKindError) Error() string {
	return fmt.Sprintf("Unsupported action type: %s", e.Kind)
}

// ActionExecutionError wraps a failed side effect of a known action kind.
// Message is recorded verbatim on the run.
type ActionExecutionError struct {
	Kind    string
	Message string
	Err     error
}

func (e *ActionExecutionError) Error() string {
	return e.Message
}

func (e *ActionExecutionError) Unwrap() error {
	return e.Err
}

func NewActionError(kind string, err error) *ActionExecutionError {
	return &ActionExecutionError{Kind: kind, Message: err.Error(), Err: err}
}

// Denied wraps ErrPreconditionDenied with a reason for the caller.
func Denied(reason string) error {
	return fmt.Errorf("%w: %s", ErrPreconditionDenied, reason)
}

func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}
