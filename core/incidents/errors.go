package incidents

import (
	"errors"
	"fmt"
)

var (
	// ErrIncidentNotFound marks an unknown incident id.
	ErrIncidentNotFound = errors.New("incident not found")
	// ErrUserNotFound marks an acting user the directory does not know.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotAuthorized marks an acting role without the manage permission.
	ErrNotAuthorized = errors.New("role may not manage incidents")
	// ErrNotEditable marks an edit attempted outside the pending state.
	ErrNotEditable = errors.New("incident is editable only while pending")
)

// ValidationError rejects malformed or missing input before any state is
// touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransitionError rejects a status change the transition table does not
// allow.
type TransitionError struct {
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status transition %s -> %s not allowed", e.From, e.To)
}
