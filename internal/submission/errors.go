package submission

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the lesson or the user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence wraps failures of the atomic write. Nothing was stored,
	// so the request is safe to retry.
	ErrPersistence = errors.New("persistence failure")

	// errAttemptExists signals a lost race on the attempt id inside the
	// write transaction. It never leaves the package.
	errAttemptExists = errors.New("attempt already recorded")
)

// ValidationError reports a malformed submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
