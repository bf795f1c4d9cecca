// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPermission is returned when the actor's role or ownership does not
	// permit the operation.
	ErrPermission = errors.New("operation not permitted")
	// ErrAlreadyPublished is returned on a second publish of the same quest.
	ErrAlreadyPublished = errors.New("quest already published")
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFeedbackUnavailable wraps generator failures. Submissions still
	// succeed when it occurs; feedback can be retried later.
	ErrFeedbackUnavailable = errors.New("feedback generator unavailable")
)

// ValidationError describes malformed input. Field names the offending
// input (for uploads, the file name).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
