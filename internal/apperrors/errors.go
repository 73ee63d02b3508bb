// Package apperrors defines the failure taxonomy shared by the service
// layer and the API boundary. The service returns these typed failures;
// the handlers map each kind to one stable status/error-code pair.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("insufficient permission")
	ErrStorage      = errors.New("storage error")
)

// ValidationError marks caller mistakes detected at write time, such as an
// assignee email that resolves to no user.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// Storage wraps a repository failure so callers can match it with
// errors.Is(err, ErrStorage) without caring about the driver error.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
