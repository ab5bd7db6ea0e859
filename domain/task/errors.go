package task

import (
	"errors"

	"github.com/example/task-manager/domain"
)

var (
	// ErrNotFound is returned when no task exists with the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden is returned when the task exists but belongs to another user.
	ErrForbidden = errors.New("not authorized to access this task")
	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable is returned when the persistence layer fails.
	ErrStoreUnavailable = errors.New("task store unavailable")
)

// RestoreError maps a task error received from another module back onto the
// matching sentinel so errors.Is keeps working.
func RestoreError(err error) error {
	return domain.RestoreError(err, ErrNotFound, ErrForbidden, ErrValidation, ErrStoreUnavailable)
}
