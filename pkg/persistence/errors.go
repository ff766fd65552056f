package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrScheduleNotFound indicates no schedule is stored under the given name.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrInvalidScheduleName indicates a name that cannot be used as a storage key.
	ErrInvalidScheduleName = errors.New("invalid schedule name")
)

// ScheduleError wraps schedule storage errors with additional context.
type ScheduleError struct {
	Op   string // Operation being performed (e.g., "ScheduleByName", "Save", "Delete")
	Name string // Schedule name
	Err  error  // Underlying error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%s operation failed for schedule %s: %v", e.Op, e.Name, e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for schedule errors.
func (e *ScheduleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewScheduleError creates a new schedule error with context.
func NewScheduleError(op, name string, err error) *ScheduleError {
	return &ScheduleError{
		Op:   op,
		Name: name,
		Err:  err,
	}
}

// IsScheduleNotFound checks if an error indicates a schedule was not found.
func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}

// IsInvalidScheduleName checks if an error indicates an unusable schedule name.
func IsInvalidScheduleName(err error) bool {
	return errors.Is(err, ErrInvalidScheduleName)
}
