package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrInstanceNotFound indicates no instance exists for the given id.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrAnalysisNotFound indicates no stored analysis exists for the
	// given execution id.
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// StoreError wraps storage failures with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g. "GetByID", "Save")
	Key string // Instance or execution id if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsInstanceNotFound checks if an error indicates a missing instance.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsAnalysisNotFound checks if an error indicates a missing analysis entry.
func IsAnalysisNotFound(err error) bool {
	return errors.Is(err, ErrAnalysisNotFound)
}
