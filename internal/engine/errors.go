package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by the scheduler.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates the scheduler exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeStopped indicates work was offered to a stopped scheduler.
	ErrCodeStopped RuntimeErrorCode = "SCHEDULER_STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newStoppedError creates a RuntimeError for a rejected submission.
func newStoppedError(pending int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStopped,
		Message: "scheduler is stopped and no longer accepts tasks",
		Details: map[string]string{
			"pending": fmt.Sprintf("%d", pending),
		},
	}
}

// IsStoppedError returns true if the error reports a stopped scheduler.
func IsStoppedError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}
