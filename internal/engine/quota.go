package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts executed turns and enforces a maximum.
//
// A cyclic graph whose feedback edges never settle keeps the scheduler
// busy forever. The mandatory delay keeps that from overflowing the stack,
// but only a quota turns it into a reportable error. A limit of zero
// disables enforcement.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates an enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates it against the limit.
// Returns *StepsExceededError once the limit is exceeded.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset sets the step counter back to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit (0 = unlimited).
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when the scheduler runs more turns than
// its quota allows. The offending task is not executed.
type StepsExceededError struct {
	Steps int // Number of steps attempted
	Limit int // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("scheduler exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
