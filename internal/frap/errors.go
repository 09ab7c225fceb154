package frap

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDriverName is returned when a driver is declared with an
	// empty name.
	ErrInvalidDriverName = errors.New("frap: driver name must not be empty")

	// ErrDuplicateDriver is returned when two drivers share a name.
	ErrDuplicateDriver = errors.New("frap: driver already declared")

	// ErrNilDriver is returned when a driver function is nil.
	ErrNilDriver = errors.New("frap: driver function is nil")

	// ErrUnknownDriver is returned when a handle does not belong to the
	// registry of the run it is used in.
	ErrUnknownDriver = errors.New("frap: driver not declared in this registry")

	// ErrNilMain is returned when Setup or Run is given a nil Main.
	ErrNilMain = errors.New("frap: main is nil")
)

// MainError reports a failure of the single Main invocation. Setup is
// aborted and no proxy is bound.
type MainError struct {
	// Err is the error Main returned, or nil if it panicked.
	Err error

	// Panic is the recovered panic value, if any.
	Panic any
}

// Error implements the error interface.
func (e *MainError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("main panicked: %v", e.Panic)
	}
	return fmt.Sprintf("main failed: %v", e.Err)
}

// Unwrap returns the error Main returned.
func (e *MainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// BindError reports that a request stream could not be bound onto its
// driver's proxy.
type BindError struct {
	Driver string
	Err    error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("bind driver %q: %v", e.Driver, e.Err)
}

// Unwrap returns the underlying cause, such as stream.ErrAlreadyBound.
func (e *BindError) Unwrap() error {
	return e.Err
}

// IsMainError returns true if err is or wraps a *MainError.
func IsMainError(err error) bool {
	var me *MainError
	return errors.As(err, &me)
}

// IsBindError returns true if err is or wraps a *BindError.
func IsBindError(err error) bool {
	var be *BindError
	return errors.As(err, &be)
}
