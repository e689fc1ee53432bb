package systemd

import (
	"errors"
	"fmt"
)

// ControlError represents a rejected or failed service manager call.
type ControlError struct {
	Operation string // The operation that failed (Start, Restart, Enable, ...)
	UnitName  string // The name of the unit
	Cause     error  // The underlying error
}

// Error implements the error interface.
func (e *ControlError) Error() string {
	return fmt.Sprintf("systemd %s failed for %s: %v", e.Operation, e.UnitName, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ControlError) Unwrap() error {
	return e.Cause
}

// NewControlError creates a new ControlError with the given details.
func NewControlError(operation, unitName string, cause error) *ControlError {
	return &ControlError{
		Operation: operation,
		UnitName:  unitName,
		Cause:     cause,
	}
}

// ConnectionError represents an error connecting to systemd.
type ConnectionError struct {
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to systemd system bus: %v", e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(cause error) *ConnectionError {
	return &ConnectionError{Cause: cause}
}

// IsControlError checks if an error is a ControlError.
func IsControlError(err error) bool {
	var ce *ControlError
	return errors.As(err, &ce)
}

// IsConnectionError checks if an error is a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
