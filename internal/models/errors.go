package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrMalformedDescriptor ErrorType = iota
	ErrRemoteNotFound
	ErrRemoteUnauthorized
	ErrRemoteUnavailable
	ErrPropagationTimeout
	ErrInvalidConfig
	ErrReportWrite
	ErrRemoteRejected
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrMalformedDescriptor:
		return "MalformedDescriptor"
	case ErrRemoteNotFound:
		return "RemoteNotFound"
	case ErrRemoteUnauthorized:
		return "RemoteUnauthorized"
	case ErrRemoteUnavailable:
		return "RemoteUnavailable"
	case ErrPropagationTimeout:
		return "PropagationTimeout"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrReportWrite:
		return "ReportWrite"
	case ErrRemoteRejected:
		return "RemoteRejected"
	default:
		return "Unknown"
	}
}

// ReconcileError represents an error during a reconciliation run
type ReconcileError struct {
	Type  ErrorType
	Field Field
	Err   error
}

// NewError builds a ReconcileError. field may be empty.
func NewError(t ErrorType, field Field, err error) *ReconcileError {
	return &ReconcileError{Type: t, Field: field, Err: err}
}

// Errorf builds a ReconcileError with no field from a format string.
func Errorf(t ErrorType, format string, args ...any) *ReconcileError {
	return &ReconcileError{Type: t, Err: fmt.Errorf(format, args...)}
}

// Error implements the error interface
func (e *ReconcileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// ErrorTypeOf returns the type of the first ReconcileError in err's chain.
func ErrorTypeOf(err error) (ErrorType, bool) {
	var re *ReconcileError
	if errors.As(err, &re) {
		return re.Type, true
	}
	return 0, false
}

// IsErrorType reports whether err carries a ReconcileError of type t.
func IsErrorType(err error, t ErrorType) bool {
	got, ok := ErrorTypeOf(err)
	return ok && got == t
}

// IsRetryable reports whether err is transient. Only RemoteUnavailable is.
func IsRetryable(err error) bool {
	return IsErrorType(err, ErrRemoteUnavailable)
}

// IsFatal reports whether err must abort the run before any remote write.
func IsFatal(err error) bool {
	t, ok := ErrorTypeOf(err)
	if !ok {
		return err != nil
	}
	switch t {
	case ErrMalformedDescriptor, ErrRemoteNotFound, ErrRemoteUnauthorized,
		ErrRemoteUnavailable, ErrRemoteRejected, ErrInvalidConfig:
		return true
	default:
		return false
	}
}
