package base

import (
	"github.com/pkg/errors"
)

// ErrorCode is the stable failure classification that crosses the
// boundary. Internal errors carry one of these; anything uncoded is
// reported as UnknownError.
type ErrorCode int32

const (
	NoError ErrorCode = iota
	UnknownError
	InvalidArgument
	InvalidOperation
	OutOfMemory
	Uninitialized
	Unsupported
	DeviceLost
)

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "no error"
	case UnknownError:
		return "unknown error"
	case InvalidArgument:
		return "invalid argument"
	case InvalidOperation:
		return "invalid operation"
	case OutOfMemory:
		return "out of memory"
	case Uninitialized:
		return "uninitialized"
	case Unsupported:
		return "unsupported"
	case DeviceLost:
		return "device lost"
	}
	return "invalid error code"
}

// Error is an internal failure tagged with its cross-boundary code.
// The wrapped error carries the message and a stack trace (see the
// github.com/pkg/errors package).
type Error struct {
	Code ErrorCode
	err  error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.err.Error() }

// Unwrap exposes the wrapped error for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.err }

// Errorf creates a coded error with a formatted message and a stack trace.
func Errorf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, err: errors.Errorf(format, args...)}
}

// WrapError tags an existing error with a code, keeping it available for
// errors.Is/As. A nil err returns nil.
func WrapError(code ErrorCode, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: errors.WithMessagef(err, format, args...)}
}

// InvalidOperationf creates a caller-misuse error (bad enum value, null
// required argument, size overflow and similar).
func InvalidOperationf(format string, args ...any) error {
	return Errorf(InvalidOperation, format, args...)
}

// Unsupportedf creates an error for operations a backend does not provide.
func Unsupportedf(format string, args ...any) error {
	return Errorf(Unsupported, format, args...)
}

// CodeOf classifies an error into the cross-boundary taxonomy: the carried
// code for coded errors, UnknownError for everything else, NoError for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return NoError
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return UnknownError
}
