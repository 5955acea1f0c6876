package metadata

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the package can produce.
// Use errors.Is against these to branch on the failure category.
var (
	// ErrInvalidArgument indicates a nil or out-of-range value passed to an
	// API boundary. The operation is rejected before any state changes.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidData indicates malformed input: bad compact-grammar text,
	// an unknown code, or wrong argument arity. Partial results are discarded.
	ErrInvalidData = errors.New("invalid data")
	// ErrUnsupported indicates a construct this model explicitly does not
	// handle, such as vararg method references or cross-module members.
	ErrUnsupported = errors.New("unsupported construct")
	// ErrInvariant indicates a programmer error detected at runtime, such as
	// formatting a tree that violates the nil-arguments invariant.
	ErrInvariant = errors.New("invariant violation")
	// ErrNotFound indicates a token with no entry in the container.
	ErrNotFound = errors.New("not found")
)

// Error is the structured error type returned by this package. It carries
// the failure category and a descriptive message, and may wrap a cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target matches this error's category sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

func errInvalidArgumentf(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func errInvalidDataf(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidData, Message: fmt.Sprintf(format, args...)}
}

func errUnsupportedf(format string, args ...interface{}) error {
	return &Error{Kind: ErrUnsupported, Message: fmt.Sprintf(format, args...)}
}

func errInvariantf(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvariant, Message: fmt.Sprintf(format, args...)}
}

func errNotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func wrapInvalidData(message string, err error) error {
	return &Error{Kind: ErrInvalidData, Message: message, Err: err}
}
