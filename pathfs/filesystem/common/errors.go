package common

import (
	"errors"
	"fmt"
	"log/slog"
)

// Common error types used across filesystem packages
var (
	ErrPathEmpty   = errors.New("path cannot be empty")
	ErrPathTooLong = errors.New("path too long (max 4096 characters)")
	ErrPathInvalid = errors.New("path contains invalid characters")
	ErrNilContents = errors.New("content reader must not be nil")
	ErrNilTarget   = errors.New("target resource must not be nil")
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrUnsupported = errors.New("operation not supported")

	// ErrIOFailure and ErrPreconditionViolation match any *ResourceError of that kind via errors.Is.
	ErrIOFailure             = errors.New("io failure")
	ErrPreconditionViolation = errors.New("precondition violation")
)

// ErrorKind classifies a ResourceError.
type ErrorKind int

const (
	// IOFailure means an underlying filesystem call failed for a reason outside this layer.
	IOFailure ErrorKind = iota
	// PreconditionViolation means the caller passed an invalid argument or an unmet requirement.
	PreconditionViolation
)

// String returns a string representation of the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case IOFailure:
		return "io failure"
	case PreconditionViolation:
		return "precondition violation"
	default:
		return "unknown"
	}
}

// ResourceError records the operation and path that failed along with the low-level cause.
type ResourceError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrIOFailure) and errors.Is(err, ErrPreconditionViolation) match by kind.
func (e *ResourceError) Is(target error) bool {
	switch target {
	case ErrIOFailure:
		return e.Kind == IOFailure
	case ErrPreconditionViolation:
		return e.Kind == PreconditionViolation
	}
	return false
}

// NewIOFailure wraps err as an IOFailure for op on path. A nil err yields nil.
func NewIOFailure(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Kind: IOFailure, Op: op, Path: path, Err: err}
}

// NewPreconditionViolation wraps err as a PreconditionViolation for op on path.
func NewPreconditionViolation(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Kind: PreconditionViolation, Op: op, Path: path, Err: err}
}

// IsIOFailure reports whether err is, or wraps, an IOFailure.
func IsIOFailure(err error) bool {
	return errors.Is(err, ErrIOFailure)
}

// IsPreconditionViolation reports whether err is, or wraps, a PreconditionViolation.
func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrPreconditionViolation)
}

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}

// HandleOperationError logs a failed operation and returns the error unchanged
func (eu *ErrorUtils) HandleOperationError(err error, operation, path string, logError bool) error {
	if err == nil {
		return nil
	}

	if logError {
		slog.Error("Operation failed",
			"operation", operation,
			"path", path,
			"error", err)
	}

	return err
}
