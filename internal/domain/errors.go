package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ErrorKind classifies a workflow failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindUpload
	KindEstimation
	KindSubmission
	KindMissingEvent
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpload:
		return "upload"
	case KindEstimation:
		return "estimation"
	case KindSubmission:
		return "submission"
	case KindMissingEvent:
		return "missing_event"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries the kind of a workflow failure. The HTTP boundary collapses
// every kind into a generic 500, so the kind only survives in logs and traces.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrUpload) works
// regardless of Op and the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUpload       = &Error{Kind: KindUpload}
	ErrEstimation   = &Error{Kind: KindEstimation}
	ErrSubmission   = &Error{Kind: KindSubmission}
	ErrMissingEvent = &Error{Kind: KindMissingEvent}
	ErrPersistence  = &Error{Kind: KindPersistence}
)

// NewError wraps err with a kind and the failing operation.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
