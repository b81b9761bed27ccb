// Package errors provides structured error handling for shadow tree operations.
//
// Failures carry an ErrorKind and wrap one of the sentinel errors below, so
// callers can branch with the standard library:
//
//	if errors.Is(err, treeerrors.ErrCommitFailed) {
//	    // drop or requeue the update
//	}
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Sentinel errors wrapped by TreeError. Match them with errors.Is.
var (
	// ErrComponentNotFound is returned when no descriptor is registered for a
	// component name.
	ErrComponentNotFound = stderrors.New("component not found")
	// ErrIllegalMutation is returned when a node that was already offered to a
	// commit is mutated. It is a programming error and must not be retried.
	ErrIllegalMutation = stderrors.New("illegal mutation of sealed node")
	// ErrCommitFailed is returned when a commit exhausts its retry budget.
	ErrCommitFailed = stderrors.New("commit failed")
	// ErrSurfaceNotFound is returned by lookups that distinguish a missing
	// surface from success.
	ErrSurfaceNotFound = stderrors.New("surface not found")
	// ErrInvalidArgument is returned for malformed input such as nil nodes.
	ErrInvalidArgument = stderrors.New("invalid argument")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindComponentNotFound indicates a lookup of an unregistered component.
	KindComponentNotFound
	// KindIllegalMutation indicates a write to a sealed node.
	KindIllegalMutation
	// KindCommitFailed indicates retry exhaustion in the commit loop.
	KindCommitFailed
	// KindSurfaceNotFound indicates an unknown surface id.
	KindSurfaceNotFound
	// KindInvalidArgument indicates malformed input.
	KindInvalidArgument
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindComponentNotFound:
		return "component_not_found"
	case KindIllegalMutation:
		return "illegal_mutation"
	case KindCommitFailed:
		return "commit_failed"
	case KindSurfaceNotFound:
		return "surface_not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// sentinel returns the sentinel error for a kind, or nil.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindComponentNotFound:
		return ErrComponentNotFound
	case KindIllegalMutation:
		return ErrIllegalMutation
	case KindCommitFailed:
		return ErrCommitFailed
	case KindSurfaceNotFound:
		return ErrSurfaceNotFound
	case KindInvalidArgument:
		return ErrInvalidArgument
	default:
		return nil
	}
}

// TreeError represents a structured error raised by a tree operation.
type TreeError struct {
	// Op is the operation that failed (e.g., "uimanager.CreateNode").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Surface is the surface id involved, or zero.
	Surface int64
	// Tag is the node tag involved, or zero.
	Tag int64
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// New builds a TreeError of the given kind. The message becomes part of the
// wrapped error chain together with the kind's sentinel.
func New(op string, kind ErrorKind, format string, args ...any) *TreeError {
	var err error
	msg := fmt.Sprintf(format, args...)
	if s := kind.sentinel(); s != nil {
		err = fmt.Errorf("%w: %s", s, msg)
	} else {
		err = stderrors.New(msg)
	}
	return &TreeError{Op: op, Kind: kind, Err: err}
}

// WithSurface sets the surface id and returns the receiver.
func (e *TreeError) WithSurface(id int64) *TreeError {
	e.Surface = id
	return e
}

// WithTag sets the node tag and returns the receiver.
func (e *TreeError) WithTag(tag int64) *TreeError {
	e.Tag = tag
	return e
}

func (e *TreeError) Error() string {
	switch {
	case e.Surface != 0 && e.Tag != 0:
		return fmt.Sprintf("%s [%s] surface=%d tag=%d: %v", e.Op, e.Kind, e.Surface, e.Tag, e.Err)
	case e.Surface != 0:
		return fmt.Sprintf("%s [%s] surface=%d: %v", e.Op, e.Kind, e.Surface, e.Err)
	case e.Tag != 0:
		return fmt.Sprintf("%s [%s] tag=%d: %v", e.Op, e.Kind, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *TreeError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first TreeError in err's chain.
func KindOf(err error) ErrorKind {
	var te *TreeError
	if stderrors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "commit.TryCommit").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by tree operations.
type ErrorHandler interface {
	// HandleError is called when an operation fails.
	HandleError(err *TreeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
