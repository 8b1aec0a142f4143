package audiograph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when a precondition on call
	// arguments is violated: non-positive sizes, mismatched shapes,
	// self-loops.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange is returned when a channel index is outside of buffer.
	ErrOutOfRange = errors.New("out of range")
	// ErrDisposed is returned when released buffer, node or graph is used.
	ErrDisposed = errors.New("disposed")
	// ErrInvalidOperation is returned when an object is used in a wrong
	// state: frozen builder, unregistered nodes, duplicate edges.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrCycleDetected is returned when connection would close a cycle.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrGraphProcessing is matched by every failure of a render pass,
	// except cancellation.
	ErrGraphProcessing = errors.New("graph processing")
	// ErrCanceled is returned when render pass was canceled through the
	// processing context.
	ErrCanceled = errors.New("canceled")
)

// ProcessingError is returned by Graph.Process if node computation failed.
// It keeps the node where the failure originated and the cause.
type ProcessingError struct {
	NodeID string
	Kind   string
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%v: %s node %s: %v", ErrGraphProcessing, e.Kind, e.NodeID, e.Err)
}

// Unwrap returns the cause.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrGraphProcessing.
func (e *ProcessingError) Is(err error) bool {
	return err == ErrGraphProcessing
}

// ReleaseErrors wraps errors that occure when multiple nodes fail to release.
type ReleaseErrors []error

func (e ReleaseErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e ReleaseErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// Ret returns untyped nil if error list is empty.
func (e ReleaseErrors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}

func canceled(err error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}
