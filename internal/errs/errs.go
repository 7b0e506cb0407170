// Package errs defines the failure kinds shared by the graph, arena, model
// and operator packages.
//
// Every fallible operation returns one of these sentinels wrapped with
// context via fmt.Errorf("...: %w", err). Callers match on the kind with
// errors.Is and never on message text.
package errs

import "errors"

// Failure kinds.
var (
	// ErrNotFound reports an id or name absent from an arena or graph.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports an explicit-id insertion that collided.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDuplicate reports a name declared twice while building a model.
	ErrDuplicate = errors.New("duplicate name")

	// ErrSizeMismatch reports an arity or binding-count violation.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrSizeTooSmall reports fewer elements than an operation requires.
	ErrSizeTooSmall = errors.New("size too small")

	// ErrNotAcyclic reports a graph that could not be topologically ordered.
	ErrNotAcyclic = errors.New("graph is not acyclic")

	// ErrTypeMismatch reports a value of the wrong element type, or a tagged
	// payload accessed as the wrong variant.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnset reports a value read before it was populated.
	ErrUnset = errors.New("value is unset")

	// ErrOverflow reports an integer parameter that over- or underflowed.
	ErrOverflow = errors.New("integer overflow")

	// ErrInvalidParameter reports a rule parameter that failed a shape or
	// rank precondition.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Kinds lists every sentinel in declaration order.
var Kinds = []error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrDuplicate,
	ErrSizeMismatch,
	ErrSizeTooSmall,
	ErrNotAcyclic,
	ErrTypeMismatch,
	ErrUnset,
	ErrOverflow,
	ErrInvalidParameter,
}

// KindOf returns the sentinel wrapped by err, or nil if err carries none.
func KindOf(err error) error {
	for _, kind := range Kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
