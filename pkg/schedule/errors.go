package schedule

import (
	"errors"
	"fmt"

	"github.com/dukex/pipesched/pkg/operators"
	"github.com/dukex/pipesched/pkg/variables"
)

// Errors surfaced by schedule operations. Lookup and duplicate failures share
// their sentinels with package variables so errors.Is works on either.
var (
	ErrNotFound      = variables.ErrNotFound
	ErrDuplicateName = variables.ErrDuplicateName
	ErrIO            = operators.ErrIO
	ErrArithmetic    = operators.ErrArithmetic
	ErrUnknownKind   = operators.ErrUnknownKind

	// ErrStructural indicates a malformed graph.
	ErrStructural = errors.New("malformed schedule")

	// ErrInvalidMode indicates a job mode outside new, continue and overwrite.
	ErrInvalidMode = errors.New("invalid job mode")
)

type (
	// LookupError reports a name that could not be resolved, e.g. "cannot find node: A/".
	LookupError = variables.LookupError

	// DuplicateError reports a name that is already in use.
	DuplicateError = variables.DuplicateError
)

// Kinds used in lookup and duplicate errors for graph entities.
const (
	KindNode            variables.Kind = "node"
	KindJob             variables.Kind = "job"
	KindBooleanOperator variables.Kind = "boolean operator"
	KindFloatOperator   variables.Kind = "float operator"
	KindStringOperator  variables.Kind = "string operator"
)

// StructuralError describes one structural defect of a schedule graph.
type StructuralError struct {
	Node   string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Node == "" {
		return "malformed schedule: " + e.Reason
	}

	return fmt.Sprintf("malformed schedule at node %s: %s", e.Node, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// IOError wraps a failure to read or write a persisted schedule.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is matches ErrIO in addition to the wrapped error.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}

func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

func notFound(kind variables.Kind, name string) error {
	return &LookupError{Kind: kind, Name: name}
}

func duplicate(kind variables.Kind, name string) error {
	return &DuplicateError{Kind: kind, Name: name}
}
