// Package operators implements the in-graph computations of a schedule: boolean
// logic and comparisons, float arithmetic and file manipulation. Operators read
// and write variables from package variables and know nothing about the graph.
package operators

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrArithmetic indicates a division by zero. The output variable is left untouched.
	ErrArithmetic = errors.New("arithmetic error")

	// ErrIO indicates a file operator failed against the filesystem.
	ErrIO = errors.New("file operation failed")

	// ErrUnknownKind indicates an operator kind that no family recognises.
	ErrUnknownKind = errors.New("unrecognised operator kind")

	// ErrMissingOperand indicates a constructor was given a nil variable reference.
	ErrMissingOperand = errors.New("missing operator operand")

	// ErrSameFile indicates a copy or move whose source and destination are one file.
	ErrSameFile = errors.New("source and destination are the same file")
)

// Family groups operator kinds by the collection they are stored in.
type Family string

const (
	FamilyBoolean Family = "boolean"
	FamilyFloat   Family = "float"
	FamilyString  Family = "string"
)

// FamilyOf returns the family the kind belongs to.
func FamilyOf(kind string) (Family, error) {
	switch {
	case BooleanKind(kind).valid():
		return FamilyBoolean, nil
	case FloatKind(kind).valid():
		return FamilyFloat, nil
	case StringKind(kind).valid():
		return FamilyString, nil
	default:
		return "", unknownKind(kind)
	}
}

// Operator is implemented by every operator family.
type Operator interface {
	OperatorName() string
	OperatorKind() string
	Evaluate() error
}

// buildName derives the default operator name from its kind and operand names.
func buildName(kind string, parts ...string) string {
	return strings.Join(append([]string{kind}, parts...), "__")
}

// FormatConstant renders a constant the way it appears in operator names and files.
func FormatConstant(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func unknownKind(kind string) error {
	return &KindError{Kind: kind}
}

// KindError reports an operator kind that is not valid where it was used.
type KindError struct {
	Kind   string
	Family Family
}

func (e *KindError) Error() string {
	if e.Family != "" {
		return "unrecognised " + string(e.Family) + " operator kind: " + e.Kind
	}

	return "unrecognised operator kind: " + e.Kind
}

func (e *KindError) Unwrap() error {
	return ErrUnknownKind
}
