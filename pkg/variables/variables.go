// Package variables provides the typed, named, resettable values that schedule
// operators read and mutate while a schedule is traversed.
package variables

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a variable lookup by name failed.
	ErrNotFound = errors.New("variable not found")

	// ErrDuplicateName indicates a variable of the same kind and name already exists.
	ErrDuplicateName = errors.New("variable already exists")
)

// Kind identifies one of the three variable families.
type Kind string

const (
	KindFloat   Kind = "float variable"
	KindBoolean Kind = "boolean variable"
	KindString  Kind = "string variable"
)

// NullName is the sentinel used in persisted fork edges to mean "no variable".
// Only boolean lookups honour it.
const NullName = "NULL"

// Float is a named floating-point variable.
type Float struct {
	Name          string  `json:"name"           validate:"required"`
	Value         float64 `json:"value"`
	OriginalValue float64 `json:"original_value"`
}

// Reset restores the value the variable was created with.
func (v *Float) Reset() { v.Value = v.OriginalValue }

// Boolean is a named boolean variable.
type Boolean struct {
	Name          string `json:"name"           validate:"required"`
	Value         bool   `json:"value"`
	OriginalValue bool   `json:"original_value"`
}

// Reset restores the value the variable was created with.
func (v *Boolean) Reset() { v.Value = v.OriginalValue }

// String is a named string variable, usually holding a file path.
type String struct {
	Name          string `json:"name"           validate:"required"`
	Value         string `json:"value"`
	OriginalValue string `json:"original_value"`
}

// Reset restores the value the variable was created with.
func (v *String) Reset() { v.Value = v.OriginalValue }

// LookupError reports a failed lookup together with the kind that was searched.
type LookupError struct {
	Kind Kind
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("cannot find %s: %s", e.Kind, e.Name)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// DuplicateError reports an attempt to register an already used name.
type DuplicateError struct {
	Kind Kind
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with name %q already exists", e.Kind, e.Name)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateName
}
