package operators

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukex/pipesched/pkg/variables"
)

// BooleanKind selects the computation of a BooleanOperator.
type BooleanKind string

const (
	BooleanAnd          BooleanKind = "bool=and"
	BooleanOr           BooleanKind = "bool=or"
	BooleanNot          BooleanKind = "bool=not"
	BooleanGreaterVar   BooleanKind = "bool=gt_var"
	BooleanLessVar      BooleanKind = "bool=lt_var"
	BooleanEqualVar     BooleanKind = "bool=eq_var"
	BooleanGreaterConst BooleanKind = "bool=gt_const"
	BooleanLessConst    BooleanKind = "bool=lt_const"
	BooleanEqualConst   BooleanKind = "bool=eq_const"
	BooleanFileExists   BooleanKind = "bool=file_exists"
)

func (k BooleanKind) valid() bool {
	switch k {
	case BooleanAnd, BooleanOr, BooleanNot,
		BooleanGreaterVar, BooleanLessVar, BooleanEqualVar,
		BooleanGreaterConst, BooleanLessConst, BooleanEqualConst,
		BooleanFileExists:
		return true
	}

	return false
}

// BooleanInputs is the number of boolean operands the kind reads.
func (k BooleanKind) BooleanInputs() int {
	switch k {
	case BooleanAnd, BooleanOr:
		return 2
	case BooleanNot:
		return 1
	default:
		return 0
	}
}

// FloatInputs is the number of float operands the kind reads.
func (k BooleanKind) FloatInputs() int {
	switch k {
	case BooleanGreaterVar, BooleanLessVar, BooleanEqualVar:
		return 2
	case BooleanGreaterConst, BooleanLessConst, BooleanEqualConst:
		return 1
	default:
		return 0
	}
}

// UsesConstant reports whether the kind compares against a stored constant.
func (k BooleanKind) UsesConstant() bool {
	return k == BooleanGreaterConst || k == BooleanLessConst || k == BooleanEqualConst
}

// UsesFile reports whether the kind reads a string (file) operand.
func (k BooleanKind) UsesFile() bool {
	return k == BooleanFileExists
}

// BooleanOperator computes a boolean output from booleans, floats or a file path.
type BooleanOperator struct {
	Name     string
	Kind     BooleanKind
	Input1   *variables.Boolean
	Input2   *variables.Boolean
	Float1   *variables.Float
	Float2   *variables.Float
	Constant float64
	File     *variables.String
	Output   *variables.Boolean
}

// NewBooleanLogic builds an AND or OR operator.
func NewBooleanLogic(kind BooleanKind, in1, in2, out *variables.Boolean) (*BooleanOperator, error) {
	if kind != BooleanAnd && kind != BooleanOr {
		return nil, &KindError{Kind: string(kind), Family: FamilyBoolean}
	}

	if in1 == nil || in2 == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &BooleanOperator{
		Name:   buildName(string(kind), in1.Name, in2.Name, out.Name),
		Kind:   kind,
		Input1: in1,
		Input2: in2,
		Output: out,
	}, nil
}

// NewBooleanNot builds a NOT operator.
func NewBooleanNot(in, out *variables.Boolean) (*BooleanOperator, error) {
	if in == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", BooleanNot, ErrMissingOperand)
	}

	return &BooleanOperator{
		Name:   buildName(string(BooleanNot), in.Name, out.Name),
		Kind:   BooleanNot,
		Input1: in,
		Output: out,
	}, nil
}

// NewBooleanCompareVar builds a comparison between two float variables.
func NewBooleanCompareVar(kind BooleanKind, f1, f2 *variables.Float, out *variables.Boolean) (*BooleanOperator, error) {
	if kind.FloatInputs() != 2 {
		return nil, &KindError{Kind: string(kind), Family: FamilyBoolean}
	}

	if f1 == nil || f2 == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &BooleanOperator{
		Name:   buildName(string(kind), f1.Name, f2.Name, out.Name),
		Kind:   kind,
		Float1: f1,
		Float2: f2,
		Output: out,
	}, nil
}

// NewBooleanCompareConst builds a comparison between a float variable and a constant.
func NewBooleanCompareConst(kind BooleanKind, f1 *variables.Float, constant float64, out *variables.Boolean) (*BooleanOperator, error) {
	if !kind.UsesConstant() {
		return nil, &KindError{Kind: string(kind), Family: FamilyBoolean}
	}

	if f1 == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &BooleanOperator{
		Name:     buildName(string(kind), f1.Name, FormatConstant(constant), out.Name),
		Kind:     kind,
		Float1:   f1,
		Constant: constant,
		Output:   out,
	}, nil
}

// NewFileExists builds an operator that checks whether the path held by file exists.
func NewFileExists(file *variables.String, out *variables.Boolean) (*BooleanOperator, error) {
	if file == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", BooleanFileExists, ErrMissingOperand)
	}

	return &BooleanOperator{
		Name:   buildName(string(BooleanFileExists), file.Name, out.Name),
		Kind:   BooleanFileExists,
		File:   file,
		Output: out,
	}, nil
}

func (o *BooleanOperator) OperatorName() string { return o.Name }

func (o *BooleanOperator) OperatorKind() string { return string(o.Kind) }

// Evaluate computes the result and stores it in the output variable.
// Equality comparisons use exact floating-point equality.
func (o *BooleanOperator) Evaluate() error {
	var result bool

	switch o.Kind {
	case BooleanAnd:
		result = o.Input1.Value && o.Input2.Value
	case BooleanOr:
		result = o.Input1.Value || o.Input2.Value
	case BooleanNot:
		result = !o.Input1.Value
	case BooleanGreaterVar:
		result = o.Float1.Value > o.Float2.Value
	case BooleanLessVar:
		result = o.Float1.Value < o.Float2.Value
	case BooleanEqualVar:
		result = o.Float1.Value == o.Float2.Value
	case BooleanGreaterConst:
		result = o.Float1.Value > o.Constant
	case BooleanLessConst:
		result = o.Float1.Value < o.Constant
	case BooleanEqualConst:
		result = o.Float1.Value == o.Constant
	case BooleanFileExists:
		_, err := os.Stat(o.File.Value)
		switch {
		case err == nil:
			result = true
		case errors.Is(err, os.ErrNotExist):
			result = false
		default:
			return fmt.Errorf("%s %q: %w: %w", o.Kind, o.File.Value, ErrIO, err)
		}
	default:
		return &KindError{Kind: string(o.Kind), Family: FamilyBoolean}
	}

	o.Output.Value = result

	return nil
}
