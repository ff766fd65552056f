package operators

import (
	"fmt"

	"github.com/dukex/pipesched/pkg/variables"
)

// FloatKind selects the computation of a FloatOperator.
type FloatKind string

const (
	FloatPlusVar        FloatKind = "float=plus_var"
	FloatMinusVar       FloatKind = "float=minus_var"
	FloatMultVar        FloatKind = "float=mult_var"
	FloatDivideVar      FloatKind = "float=divide_var"
	FloatPlusConst      FloatKind = "float=plus_const"
	FloatMinusConst     FloatKind = "float=minus_const"
	FloatMultConst      FloatKind = "float=mult_const"
	FloatDivideConst    FloatKind = "float=divide_const"
	FloatDivideConstInv FloatKind = "float=divide_const_inv"
)

func (k FloatKind) valid() bool {
	return k.UsesSecondInput() || k.UsesConstant()
}

// UsesSecondInput reports whether the kind combines two float variables.
func (k FloatKind) UsesSecondInput() bool {
	switch k {
	case FloatPlusVar, FloatMinusVar, FloatMultVar, FloatDivideVar:
		return true
	}

	return false
}

// UsesConstant reports whether the kind combines a float variable with a constant.
func (k FloatKind) UsesConstant() bool {
	switch k {
	case FloatPlusConst, FloatMinusConst, FloatMultConst, FloatDivideConst, FloatDivideConstInv:
		return true
	}

	return false
}

// FloatOperator computes Output from Input1 and either Input2 or Constant.
type FloatOperator struct {
	Name     string
	Kind     FloatKind
	Input1   *variables.Float
	Input2   *variables.Float
	Constant float64
	Output   *variables.Float
}

// NewFloatVar builds an operator over two float variables.
func NewFloatVar(kind FloatKind, in1, in2, out *variables.Float) (*FloatOperator, error) {
	if !kind.UsesSecondInput() {
		return nil, &KindError{Kind: string(kind), Family: FamilyFloat}
	}

	if in1 == nil || in2 == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &FloatOperator{
		Name:   buildName(string(kind), in1.Name, in2.Name, out.Name),
		Kind:   kind,
		Input1: in1,
		Input2: in2,
		Output: out,
	}, nil
}

// NewFloatConst builds an operator over a float variable and a constant.
func NewFloatConst(kind FloatKind, in1 *variables.Float, constant float64, out *variables.Float) (*FloatOperator, error) {
	if !kind.UsesConstant() {
		return nil, &KindError{Kind: string(kind), Family: FamilyFloat}
	}

	if in1 == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &FloatOperator{
		Name:     buildName(string(kind), in1.Name, FormatConstant(constant), out.Name),
		Kind:     kind,
		Input1:   in1,
		Constant: constant,
		Output:   out,
	}, nil
}

func (o *FloatOperator) OperatorName() string { return o.Name }

func (o *FloatOperator) OperatorKind() string { return string(o.Kind) }

// Evaluate computes the result and stores it in the output variable.
// FloatDivideConstInv computes Constant / Input1.
func (o *FloatOperator) Evaluate() error {
	a := o.Input1.Value

	var result float64

	switch o.Kind {
	case FloatPlusVar:
		result = a + o.Input2.Value
	case FloatMinusVar:
		result = a - o.Input2.Value
	case FloatMultVar:
		result = a * o.Input2.Value
	case FloatDivideVar:
		if o.Input2.Value == 0 {
			return o.divisionByZero(o.Input2.Name)
		}

		result = a / o.Input2.Value
	case FloatPlusConst:
		result = a + o.Constant
	case FloatMinusConst:
		result = a - o.Constant
	case FloatMultConst:
		result = a * o.Constant
	case FloatDivideConst:
		if o.Constant == 0 {
			return o.divisionByZero("constant")
		}

		result = a / o.Constant
	case FloatDivideConstInv:
		if a == 0 {
			return o.divisionByZero(o.Input1.Name)
		}

		result = o.Constant / a
	default:
		return &KindError{Kind: string(o.Kind), Family: FamilyFloat}
	}

	o.Output.Value = result

	return nil
}

func (o *FloatOperator) divisionByZero(divisor string) error {
	return fmt.Errorf("%s: division by zero (%s is 0): %w", o.Name, divisor, ErrArithmetic)
}
