package schedule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukex/pipesched/pkg/operators"
	"github.com/dukex/pipesched/pkg/variables"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Schedule) AddFloatVariable(name string, value float64) error {
	_, err := s.vars.AddFloat(name, value)

	return err
}

func (s *Schedule) AddBooleanVariable(name string, value bool) error {
	_, err := s.vars.AddBoolean(name, value)

	return err
}

func (s *Schedule) AddStringVariable(name, value string) error {
	_, err := s.vars.AddString(name, value)

	return err
}

// AddOperatorNode builds an operator of the given kind, wraps it in a node and
// returns the node name. input2 names the second variable for two-operand
// kinds and holds the constant for *_const kinds; it is ignored otherwise.
func (s *Schedule) AddOperatorNode(kind, input1, input2, output string) (string, error) {
	family, err := operators.FamilyOf(kind)
	if err != nil {
		return "", err
	}

	var node Node

	switch family {
	case operators.FamilyBoolean:
		op, err := s.buildBooleanOperator(operators.BooleanKind(kind), input1, input2, output)
		if err != nil {
			return "", err
		}

		node = &BooleanOperatorNode{Operator: op}
	case operators.FamilyFloat:
		op, err := s.buildFloatOperator(operators.FloatKind(kind), input1, input2, output)
		if err != nil {
			return "", err
		}

		node = &FloatOperatorNode{Operator: op}
	case operators.FamilyString:
		op, err := s.buildStringOperator(operators.StringKind(kind), input1, output)
		if err != nil {
			return "", err
		}

		node = &StringOperatorNode{Operator: op}
	}

	if err := s.addOperatorWithNode(node); err != nil {
		return "", err
	}

	return node.NodeName(), nil
}

func (s *Schedule) buildBooleanOperator(kind operators.BooleanKind, input1, input2, output string) (*operators.BooleanOperator, error) {
	out, err := s.requireBoolean(output)
	if err != nil {
		return nil, err
	}

	switch {
	case kind == operators.BooleanNot:
		in, err := s.requireBoolean(input1)
		if err != nil {
			return nil, err
		}

		return operators.NewBooleanNot(in, out)
	case kind.BooleanInputs() == 2:
		in1, err := s.requireBoolean(input1)
		if err != nil {
			return nil, err
		}

		in2, err := s.requireBoolean(input2)
		if err != nil {
			return nil, err
		}

		return operators.NewBooleanLogic(kind, in1, in2, out)
	case kind.UsesConstant():
		f1, err := s.vars.Float(input1)
		if err != nil {
			return nil, err
		}

		c, err := parseConstant(kind, input2)
		if err != nil {
			return nil, err
		}

		return operators.NewBooleanCompareConst(kind, f1, c, out)
	case kind.FloatInputs() == 2:
		f1, err := s.vars.Float(input1)
		if err != nil {
			return nil, err
		}

		f2, err := s.vars.Float(input2)
		if err != nil {
			return nil, err
		}

		return operators.NewBooleanCompareVar(kind, f1, f2, out)
	default:
		file, err := s.vars.String(input1)
		if err != nil {
			return nil, err
		}

		return operators.NewFileExists(file, out)
	}
}

func (s *Schedule) buildFloatOperator(kind operators.FloatKind, input1, input2, output string) (*operators.FloatOperator, error) {
	in1, err := s.vars.Float(input1)
	if err != nil {
		return nil, err
	}

	out, err := s.vars.Float(output)
	if err != nil {
		return nil, err
	}

	if kind.UsesConstant() {
		c, err := parseConstant(kind, input2)
		if err != nil {
			return nil, err
		}

		return operators.NewFloatConst(kind, in1, c, out)
	}

	in2, err := s.vars.Float(input2)
	if err != nil {
		return nil, err
	}

	return operators.NewFloatVar(kind, in1, in2, out)
}

func (s *Schedule) buildStringOperator(kind operators.StringKind, input, output string) (*operators.StringOperator, error) {
	in, err := s.vars.String(input)
	if err != nil {
		return nil, err
	}

	if !kind.UsesOutput() {
		return operators.NewFileAction(kind, in)
	}

	out, err := s.vars.String(output)
	if err != nil {
		return nil, err
	}

	return operators.NewFileTransfer(kind, in, out)
}

// requireBoolean resolves a boolean variable and rejects the NULL sentinel.
func (s *Schedule) requireBoolean(name string) (*variables.Boolean, error) {
	v, err := s.vars.Boolean(name)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return nil, notFound(variables.KindBoolean, name)
	}

	return v, nil
}

func parseConstant[K ~string](kind K, raw string) (float64, error) {
	c, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: constant %q is not a number: %w", kind, raw, err)
	}

	return c, nil
}

// addOperatorWithNode registers the operator in its family collection and
// appends the wrapping node.
func (s *Schedule) addOperatorWithNode(node Node) error {
	name := node.NodeName()
	if s.IsNode(name) {
		return duplicate(KindNode, name)
	}

	switch n := node.(type) {
	case *BooleanOperatorNode:
		if err := s.registerBooleanOperator(n.Operator); err != nil {
			return err
		}
	case *FloatOperatorNode:
		if err := s.registerFloatOperator(n.Operator); err != nil {
			return err
		}
	case *StringOperatorNode:
		if err := s.registerStringOperator(n.Operator); err != nil {
			return err
		}
	}

	s.appendNode(node)

	return nil
}

func (s *Schedule) registerBooleanOperator(op *operators.BooleanOperator) error {
	if _, exists := s.booleanOpByID[op.Name]; exists {
		return duplicate(KindBooleanOperator, op.Name)
	}

	s.booleanOps = append(s.booleanOps, op)
	s.booleanOpByID[op.Name] = op

	return nil
}

func (s *Schedule) registerFloatOperator(op *operators.FloatOperator) error {
	if _, exists := s.floatOpByID[op.Name]; exists {
		return duplicate(KindFloatOperator, op.Name)
	}

	s.floatOps = append(s.floatOps, op)
	s.floatOpByID[op.Name] = op

	return nil
}

func (s *Schedule) registerStringOperator(op *operators.StringOperator) error {
	if _, exists := s.stringOpByID[op.Name]; exists {
		return duplicate(KindStringOperator, op.Name)
	}

	s.stringOps = append(s.stringOps, op)
	s.stringOpByID[op.Name] = op

	return nil
}

func (s *Schedule) appendNode(n Node) {
	s.nodes = append(s.nodes, n)
	s.nodeByName[n.NodeName()] = n
}

func (s *Schedule) addNode(n Node) error {
	if s.IsNode(n.NodeName()) {
		return duplicate(KindNode, n.NodeName())
	}

	s.appendNode(n)

	return nil
}

// AddJobNode adds the job living in dir. The directory name, with a trailing
// separator, becomes the node name and must contain a job.star marker.
func (s *Schedule) AddJobNode(dir, mode string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("job directory: %w", ErrNotFound)
	}

	if err := validate.Var(mode, "oneof=new continue overwrite"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	name := dir
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}

	if s.IsNode(name) {
		return "", duplicate(KindNode, name)
	}

	if _, err := os.Stat(filepath.Join(name, JobMarker)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", notFound(variables.Kind(JobMarker), name)
		}

		return "", &IOError{Op: "stat", Path: filepath.Join(name, JobMarker), Err: err}
	}

	s.appendNode(&JobNode{Name: name, OriginalName: name, Mode: mode})

	return name, nil
}

// AddExitNode appends an Exit node and returns its generated name.
func (s *Schedule) AddExitNode() (string, error) {
	name := string(NodeExit)
	for i := 2; s.IsNode(name); i++ {
		name = fmt.Sprintf("%s_%d", NodeExit, i)
	}

	if err := s.addNode(&ExitNode{Name: name}); err != nil {
		return "", err
	}

	return name, nil
}

// AddTimerNode appends a timer wait node.
func (s *Schedule) AddTimerNode(name string, waitSeconds float64) error {
	if name == "" {
		return &StructuralError{Reason: "timer wait node needs a name"}
	}

	if waitSeconds < 0 {
		return &StructuralError{Node: name, Reason: "negative wait time"}
	}

	return s.addNode(&TimerWaitNode{Name: name, WaitSeconds: waitSeconds})
}

// AddEdge connects input to output unconditionally.
func (s *Schedule) AddEdge(input, output string) error {
	in, err := s.FindNode(input)
	if err != nil {
		return err
	}

	out, err := s.FindNode(output)
	if err != nil {
		return err
	}

	s.appendEdge(&Edge{Input: in, Output: out})

	return nil
}

// AddFork connects input to outputTrue or outputFalse depending on condition.
func (s *Schedule) AddFork(input, condition, outputTrue, outputFalse string) error {
	in, err := s.FindNode(input)
	if err != nil {
		return err
	}

	cond, err := s.requireBoolean(condition)
	if err != nil {
		return err
	}

	outTrue, err := s.FindNode(outputTrue)
	if err != nil {
		return err
	}

	outFalse, err := s.FindNode(outputFalse)
	if err != nil {
		return err
	}

	s.appendEdge(&Edge{Input: in, Output: outTrue, OutputFalse: outFalse, Fork: true, Condition: cond})

	return nil
}

// appendEdge keeps the first outgoing edge of a node as the one traversal follows.
func (s *Schedule) appendEdge(e *Edge) {
	s.edges = append(s.edges, e)

	if _, exists := s.outgoing[e.Input.NodeName()]; !exists {
		s.outgoing[e.Input.NodeName()] = e
	}
}
