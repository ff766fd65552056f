package schedule

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dukex/pipesched/pkg/operators"
	"github.com/dukex/pipesched/pkg/starfile"
	"github.com/dukex/pipesched/pkg/variables"
)

// Section names, in the order they are written and read.
const (
	sectionGeneral         = "schedule_general"
	sectionFloats          = "schedule_floats"
	sectionBools           = "schedule_bools"
	sectionStrings         = "schedule_strings"
	sectionBoolOperators   = "schedule_bool_operators"
	sectionFloatOperators  = "schedule_float_operators"
	sectionStringOperators = "schedule_string_operators"
	sectionNodes           = "schedule_nodes"
	sectionEdges           = "schedule_edges"
)

const (
	labelName          = "scheduleName"
	labelCurrentNode   = "scheduleCurrentNodeName"
	labelStartNode     = "scheduleOriginalStartNodeName"
	labelEmail         = "scheduleEmailAddress"
	labelVariableName  = "scheduleVariableName"
	labelVariableValue = "scheduleVariableValue"
	labelVariableReset = "scheduleVariableResetValue"

	labelOperatorName     = "scheduleOperatorName"
	labelOperatorType     = "scheduleOperatorType"
	labelOperatorInput1   = "scheduleOperatorInput1"
	labelOperatorInput2   = "scheduleOperatorInput2"
	labelOperatorFloat1   = "scheduleOperatorFloat1"
	labelOperatorFloat2   = "scheduleOperatorFloat2"
	labelOperatorConstant = "scheduleOperatorConstant"
	labelOperatorFile     = "scheduleOperatorFile"
	labelOperatorOutput   = "scheduleOperatorOutput"

	labelNodeName         = "scheduleNodeName"
	labelNodeType         = "scheduleNodeType"
	labelNodeOriginalName = "scheduleNodeOriginalName"
	labelNodeJobMode      = "scheduleNodeJobMode"
	labelNodeJobStarted   = "scheduleNodeJobHasStarted"
	labelNodeWaitTime     = "scheduleNodeWaitTime"

	labelEdgeNumber      = "scheduleEdgeNumber"
	labelEdgeInput       = "scheduleEdgeInputNodeName"
	labelEdgeOutput      = "scheduleEdgeOutputNodeName"
	labelEdgeIsFork      = "scheduleEdgeIsFork"
	labelEdgeOutputFalse = "scheduleEdgeOutputNodeNameIfFalse"
	labelEdgeBoolean     = "scheduleEdgeBooleanVariable"
)

// File is the name of a persisted schedule inside its directory.
const File = "schedule.star"

// Load reads a schedule from path.
func Load(path string, opts ...Option) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	s, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return s, nil
}

// Save writes the schedule to path, replacing any previous file atomically.
func (s *Schedule) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".schedule-*")
	if err != nil {
		return &IOError{Op: "create", Path: dir, Err: err}
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return &IOError{Op: "write", Path: tmp.Name(), Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return &IOError{Op: "close", Path: tmp.Name(), Err: err}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return &IOError{Op: "rename", Path: path, Err: err}
	}

	return nil
}

func nameOrUndefined(n Node) string {
	if n == nil {
		return Undefined
	}

	return n.NodeName()
}

// Write serialises the schedule. Empty sections are omitted.
func (s *Schedule) Write(w io.Writer) error {
	general := starfile.NewList(sectionGeneral)
	general.Set(labelName, s.name)
	general.Set(labelCurrentNode, nameOrUndefined(s.current))
	general.Set(labelStartNode, nameOrUndefined(s.start))
	general.Set(labelEmail, s.email)

	blocks := []*starfile.Block{general}

	sections := []func() (*starfile.Block, error){
		s.floatBlock,
		s.booleanBlock,
		s.stringBlock,
		s.booleanOperatorBlock,
		s.floatOperatorBlock,
		s.stringOperatorBlock,
		s.nodeBlock,
		s.edgeBlock,
	}

	for _, section := range sections {
		b, err := section()
		if err != nil {
			return err
		}

		if b.Len() > 0 {
			blocks = append(blocks, b)
		}
	}

	if err := starfile.Write(w, blocks...); err != nil {
		return fmt.Errorf("writing schedule %s: %w", s.name, err)
	}

	return nil
}

func (s *Schedule) floatBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionFloats, labelVariableName, labelVariableValue, labelVariableReset)

	for _, v := range s.vars.Floats() {
		if err := b.AddRow(v.Name, starfile.FormatFloat(v.Value), starfile.FormatFloat(v.OriginalValue)); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) booleanBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionBools, labelVariableName, labelVariableValue, labelVariableReset)

	for _, v := range s.vars.Booleans() {
		if err := b.AddRow(v.Name, starfile.FormatBool(v.Value), starfile.FormatBool(v.OriginalValue)); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) stringBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionStrings, labelVariableName, labelVariableValue, labelVariableReset)

	for _, v := range s.vars.Strings() {
		if err := b.AddRow(v.Name, v.Value, v.OriginalValue); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) booleanOperatorBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionBoolOperators,
		labelOperatorName, labelOperatorType,
		labelOperatorInput1, labelOperatorInput2,
		labelOperatorFloat1, labelOperatorFloat2,
		labelOperatorConstant, labelOperatorFile, labelOperatorOutput)

	for _, op := range s.booleanOps {
		input1, input2, float1, float2, file := Undefined, Undefined, Undefined, Undefined, Undefined
		constant := 0.0

		if op.Input1 != nil {
			input1 = op.Input1.Name
		}

		if op.Input2 != nil {
			input2 = op.Input2.Name
		}

		if op.Float1 != nil {
			float1 = op.Float1.Name
		}

		if op.Float2 != nil {
			float2 = op.Float2.Name
		}

		if op.Kind.UsesConstant() {
			constant = op.Constant
		}

		if op.File != nil {
			file = op.File.Name
		}

		if err := b.AddRow(op.Name, string(op.Kind), input1, input2, float1, float2,
			starfile.FormatFloat(constant), file, op.Output.Name); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) floatOperatorBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionFloatOperators,
		labelOperatorName, labelOperatorType,
		labelOperatorInput1, labelOperatorInput2,
		labelOperatorConstant, labelOperatorOutput)

	for _, op := range s.floatOps {
		input2 := Undefined
		constant := 0.0

		if op.Kind.UsesConstant() {
			constant = op.Constant
		} else if op.Input2 != nil {
			input2 = op.Input2.Name
		}

		if err := b.AddRow(op.Name, string(op.Kind), op.Input1.Name, input2,
			starfile.FormatFloat(constant), op.Output.Name); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) stringOperatorBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionStringOperators,
		labelOperatorName, labelOperatorType, labelOperatorInput1, labelOperatorOutput)

	for _, op := range s.stringOps {
		output := Undefined
		if op.Output != nil {
			output = op.Output.Name
		}

		if err := b.AddRow(op.Name, string(op.Kind), op.Input.Name, output); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) nodeBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionNodes,
		labelNodeName, labelNodeType, labelNodeOriginalName,
		labelNodeJobMode, labelNodeJobStarted, labelNodeWaitTime)

	for _, n := range s.nodes {
		original, mode, started, wait := Undefined, Undefined, false, 0.0

		switch v := n.(type) {
		case *JobNode:
			original, mode, started = v.OriginalName, v.Mode, v.Started
		case *TimerWaitNode:
			wait = v.WaitSeconds
		}

		if err := b.AddRow(n.NodeName(), string(n.NodeType()), original, mode,
			starfile.FormatBool(started), starfile.FormatFloat(wait)); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Schedule) edgeBlock() (*starfile.Block, error) {
	b := starfile.NewTable(sectionEdges,
		labelEdgeNumber, labelEdgeInput, labelEdgeOutput,
		labelEdgeIsFork, labelEdgeOutputFalse, labelEdgeBoolean)

	for i, e := range s.edges {
		outputFalse, condition := Undefined, Undefined

		if e.Fork {
			outputFalse = nameOrUndefined(e.OutputFalse)
			condition = variables.NullName

			if e.Condition != nil {
				condition = e.Condition.Name
			}
		}

		if err := b.AddRow(starfile.FormatInt(i+1), e.Input.NodeName(), nameOrUndefined(e.Output),
			starfile.FormatBool(e.Fork), outputFalse, condition); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Read parses a schedule. Names are resolved eagerly: any reference to an
// unknown variable, operator or node fails the whole read.
func Read(r io.Reader, opts ...Option) (*Schedule, error) {
	f, err := starfile.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	general, ok := f.Block(sectionGeneral)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s section", ErrIO, sectionGeneral)
	}

	name, err := general.String(0, labelName)
	if err != nil {
		return nil, err
	}

	s := New(name, opts...)

	if s.email, err = general.String(0, labelEmail); err != nil {
		return nil, err
	}

	steps := []func(*starfile.File) error{
		s.readFloats,
		s.readBooleans,
		s.readStrings,
		s.readBooleanOperators,
		s.readFloatOperators,
		s.readStringOperators,
		s.readNodes,
	}

	for _, step := range steps {
		if err := step(f); err != nil {
			return nil, err
		}
	}

	current, err := general.String(0, labelCurrentNode)
	if err != nil {
		return nil, err
	}

	if current != Undefined {
		if err := s.SetCurrentNode(current); err != nil {
			return nil, err
		}
	}

	start, err := general.String(0, labelStartNode)
	if err != nil {
		return nil, err
	}

	if start != Undefined {
		if err := s.SetStartNode(start); err != nil {
			return nil, err
		}
	}

	if err := s.readEdges(f); err != nil {
		return nil, err
	}

	return s, nil
}

func forEachRow(f *starfile.File, section string, fn func(b *starfile.Block, row int) error) error {
	b, ok := f.Block(section)
	if !ok {
		return nil
	}

	for i := range b.Len() {
		if err := fn(b, i); err != nil {
			return fmt.Errorf("%s row %d: %w", section, i+1, err)
		}
	}

	return nil
}

// columns reads several string columns of one row.
func columns(b *starfile.Block, row int, labels ...string) ([]string, error) {
	out := make([]string, len(labels))

	for i, l := range labels {
		v, err := b.String(row, l)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (s *Schedule) readFloats(f *starfile.File) error {
	return forEachRow(f, sectionFloats, func(b *starfile.Block, row int) error {
		name, err := b.String(row, labelVariableName)
		if err != nil {
			return err
		}

		value, err := b.Float(row, labelVariableValue)
		if err != nil {
			return err
		}

		reset, err := b.Float(row, labelVariableReset)
		if err != nil {
			return err
		}

		_, err = s.vars.RestoreFloat(name, value, reset)

		return err
	})
}

func (s *Schedule) readBooleans(f *starfile.File) error {
	return forEachRow(f, sectionBools, func(b *starfile.Block, row int) error {
		name, err := b.String(row, labelVariableName)
		if err != nil {
			return err
		}

		value, err := b.Bool(row, labelVariableValue)
		if err != nil {
			return err
		}

		reset, err := b.Bool(row, labelVariableReset)
		if err != nil {
			return err
		}

		_, err = s.vars.RestoreBoolean(name, value, reset)

		return err
	})
}

func (s *Schedule) readStrings(f *starfile.File) error {
	return forEachRow(f, sectionStrings, func(b *starfile.Block, row int) error {
		cols, err := columns(b, row, labelVariableName, labelVariableValue, labelVariableReset)
		if err != nil {
			return err
		}

		_, err = s.vars.RestoreString(cols[0], cols[1], cols[2])

		return err
	})
}

func (s *Schedule) readBooleanOperators(f *starfile.File) error {
	return forEachRow(f, sectionBoolOperators, func(b *starfile.Block, row int) error {
		cols, err := columns(b, row,
			labelOperatorName, labelOperatorType,
			labelOperatorInput1, labelOperatorInput2,
			labelOperatorFloat1, labelOperatorFloat2,
			labelOperatorFile, labelOperatorOutput)
		if err != nil {
			return err
		}

		name, kind := cols[0], operators.BooleanKind(cols[1])
		input1, input2, float1, float2, file, output := cols[2], cols[3], cols[4], cols[5], cols[6], cols[7]

		if family, err := operators.FamilyOf(string(kind)); err != nil || family != operators.FamilyBoolean {
			return &operators.KindError{Kind: string(kind), Family: operators.FamilyBoolean}
		}

		var op *operators.BooleanOperator

		switch {
		case kind.UsesConstant():
			constant, err := b.Float(row, labelOperatorConstant)
			if err != nil {
				return err
			}

			op, err = s.buildBooleanOperator(kind, float1, starfile.FormatFloat(constant), output)
			if err != nil {
				return err
			}
		case kind.FloatInputs() == 2:
			op, err = s.buildBooleanOperator(kind, float1, float2, output)
		case kind.UsesFile():
			op, err = s.buildBooleanOperator(kind, file, "", output)
		default:
			op, err = s.buildBooleanOperator(kind, input1, input2, output)
		}

		if err != nil {
			return err
		}

		op.Name = name

		return s.registerBooleanOperator(op)
	})
}

func (s *Schedule) readFloatOperators(f *starfile.File) error {
	return forEachRow(f, sectionFloatOperators, func(b *starfile.Block, row int) error {
		cols, err := columns(b, row,
			labelOperatorName, labelOperatorType,
			labelOperatorInput1, labelOperatorInput2, labelOperatorOutput)
		if err != nil {
			return err
		}

		name, kind := cols[0], operators.FloatKind(cols[1])
		input1, input2, output := cols[2], cols[3], cols[4]

		if family, err := operators.FamilyOf(string(kind)); err != nil || family != operators.FamilyFloat {
			return &operators.KindError{Kind: string(kind), Family: operators.FamilyFloat}
		}

		if kind.UsesConstant() {
			constant, err := b.Float(row, labelOperatorConstant)
			if err != nil {
				return err
			}

			input2 = starfile.FormatFloat(constant)
		}

		op, err := s.buildFloatOperator(kind, input1, input2, output)
		if err != nil {
			return err
		}

		op.Name = name

		return s.registerFloatOperator(op)
	})
}

func (s *Schedule) readStringOperators(f *starfile.File) error {
	return forEachRow(f, sectionStringOperators, func(b *starfile.Block, row int) error {
		cols, err := columns(b, row,
			labelOperatorName, labelOperatorType, labelOperatorInput1, labelOperatorOutput)
		if err != nil {
			return err
		}

		kind := operators.StringKind(cols[1])
		if family, err := operators.FamilyOf(string(kind)); err != nil || family != operators.FamilyString {
			return &operators.KindError{Kind: string(kind), Family: operators.FamilyString}
		}

		op, err := s.buildStringOperator(kind, cols[2], cols[3])
		if err != nil {
			return err
		}

		op.Name = cols[0]

		return s.registerStringOperator(op)
	})
}

func (s *Schedule) readNodes(f *starfile.File) error {
	return forEachRow(f, sectionNodes, func(b *starfile.Block, row int) error {
		cols, err := columns(b, row, labelNodeName, labelNodeType)
		if err != nil {
			return err
		}

		name := cols[0]

		var n Node

		switch NodeType(cols[1]) {
		case NodeJob:
			job, err := columns(b, row, labelNodeOriginalName, labelNodeJobMode)
			if err != nil {
				return err
			}

			started, err := b.Bool(row, labelNodeJobStarted)
			if err != nil {
				return err
			}

			n = &JobNode{Name: name, OriginalName: job[0], Mode: job[1], Started: started}
		case NodeBooleanOperator:
			op, err := s.FindBooleanOperator(name)
			if err != nil {
				return err
			}

			n = &BooleanOperatorNode{Operator: op}
		case NodeFloatOperator:
			op, err := s.FindFloatOperator(name)
			if err != nil {
				return err
			}

			n = &FloatOperatorNode{Operator: op}
		case NodeStringOperator:
			op, err := s.FindStringOperator(name)
			if err != nil {
				return err
			}

			n = &StringOperatorNode{Operator: op}
		case NodeTimerWait:
			wait, err := b.Float(row, labelNodeWaitTime)
			if err != nil {
				return err
			}

			n = &TimerWaitNode{Name: name, WaitSeconds: wait}
		case NodeExit:
			n = &ExitNode{Name: name}
		default:
			return fmt.Errorf("node %s: %w: %q", name, ErrUnknownKind, cols[1])
		}

		return s.addNode(n)
	})
}

func (s *Schedule) readEdges(f *starfile.File) error {
	return forEachRow(f, sectionEdges, func(b *starfile.Block, row int) error {
		cols, err := columns(b, row, labelEdgeInput, labelEdgeOutput, labelEdgeOutputFalse, labelEdgeBoolean)
		if err != nil {
			return err
		}

		fork, err := b.Bool(row, labelEdgeIsFork)
		if err != nil {
			return err
		}

		in, err := s.FindNode(cols[0])
		if err != nil {
			return err
		}

		out, err := s.FindNode(cols[1])
		if err != nil {
			return err
		}

		if !fork {
			s.appendEdge(&Edge{Input: in, Output: out})

			return nil
		}

		cond, err := s.FindBooleanVariable(cols[3])
		if err != nil {
			return err
		}

		outFalse, err := s.FindNode(cols[2])
		if err != nil {
			return err
		}

		s.appendEdge(&Edge{Input: in, Output: out, OutputFalse: outFalse, Fork: true, Condition: cond})

		return nil
	})
}
