package schedule

import (
	"github.com/dukex/pipesched/pkg/operators"
	"github.com/dukex/pipesched/pkg/variables"
)

// NodeType is the tag persisted for every node.
type NodeType string

const (
	NodeJob             NodeType = "job"
	NodeBooleanOperator NodeType = "bool_op"
	NodeFloatOperator   NodeType = "float_op"
	NodeStringOperator  NodeType = "string_op"
	NodeTimerWait       NodeType = "timer_wait"
	NodeExit            NodeType = "exit"
)

// Job modes accepted by AddJobNode.
const (
	ModeNew       = "new"
	ModeContinue  = "continue"
	ModeOverwrite = "overwrite"
)

// JobMarker is the file that must exist in a job directory before it can be added.
const JobMarker = "job.star"

// Node is a vertex of the schedule graph. The concrete types are *JobNode,
// *BooleanOperatorNode, *FloatOperatorNode, *StringOperatorNode,
// *TimerWaitNode and *ExitNode.
type Node interface {
	NodeName() string
	NodeType() NodeType
	node()
}

// JobNode is a unit of external work. Traversal stops here and hands it to the caller.
type JobNode struct {
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Mode         string `json:"mode" validate:"oneof=new continue overwrite"`
	Started      bool   `json:"started"`
}

func (n *JobNode) NodeName() string   { return n.Name }
func (n *JobNode) NodeType() NodeType { return NodeJob }
func (*JobNode) node()                {}

// BooleanOperatorNode places a boolean operator in the graph.
type BooleanOperatorNode struct {
	Operator *operators.BooleanOperator
}

func (n *BooleanOperatorNode) NodeName() string   { return n.Operator.Name }
func (n *BooleanOperatorNode) NodeType() NodeType { return NodeBooleanOperator }
func (*BooleanOperatorNode) node()                {}

// FloatOperatorNode places a float operator in the graph.
type FloatOperatorNode struct {
	Operator *operators.FloatOperator
}

func (n *FloatOperatorNode) NodeName() string   { return n.Operator.Name }
func (n *FloatOperatorNode) NodeType() NodeType { return NodeFloatOperator }
func (*FloatOperatorNode) node()                {}

// StringOperatorNode places a file operator in the graph.
type StringOperatorNode struct {
	Operator *operators.StringOperator
}

func (n *StringOperatorNode) NodeName() string   { return n.Operator.Name }
func (n *StringOperatorNode) NodeType() NodeType { return NodeStringOperator }
func (*StringOperatorNode) node()                {}

// TimerWaitNode enforces a minimum interval between successive passes.
type TimerWaitNode struct {
	Name        string
	WaitSeconds float64
}

func (n *TimerWaitNode) NodeName() string   { return n.Name }
func (n *TimerWaitNode) NodeType() NodeType { return NodeTimerWait }
func (*TimerWaitNode) node()                {}

// ExitNode terminates traversal and triggers the completion notification.
type ExitNode struct {
	Name string
}

func (n *ExitNode) NodeName() string   { return n.Name }
func (n *ExitNode) NodeType() NodeType { return NodeExit }
func (*ExitNode) node()                {}

// Edge connects Input to Output, or for a fork, to Output or OutputFalse
// depending on the value of Condition at traversal time.
type Edge struct {
	Input       Node
	Output      Node
	OutputFalse Node
	Fork        bool
	Condition   *variables.Boolean
}

// Next returns the destination selected by the current condition value.
func (e *Edge) Next() (Node, error) {
	if !e.Fork {
		return e.Output, nil
	}

	if e.Condition == nil {
		return nil, &StructuralError{Node: e.Input.NodeName(), Reason: "fork without a condition variable"}
	}

	if e.Condition.Value {
		return e.Output, nil
	}

	return e.OutputFalse, nil
}

// JobInfo is what AdvanceToNextJob reports for the job it stopped at.
type JobInfo struct {
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Mode         string `json:"mode"`
	Started      bool   `json:"started"`
}
