// Package web provides HTTP response types for the schedule status API.
package web

import (
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/dukex/pipesched/pkg/variables"
)

type ScheduleList struct {
	Schedules  []string `json:"schedules"`
	TotalCount int      `json:"total_count"`
}

type ScheduleView struct {
	Name        string      `json:"name"`
	Email       string      `json:"email,omitempty"`
	CurrentNode string      `json:"current_node,omitempty"`
	StartNode   string      `json:"start_node,omitempty"`
	Variables   VariableSet `json:"variables"`
	Nodes       []NodeView  `json:"nodes"`
	Edges       []EdgeView  `json:"edges"`
}

type VariableSet struct {
	Floats   []*variables.Float   `json:"floats"`
	Booleans []*variables.Boolean `json:"booleans"`
	Strings  []*variables.String  `json:"strings"`
}

type NodeView struct {
	Name        string            `json:"name"`
	Type        schedule.NodeType `json:"type"`
	Mode        string            `json:"mode,omitempty"`
	Started     *bool             `json:"started,omitempty"`
	WaitSeconds *float64          `json:"wait_seconds,omitempty"`
}

type EdgeView struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Fork      bool   `json:"fork,omitempty"`
	Condition string `json:"condition,omitempty"`
	ToIfFalse string `json:"to_if_false,omitempty"`
}

type ValidationResult struct {
	Name     string   `json:"name"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

func nodeName(n schedule.Node) string {
	if n == nil {
		return ""
	}

	return n.NodeName()
}

// NewScheduleView snapshots s for rendering.
func NewScheduleView(s *schedule.Schedule) ScheduleView {
	view := ScheduleView{
		Name:        s.Name(),
		Email:       s.EmailAddress(),
		CurrentNode: nodeName(s.CurrentNode()),
		StartNode:   nodeName(s.StartNode()),
		Variables: VariableSet{
			Floats:   s.Variables().Floats(),
			Booleans: s.Variables().Booleans(),
			Strings:  s.Variables().Strings(),
		},
		Nodes: make([]NodeView, 0, len(s.Nodes())),
		Edges: make([]EdgeView, 0, len(s.Edges())),
	}

	for _, n := range s.Nodes() {
		nv := NodeView{Name: n.NodeName(), Type: n.NodeType()}

		switch n := n.(type) {
		case *schedule.JobNode:
			nv.Mode = n.Mode
			nv.Started = &n.Started
		case *schedule.TimerWaitNode:
			nv.WaitSeconds = &n.WaitSeconds
		}

		view.Nodes = append(view.Nodes, nv)
	}

	for _, e := range s.Edges() {
		ev := EdgeView{From: nodeName(e.Input), To: nodeName(e.Output), Fork: e.Fork}
		if e.Fork {
			ev.ToIfFalse = nodeName(e.OutputFalse)
			if e.Condition != nil {
				ev.Condition = e.Condition.Name
			}
		}

		view.Edges = append(view.Edges, ev)
	}

	return view
}
