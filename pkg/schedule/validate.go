package schedule

import (
	"errors"
	"fmt"
)

// Validate checks the graph for structural defects: a defined entry point, a
// reachable Exit node, at most one outgoing edge per node, complete forks and
// operators that are each wrapped by exactly one node. All defects found are
// joined into the returned error.
func (s *Schedule) Validate() error {
	var errs []error

	if len(s.nodes) == 0 {
		return &StructuralError{Reason: "schedule has no nodes"}
	}

	if s.start == nil {
		errs = append(errs, &StructuralError{Reason: "start node is not defined"})
	}

	outgoing := make(map[string]int, len(s.edges))
	for _, e := range s.edges {
		name := e.Input.NodeName()
		outgoing[name]++

		if outgoing[name] == 2 {
			errs = append(errs, &StructuralError{Node: name, Reason: "more than one outgoing edge"})
		}

		if !e.Fork {
			continue
		}

		if e.Condition == nil {
			errs = append(errs, &StructuralError{Node: name, Reason: "fork without a condition variable"})
		}

		if e.OutputFalse == nil {
			errs = append(errs, &StructuralError{Node: name, Reason: "fork without a false branch"})
		}
	}

	errs = append(errs, s.validateOperators()...)

	if s.start != nil && !s.exitReachableFrom(s.start) {
		errs = append(errs, &StructuralError{Node: s.start.NodeName(), Reason: "no exit node is reachable from the start node"})
	}

	return errors.Join(errs...)
}

func (s *Schedule) validateOperators() []error {
	wrapped := make(map[string]int)

	for _, n := range s.nodes {
		switch n.(type) {
		case *BooleanOperatorNode, *FloatOperatorNode, *StringOperatorNode:
			wrapped[n.NodeName()]++
		}
	}

	var errs []error

	check := func(kind, name string) {
		if c := wrapped[name]; c != 1 {
			errs = append(errs, &StructuralError{Node: name, Reason: fmt.Sprintf("%s is wrapped by %d nodes", kind, c)})
		}
	}

	for _, op := range s.booleanOps {
		check(string(KindBooleanOperator), op.Name)
	}

	for _, op := range s.floatOps {
		check(string(KindFloatOperator), op.Name)
	}

	for _, op := range s.stringOps {
		check(string(KindStringOperator), op.Name)
	}

	return errs
}

// exitReachableFrom follows every edge, both branches of forks included.
func (s *Schedule) exitReachableFrom(start Node) bool {
	seen := map[string]bool{start.NodeName(): true}
	queue := []Node{start}

	adjacent := make(map[string][]Node, len(s.edges))
	for _, e := range s.edges {
		name := e.Input.NodeName()
		adjacent[name] = append(adjacent[name], e.Output)

		if e.Fork && e.OutputFalse != nil {
			adjacent[name] = append(adjacent[name], e.OutputFalse)
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.NodeType() == NodeExit {
			return true
		}

		for _, next := range adjacent[n.NodeName()] {
			if next == nil || seen[next.NodeName()] {
				continue
			}

			seen[next.NodeName()] = true
			queue = append(queue, next)
		}
	}

	return false
}
