package schedule

import (
	"context"
	"fmt"
)

// CompletionMessage is the notification text sent when an Exit node is reached.
const CompletionMessage = "Finished successfully!"

// AdvanceNode moves the traversal one edge forward. It reports false when the
// current node has no outgoing edge, leaving the position unchanged.
func (s *Schedule) AdvanceNode() (bool, error) {
	if s.current == nil {
		if s.start == nil {
			if len(s.nodes) == 0 {
				return false, &StructuralError{Reason: "schedule has no nodes"}
			}

			s.logger.Warn("start node was not defined, assuming it is the first node in the list", "node", s.nodes[0].NodeName())
			s.start = s.nodes[0]
		}

		s.current = s.start
		s.logger.Debug("setting current node to start node", "node", s.current.NodeName())

		return true, nil
	}

	edge, ok := s.outgoing[s.current.NodeName()]
	if !ok {
		return false, nil
	}

	next, err := edge.Next()
	if err != nil {
		return false, err
	}

	if next == nil {
		return false, nil
	}

	s.current = next

	return true, nil
}

// AdvanceToNextJob walks the graph from the current position, executing
// operator and timer nodes along the way, until it reaches a job. It returns
// false when an Exit node or a dead end is reached. Reaching an Exit node
// sends exactly one completion notification.
func (s *Schedule) AdvanceToNextJob(ctx context.Context) (JobInfo, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return JobInfo{}, false, err
		}

		advanced, err := s.AdvanceNode()
		if err != nil {
			return JobInfo{}, false, err
		}

		if !advanced {
			s.logger.DebugContext(ctx, "no outgoing edge, nothing left to run", "node", s.current.NodeName())

			return JobInfo{}, false, nil
		}

		s.logger.DebugContext(ctx, "current node", "node", s.current.NodeName(), "type", s.current.NodeType())

		switch n := s.current.(type) {
		case *JobNode:
			return JobInfo{
				Name:         n.Name,
				OriginalName: n.OriginalName,
				Mode:         n.Mode,
				Started:      n.Started,
			}, true, nil
		case *ExitNode:
			s.logger.InfoContext(ctx, "reached an exit of the schedule", "node", n.Name)
			s.notify(ctx, CompletionMessage)

			return JobInfo{}, false, nil
		case *TimerWaitNode:
			slept, err := s.pacer.wait(ctx, s.clock, n.WaitSeconds)
			if err != nil {
				return JobInfo{}, false, fmt.Errorf("timer %s: %w", n.Name, err)
			}

			if slept > 0 {
				s.logger.DebugContext(ctx, "timer waited", "node", n.Name, "duration", slept)
			}
		case *BooleanOperatorNode:
			if err := n.Operator.Evaluate(); err != nil {
				return JobInfo{}, false, err
			}
		case *FloatOperatorNode:
			if err := n.Operator.Evaluate(); err != nil {
				return JobInfo{}, false, err
			}
		case *StringOperatorNode:
			if err := n.Operator.Evaluate(); err != nil {
				return JobInfo{}, false, err
			}
		}
	}
}

func (s *Schedule) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}

	n := Notification{Schedule: s.name, Address: s.email, Message: message}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to send notification", "address", s.email, "error", err)
	}
}
