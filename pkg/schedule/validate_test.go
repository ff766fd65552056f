package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structuralReasons(err error) []string {
	var reasons []string

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var se *StructuralError
			if errors.As(e, &se) {
				reasons = append(reasons, se.Reason)
			}
		}

		return reasons
	}

	var se *StructuralError
	if errors.As(err, &se) {
		reasons = append(reasons, se.Reason)
	}

	return reasons
}

func TestValidate_WellFormed(t *testing.T) {
	s, _, _ := loopSchedule(t)
	assert.NoError(t, s.Validate())
}

func TestValidate_Empty(t *testing.T) {
	s := New("empty", WithLogger(quietLogger()))
	assert.True(t, IsStructural(s.Validate()))
}

func TestValidate_MissingStartAndExit(t *testing.T) {
	s := New("broken", WithLogger(quietLogger()))
	require.NoError(t, s.AddTimerNode("a", 0))
	require.NoError(t, s.AddTimerNode("b", 0))
	require.NoError(t, s.AddEdge("a", "b"))

	err := s.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{"start node is not defined"}, structuralReasons(err))

	require.NoError(t, s.SetStartNode("a"))

	err = s.Validate()
	assert.Equal(t, []string{"no exit node is reachable from the start node"}, structuralReasons(err))
}

func TestValidate_ExitReachableThroughFalseBranch(t *testing.T) {
	s := New("fork", WithLogger(quietLogger()))
	require.NoError(t, s.AddBooleanVariable("c", true))
	require.NoError(t, s.AddTimerNode("a", 0))
	require.NoError(t, s.AddTimerNode("loop", 0))
	exit, err := s.AddExitNode()
	require.NoError(t, err)

	require.NoError(t, s.AddFork("a", "c", "loop", exit))
	require.NoError(t, s.AddEdge("loop", "a"))
	require.NoError(t, s.SetStartNode("a"))

	assert.NoError(t, s.Validate())
}

func TestValidate_DuplicateOutgoingEdges(t *testing.T) {
	s := New("dup", WithLogger(quietLogger()))
	require.NoError(t, s.AddTimerNode("a", 0))
	exit, err := s.AddExitNode()
	require.NoError(t, err)

	require.NoError(t, s.AddEdge("a", exit))
	require.NoError(t, s.AddEdge("a", exit))
	require.NoError(t, s.AddEdge("a", exit))
	require.NoError(t, s.SetStartNode("a"))

	err = s.Validate()
	assert.True(t, IsStructural(err))
	assert.Equal(t, []string{"more than one outgoing edge"}, structuralReasons(err))
}

func TestValidate_AggregatesAllProblems(t *testing.T) {
	s := New("many", WithLogger(quietLogger()))
	require.NoError(t, s.AddTimerNode("a", 0))
	require.NoError(t, s.AddEdge("a", "a"))
	require.NoError(t, s.AddEdge("a", "a"))

	reasons := structuralReasons(s.Validate())
	assert.ElementsMatch(t, []string{"start node is not defined", "more than one outgoing edge"}, reasons)
}
