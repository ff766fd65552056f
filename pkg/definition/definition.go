// Package definition imports schedules from JSON documents.
//
// A definition names its nodes with local ids. Import builds the schedule
// through the schedule builder and translates ids to the generated node names
// (operator signatures, exit_N, job directories).
package definition

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var (
	ErrInvalidDefinition = errors.New("invalid schedule definition")
	ErrUnknownID         = errors.New("unknown node id")
	ErrDuplicateID       = errors.New("duplicate node id")
)

type Definition struct {
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Start     string    `json:"start,omitempty"`
	Variables Variables `json:"variables"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges,omitempty"`
}

type Variables struct {
	Floats   map[string]float64 `json:"floats,omitempty"`
	Booleans map[string]bool    `json:"booleans,omitempty"`
	Strings  map[string]string  `json:"strings,omitempty"`
}

type Node struct {
	ID       string    `json:"id"`
	Job      *Job      `json:"job,omitempty"`
	Operator *Operator `json:"operator,omitempty"`
	Timer    *Timer    `json:"timer,omitempty"`
	Exit     *struct{} `json:"exit,omitempty"`
}

type Job struct {
	Dir  string `json:"dir"`
	Mode string `json:"mode,omitempty"`
}

type Operator struct {
	Kind   string   `json:"kind"`
	Input1 string   `json:"input1,omitempty"`
	Input2 Argument `json:"input2,omitempty"`
	Output string   `json:"output"`
}

// Argument is a variable name or a numeric constant.
type Argument string

func (a *Argument) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Argument(strconv.FormatFloat(f, 'g', -1, 64))

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*a = Argument(s)

	return nil
}

type Timer struct {
	Seconds float64 `json:"seconds"`
}

// Edge is unconditional when To is set, a fork otherwise.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
	If   string `json:"if,omitempty"`
	Then string `json:"then,omitempty"`
	Else string `json:"else,omitempty"`
}

// Parse validates data against the definition schema and decodes it.
func Parse(data []byte) (*Definition, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(problems, "; "))
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	return &def, nil
}

// Read parses a definition from r.
func Read(r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Build creates the schedule described by def. The returned map translates
// node ids to schedule node names.
func (def *Definition) Build(opts ...schedule.Option) (*schedule.Schedule, map[string]string, error) {
	if len(def.Nodes) == 0 {
		return nil, nil, fmt.Errorf("%w: no nodes", ErrInvalidDefinition)
	}

	s := schedule.New(def.Name, opts...)
	s.SetEmailAddress(def.Email)

	if err := def.addVariables(s); err != nil {
		return nil, nil, err
	}

	names := make(map[string]string, len(def.Nodes))

	for _, n := range def.Nodes {
		if _, exists := names[n.ID]; exists {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}

		name, err := addNode(s, n)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", n.ID, err)
		}

		names[n.ID] = name
	}

	resolve := func(id string) (string, error) {
		name, ok := names[id]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownID, id)
		}

		return name, nil
	}

	for i, e := range def.Edges {
		if err := addEdge(s, e, resolve); err != nil {
			return nil, nil, fmt.Errorf("edge %d: %w", i+1, err)
		}
	}

	start := def.Start
	if start == "" {
		start = def.Nodes[0].ID
	}

	startName, err := resolve(start)
	if err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}

	if err := s.SetStartNode(startName); err != nil {
		return nil, nil, err
	}

	return s, names, nil
}

// Variables are added in name order so repeated imports write identical files.
func (def *Definition) addVariables(s *schedule.Schedule) error {
	for _, name := range slices.Sorted(maps.Keys(def.Variables.Floats)) {
		if err := s.AddFloatVariable(name, def.Variables.Floats[name]); err != nil {
			return err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(def.Variables.Booleans)) {
		if err := s.AddBooleanVariable(name, def.Variables.Booleans[name]); err != nil {
			return err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(def.Variables.Strings)) {
		if err := s.AddStringVariable(name, def.Variables.Strings[name]); err != nil {
			return err
		}
	}

	return nil
}

func addNode(s *schedule.Schedule, n Node) (string, error) {
	switch {
	case n.Job != nil:
		mode := n.Job.Mode
		if mode == "" {
			mode = schedule.ModeContinue
		}

		return s.AddJobNode(n.Job.Dir, mode)
	case n.Operator != nil:
		return s.AddOperatorNode(n.Operator.Kind, n.Operator.Input1, string(n.Operator.Input2), n.Operator.Output)
	case n.Timer != nil:
		return n.ID, s.AddTimerNode(n.ID, n.Timer.Seconds)
	case n.Exit != nil:
		return s.AddExitNode()
	default:
		return "", ErrInvalidDefinition
	}
}

func addEdge(s *schedule.Schedule, e Edge, resolve func(string) (string, error)) error {
	from, err := resolve(e.From)
	if err != nil {
		return err
	}

	if e.To != "" {
		to, err := resolve(e.To)
		if err != nil {
			return err
		}

		return s.AddEdge(from, to)
	}

	then, err := resolve(e.Then)
	if err != nil {
		return err
	}

	otherwise, err := resolve(e.Else)
	if err != nil {
		return err
	}

	return s.AddFork(from, e.If, then, otherwise)
}
