// Package schedule models a workflow as a directed graph of jobs, in-graph
// operators, timed waits and exits, walks it one job at a time and persists
// the whole graph together with its runtime state.
package schedule

import (
	"context"
	"log/slog"

	"github.com/dukex/pipesched/pkg/log"
	"github.com/dukex/pipesched/pkg/operators"
	"github.com/dukex/pipesched/pkg/variables"
)

// Undefined is written in place of absent names and strings.
const Undefined = "undefined"

// Notification is sent when traversal reaches an Exit node.
type Notification struct {
	Schedule string
	Address  string
	Message  string
}

// Notifier delivers completion notifications. Delivery failures are logged and
// never returned to the traversal caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Option configures a Schedule.
type Option func(*Schedule)

// WithLogger sets the logger used for traversal messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Schedule) {
		s.logger = logger
	}
}

// WithNotifier sets the collaborator that receives completion notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Schedule) {
		s.notifier = n
	}
}

// WithClock replaces the wall clock used by timer wait nodes.
func WithClock(c Clock) Option {
	return func(s *Schedule) {
		s.clock = c
	}
}

// WithPacer shares timer pacing state with other loads of the same schedule.
func WithPacer(p *Pacer) Option {
	return func(s *Schedule) {
		s.pacer = p
	}
}

// Schedule is the aggregate root: graph, variables and traversal position.
// A Schedule is not safe for concurrent use.
type Schedule struct {
	name  string
	email string

	vars *variables.Store

	booleanOps    []*operators.BooleanOperator
	floatOps      []*operators.FloatOperator
	stringOps     []*operators.StringOperator
	booleanOpByID map[string]*operators.BooleanOperator
	floatOpByID   map[string]*operators.FloatOperator
	stringOpByID  map[string]*operators.StringOperator

	nodes      []Node
	nodeByName map[string]Node
	edges      []*Edge
	outgoing   map[string]*Edge

	current Node
	start   Node

	logger   *slog.Logger
	notifier Notifier
	clock    Clock
	pacer    *Pacer
}

// New creates an empty schedule.
func New(name string, opts ...Option) *Schedule {
	s := &Schedule{
		name:          name,
		vars:          variables.NewStore(),
		booleanOpByID: make(map[string]*operators.BooleanOperator),
		floatOpByID:   make(map[string]*operators.FloatOperator),
		stringOpByID:  make(map[string]*operators.StringOperator),
		nodeByName:    make(map[string]Node),
		outgoing:      make(map[string]*Edge),
		logger:        log.WithModule("schedule"),
		clock:         systemClock{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.pacer == nil {
		s.pacer = NewPacer()
	}

	s.logger = s.logger.With("schedule", name)

	return s
}

func (s *Schedule) Name() string { return s.name }

func (s *Schedule) EmailAddress() string { return s.email }

// SetEmailAddress sets the address that receives the completion notification.
func (s *Schedule) SetEmailAddress(address string) { s.email = address }

// Variables exposes the variable store.
func (s *Schedule) Variables() *variables.Store { return s.vars }

func (s *Schedule) Nodes() []Node { return s.nodes }

func (s *Schedule) Edges() []*Edge { return s.edges }

func (s *Schedule) BooleanOperators() []*operators.BooleanOperator { return s.booleanOps }

func (s *Schedule) FloatOperators() []*operators.FloatOperator { return s.floatOps }

func (s *Schedule) StringOperators() []*operators.StringOperator { return s.stringOps }

// Jobs returns the job nodes in definition order.
func (s *Schedule) Jobs() []*JobNode {
	var jobs []*JobNode

	for _, n := range s.nodes {
		if j, ok := n.(*JobNode); ok {
			jobs = append(jobs, j)
		}
	}

	return jobs
}

// CurrentNode returns the node traversal is positioned on, or nil before the first advance.
func (s *Schedule) CurrentNode() Node { return s.current }

// StartNode returns the designated entry point, or nil.
func (s *Schedule) StartNode() Node { return s.start }

func (s *Schedule) FindNode(name string) (Node, error) {
	n, ok := s.nodeByName[name]
	if !ok {
		return nil, notFound(KindNode, name)
	}

	return n, nil
}

func (s *Schedule) FindJob(name string) (*JobNode, error) {
	n, ok := s.nodeByName[name]
	if !ok {
		return nil, notFound(KindJob, name)
	}

	j, ok := n.(*JobNode)
	if !ok {
		return nil, notFound(KindJob, name)
	}

	return j, nil
}

func (s *Schedule) FindFloatVariable(name string) (*variables.Float, error) {
	return s.vars.Float(name)
}

// FindBooleanVariable resolves a boolean variable. The name NULL yields (nil, nil).
func (s *Schedule) FindBooleanVariable(name string) (*variables.Boolean, error) {
	return s.vars.Boolean(name)
}

func (s *Schedule) FindStringVariable(name string) (*variables.String, error) {
	return s.vars.String(name)
}

func (s *Schedule) FindBooleanOperator(name string) (*operators.BooleanOperator, error) {
	op, ok := s.booleanOpByID[name]
	if !ok {
		return nil, notFound(KindBooleanOperator, name)
	}

	return op, nil
}

func (s *Schedule) FindFloatOperator(name string) (*operators.FloatOperator, error) {
	op, ok := s.floatOpByID[name]
	if !ok {
		return nil, notFound(KindFloatOperator, name)
	}

	return op, nil
}

func (s *Schedule) FindStringOperator(name string) (*operators.StringOperator, error) {
	op, ok := s.stringOpByID[name]
	if !ok {
		return nil, notFound(KindStringOperator, name)
	}

	return op, nil
}

func (s *Schedule) IsFloatVariable(name string) bool { return s.vars.HasFloat(name) }

func (s *Schedule) IsBooleanVariable(name string) bool { return s.vars.HasBoolean(name) }

func (s *Schedule) IsStringVariable(name string) bool { return s.vars.HasString(name) }

func (s *Schedule) IsNode(name string) bool {
	_, ok := s.nodeByName[name]

	return ok
}

func (s *Schedule) IsJob(name string) bool {
	_, err := s.FindJob(name)

	return err == nil
}

// SetCurrentNode positions traversal on the named node.
func (s *Schedule) SetCurrentNode(name string) error {
	n, err := s.FindNode(name)
	if err != nil {
		return err
	}

	s.current = n

	return nil
}

// SetStartNode designates the entry point used when traversal has not started.
func (s *Schedule) SetStartNode(name string) error {
	n, err := s.FindNode(name)
	if err != nil {
		return err
	}

	s.start = n

	return nil
}

func (s *Schedule) SetFloatValue(name string, value float64) error {
	v, err := s.vars.Float(name)
	if err != nil {
		return err
	}

	v.Value = value

	return nil
}

func (s *Schedule) SetBooleanValue(name string, value bool) error {
	v, err := s.vars.Boolean(name)
	if err != nil {
		return err
	}

	if v == nil {
		return notFound(variables.KindBoolean, name)
	}

	v.Value = value

	return nil
}

func (s *Schedule) SetStringValue(name, value string) error {
	v, err := s.vars.String(name)
	if err != nil {
		return err
	}

	v.Value = value

	return nil
}

// MarkJobStarted records whether the caller has launched the job's external work.
func (s *Schedule) MarkJobStarted(name string, started bool) error {
	j, err := s.FindJob(name)
	if err != nil {
		return err
	}

	j.Started = started

	return nil
}

// Reset restores every variable to its original value, clears the started
// flag of every job and rewinds traversal so the next advance lands on the
// start node.
func (s *Schedule) Reset() {
	s.vars.Reset()

	for _, j := range s.Jobs() {
		j.Started = false
	}

	s.current = nil
	s.pacer.reset()
}
