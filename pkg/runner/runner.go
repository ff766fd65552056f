// Package runner drives stored schedules: it advances a schedule to its next
// job, launches it and checkpoints the schedule after every finished job.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukex/pipesched/pkg/eventbus"
	"github.com/dukex/pipesched/pkg/events"
	"github.com/dukex/pipesched/pkg/log"
	"github.com/dukex/pipesched/pkg/metrics"
	"github.com/dukex/pipesched/pkg/otelhelper"
	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// StepResult reports what a single Step did.
type StepResult struct {
	Job  schedule.JobInfo
	Done bool
}

type Runner struct {
	store    persistence.Persistence
	launcher JobLauncher
	bus      eventbus.EventPublisher
	tracer   trace.Tracer
	logger   *slog.Logger
	opts     []schedule.Option

	mu     sync.Mutex
	pacers map[string]*schedule.Pacer
}

type Option func(*Runner)

// WithEventBus publishes JobDispatched, TraversalFailed and ScheduleReset events.
func WithEventBus(bus eventbus.EventPublisher) Option {
	return func(r *Runner) {
		r.bus = bus
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithScheduleOptions is applied to every schedule the runner loads.
func WithScheduleOptions(opts ...schedule.Option) Option {
	return func(r *Runner) {
		r.opts = append(r.opts, opts...)
	}
}

func New(store persistence.Persistence, launcher JobLauncher, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		launcher: launcher,
		tracer:   noop.NewTracerProvider().Tracer("pipesched"),
		logger:   logger.With("module", "runner"),
		pacers:   make(map[string]*schedule.Pacer),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Step loads the schedule, advances it to the next job and launches that job.
// The schedule is saved only after the job finished, so a failed traversal
// or launch leaves the stored checkpoint untouched.
func (r *Runner) Step(ctx context.Context, name string) (StepResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "schedule.step",
		attribute.String(otelhelper.ScheduleNameKey, name))
	defer span.End()

	logger := log.FromContextOr(ctx, r.logger)

	s, err := r.load(ctx, name)
	if err != nil {
		otelhelper.SetError(span, err)

		return StepResult{}, err
	}

	started := time.Now()
	job, ok, err := s.AdvanceToNextJob(ctx)

	if err != nil {
		metrics.RecordAdvance(name, "failed", time.Since(started))
		otelhelper.SetError(span, err, attribute.String(otelhelper.NodeNameKey, nodeName(s.CurrentNode())))
		logger.ErrorContext(ctx, "traversal failed", "schedule", name, "node", nodeName(s.CurrentNode()), "error", err)
		r.publish(ctx, name, events.TraversalFailed{
			BaseEvent: events.NewBaseEvent(events.TraversalFailedEvent, name),
			Node:      nodeName(s.CurrentNode()),
			Error:     err.Error(),
		})

		return StepResult{}, err
	}

	if !ok {
		metrics.RecordAdvance(name, "finished", time.Since(started))
		logger.InfoContext(ctx, "schedule has nothing left to run", "schedule", name)

		if err := r.store.SaveSchedule(ctx, s); err != nil {
			otelhelper.SetError(span, err)

			return StepResult{}, err
		}

		return StepResult{Done: true}, nil
	}

	metrics.RecordAdvance(name, "job", time.Since(started))
	span.SetAttributes(
		attribute.String(otelhelper.JobNameKey, job.Name),
		attribute.String(otelhelper.JobModeKey, job.Mode),
	)

	if err := r.launch(ctx, s, job); err != nil {
		otelhelper.SetError(span, err)

		return StepResult{Job: job}, err
	}

	return StepResult{Job: job}, nil
}

func (r *Runner) launch(ctx context.Context, s *schedule.Schedule, job schedule.JobInfo) error {
	name := s.Name()

	r.publish(ctx, name, events.JobDispatched{
		BaseEvent:    events.NewBaseEvent(events.JobDispatchedEvent, name),
		Job:          job.Name,
		OriginalName: job.OriginalName,
		Mode:         job.Mode,
		Resumed:      job.Started,
	})

	started := time.Now()
	err := r.launcher.Launch(ctx, name, job)
	metrics.RecordJob(name, time.Since(started), err)

	if err != nil {
		log.FromContextOr(ctx, r.logger).ErrorContext(ctx, "job failed", "schedule", name, "job", job.Name, "error", err)

		return err
	}

	if err := s.MarkJobStarted(job.Name, true); err != nil {
		return err
	}

	if err := r.store.SaveSchedule(ctx, s); err != nil {
		return fmt.Errorf("failed to checkpoint schedule %s after job %s: %w", name, job.Name, err)
	}

	return nil
}

// Run steps the schedule until it has nothing left to run. It returns the
// jobs launched, in order.
func (r *Runner) Run(ctx context.Context, name string) ([]schedule.JobInfo, error) {
	runID := uuid.NewString()

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "schedule.run",
		attribute.String(otelhelper.ScheduleNameKey, name),
		attribute.String(otelhelper.RunIDKey, runID))
	defer span.End()

	ctx = log.NewContext(ctx, log.FromContextOr(ctx, r.logger).With("run_id", runID))

	var launched []schedule.JobInfo

	for {
		if err := ctx.Err(); err != nil {
			return launched, err
		}

		result, err := r.Step(ctx, name)
		if err != nil {
			otelhelper.SetError(span, err)

			return launched, err
		}

		if result.Done {
			return launched, nil
		}

		launched = append(launched, result.Job)
	}
}

// Reset restores the stored schedule to its initial state.
func (r *Runner) Reset(ctx context.Context, name string) error {
	s, err := r.load(ctx, name)
	if err != nil {
		return err
	}

	s.Reset()

	if err := r.store.SaveSchedule(ctx, s); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "schedule reset", "schedule", name)
	r.publish(ctx, name, events.ScheduleReset{
		BaseEvent: events.NewBaseEvent(events.ScheduleResetEvent, name),
	})

	return nil
}

// load reads the schedule with the runner's options and the pacer kept for
// that schedule, so timer waits are measured across steps.
func (r *Runner) load(ctx context.Context, name string) (*schedule.Schedule, error) {
	opts := append(slices.Clone(r.opts), schedule.WithPacer(r.pacer(name)))

	return r.store.ScheduleByName(ctx, name, opts...)
}

func (r *Runner) pacer(name string) *schedule.Pacer {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pacers[name]
	if !ok {
		p = schedule.NewPacer()
		r.pacers[name] = p
	}

	return p
}

func (r *Runner) publish(ctx context.Context, name string, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, name, event); err != nil {
		log.FromContextOr(ctx, r.logger).WarnContext(ctx, "failed to publish event", "schedule", name, "type", event.GetType(), "error", err)
	}
}

func nodeName(n schedule.Node) string {
	if n == nil {
		return ""
	}

	return n.NodeName()
}

// IsNotFound reports whether err means the schedule does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, persistence.ErrScheduleNotFound)
}
