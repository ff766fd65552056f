package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dukex/pipesched/pkg/cmd"
	"github.com/dukex/pipesched/pkg/config"
	"github.com/dukex/pipesched/pkg/eventbus"
	"github.com/dukex/pipesched/pkg/log"
	"github.com/dukex/pipesched/pkg/notify"
	"github.com/dukex/pipesched/pkg/otelhelper"
	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/runner"
	"github.com/dukex/pipesched/pkg/schedule"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// env holds what every subcommand needs: config, store, event bus and tracer.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	out      io.Writer
	store    persistence.Persistence
	bus      eventbus.EventBus
	tracer   trace.Tracer
	shutdown otelhelper.ShutdownFunc
}

func loadConfig(command *cli.Command) config.Config {
	return config.Config{
		DatabaseURL: command.String("database-url"),
		EventBus:    command.String("event-bus"),
		LogLevel:    command.String("log-level"),
		JobCommand:  command.String("job-command"),
		MailCommand: command.String("mail-command"),
		Tracing:     command.Bool("tracing"),
		Port:        command.Int("port"),
		CronSpec:    command.String("cron"),
	}
}

func newEnv(ctx context.Context, command *cli.Command) (*env, error) {
	cfg := loadConfig(command)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithModule("pipesched")

	store, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	bus, err := cmd.NewEventBus(cfg.EventBus, logger, cfg.Tracing)
	if err != nil {
		_ = store.Close(ctx)

		return nil, err
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, "pipesched", cfg.Tracing)
	if err != nil {
		if bus != nil {
			_ = bus.Close()
		}

		_ = store.Close(ctx)

		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		out:      command.Root().Writer,
		store:    store,
		bus:      bus,
		tracer:   tracer,
		shutdown: shutdown,
	}, nil
}

func (e *env) Close(ctx context.Context) {
	if err := e.shutdown(ctx); err != nil {
		e.logger.ErrorContext(ctx, "failed to flush traces", "error", err)
	}

	if e.bus != nil {
		if err := e.bus.Close(); err != nil {
			e.logger.ErrorContext(ctx, "failed to close event bus", "error", err)
		}
	}

	if err := e.store.Close(ctx); err != nil {
		e.logger.ErrorContext(ctx, "failed to close persistence", "error", err)
	}
}

func (e *env) notifier() schedule.Notifier {
	n := notify.Multi{
		notify.NewLogNotifier(e.logger),
		notify.NewMailNotifier(e.cfg.MailCommand, e.logger),
	}

	if e.bus != nil {
		n = append(n, notify.NewEventNotifier(e.bus))
	}

	return n
}

func (e *env) scheduleOptions() []schedule.Option {
	return []schedule.Option{
		schedule.WithLogger(log.WithModule("schedule")),
		schedule.WithNotifier(e.notifier()),
	}
}

func (e *env) runner() *runner.Runner {
	opts := []runner.Option{
		runner.WithTracer(e.tracer),
		runner.WithScheduleOptions(e.scheduleOptions()...),
	}

	if e.bus != nil {
		opts = append(opts, runner.WithEventBus(e.bus))
	}

	return runner.New(e.store, runner.NewCommandLauncher(e.cfg.JobCommand, e.logger), e.logger, opts...)
}

func (e *env) load(ctx context.Context, name string) (*schedule.Schedule, error) {
	return e.store.ScheduleByName(ctx, name, e.scheduleOptions()...)
}

// edit loads the schedule, applies fn and saves the result.
func (e *env) edit(ctx context.Context, name string, fn func(s *schedule.Schedule) error) error {
	s, err := e.load(ctx, name)
	if err != nil {
		return err
	}

	if err := fn(s); err != nil {
		return err
	}

	return e.store.SaveSchedule(ctx, s)
}

// withEnv wraps an action with environment setup and teardown.
func withEnv(action func(ctx context.Context, command *cli.Command, e *env) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		e, err := newEnv(ctx, command)
		if err != nil {
			return err
		}
		defer e.Close(ctx)

		return action(ctx, command, e)
	}
}
