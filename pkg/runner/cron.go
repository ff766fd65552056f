package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// CronRunner runs schedules on cron expressions. A pass that is still running
// when its next tick fires is skipped.
type CronRunner struct {
	runner *Runner
	logger *slog.Logger
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mutex sync.Mutex
	jobs  map[string]cron.EntryID
}

func NewCronRunner(runner *Runner, logger *slog.Logger) *CronRunner {
	cl := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	return &CronRunner{
		runner: runner,
		logger: logger.With("module", "cron_runner"),
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		)),
		jobs: make(map[string]cron.EntryID),
	}
}

// Add registers name to be run on spec. Re-adding a schedule replaces its entry.
func (c *CronRunner) Add(name, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression '%s' for schedule %s: %w", spec, name, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if id, exists := c.jobs[name]; exists {
		c.cron.Remove(id)
	}

	id, err := c.cron.AddFunc(spec, func() { c.pass(name) })
	if err != nil {
		return fmt.Errorf("failed to add cron job for schedule %s: %w", name, err)
	}

	c.jobs[name] = id
	c.logger.Info("added cron job", "schedule", name, "cron", spec, "entry_id", id)

	return nil
}

// Remove unregisters name.
func (c *CronRunner) Remove(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if id, exists := c.jobs[name]; exists {
		c.cron.Remove(id)
		delete(c.jobs, name)
	}
}

func (c *CronRunner) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.cron.Start()
	c.logger.Info("cron runner started", "schedules", len(c.jobs))
}

// Stop cancels running passes and waits for them to return.
func (c *CronRunner) Stop() {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.cron.Stop().Done()
	c.logger.Info("cron runner stopped")
}

func (c *CronRunner) pass(name string) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	launched, err := c.runner.Run(ctx, name)
	if err != nil {
		c.logger.ErrorContext(ctx, "scheduled pass failed", "schedule", name, "jobs", len(launched), "error", err)

		return
	}

	c.logger.InfoContext(ctx, "scheduled pass finished", "schedule", name, "jobs", len(launched))
}
