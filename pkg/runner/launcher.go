package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dukex/pipesched/pkg/schedule"
)

var ErrNoJobCommand = errors.New("no job command configured")

// JobLauncher runs the external work behind a job node and returns once it
// has finished.
type JobLauncher interface {
	Launch(ctx context.Context, scheduleName string, job schedule.JobInfo) error
}

// LauncherFunc adapts a function to JobLauncher.
type LauncherFunc func(ctx context.Context, scheduleName string, job schedule.JobInfo) error

func (f LauncherFunc) Launch(ctx context.Context, scheduleName string, job schedule.JobInfo) error {
	return f(ctx, scheduleName, job)
}

// CommandRunner runs a shell command line and returns its combined output.
type CommandRunner func(ctx context.Context, command string) ([]byte, error)

func shellRunner(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
}

// CommandLauncher expands a command template for every job and runs it with
// sh -c. Supported placeholders: {schedule}, {name}, {original_name}, {mode},
// {started}. Values are single-quoted.
type CommandLauncher struct {
	template string
	run      CommandRunner
	logger   *slog.Logger
}

func NewCommandLauncher(template string, logger *slog.Logger) *CommandLauncher {
	return &CommandLauncher{template: template, run: shellRunner, logger: logger}
}

// WithRunner replaces the process runner.
func (c *CommandLauncher) WithRunner(run CommandRunner) *CommandLauncher {
	c.run = run

	return c
}

// Command expands the template for job.
func (c *CommandLauncher) Command(scheduleName string, job schedule.JobInfo) string {
	return strings.NewReplacer(
		"{schedule}", shellQuote(scheduleName),
		"{name}", shellQuote(job.Name),
		"{original_name}", shellQuote(job.OriginalName),
		"{mode}", shellQuote(job.Mode),
		"{started}", strconv.FormatBool(job.Started),
	).Replace(c.template)
}

func (c *CommandLauncher) Launch(ctx context.Context, scheduleName string, job schedule.JobInfo) error {
	if strings.TrimSpace(c.template) == "" {
		return ErrNoJobCommand
	}

	command := c.Command(scheduleName, job)
	c.logger.InfoContext(ctx, "launching job", "schedule", scheduleName, "job", job.Name, "command", command)

	out, err := c.run(ctx, command)
	if err != nil {
		return fmt.Errorf("job %s: %w: %s", job.Name, err, strings.TrimSpace(string(out)))
	}

	c.logger.DebugContext(ctx, "job finished", "schedule", scheduleName, "job", job.Name, "output", string(out))

	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
