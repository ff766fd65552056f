package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/dukex/pipesched/pkg/metrics"
	"github.com/dukex/pipesched/pkg/schedule"
)

// DefaultMailCommand is the mail client invoked by MailNotifier.
const DefaultMailCommand = "mail"

// CommandRunner runs name with args and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// MailNotifier sends the notification through the system mail client.
type MailNotifier struct {
	command string
	run     CommandRunner
	logger  *slog.Logger
}

type MailOption func(*MailNotifier)

// WithCommandRunner replaces the process runner.
func WithCommandRunner(run CommandRunner) MailOption {
	return func(m *MailNotifier) {
		m.run = run
	}
}

func NewMailNotifier(command string, logger *slog.Logger, opts ...MailOption) *MailNotifier {
	if command == "" {
		command = DefaultMailCommand
	}

	m := &MailNotifier{command: command, run: execRunner, logger: logger}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Subject formats the mail subject line.
func Subject(scheduleName, message string) string {
	return "Schedule: " + scheduleName + " reports: " + message
}

// Notify is a no-op when the schedule has no address.
func (m *MailNotifier) Notify(ctx context.Context, n schedule.Notification) error {
	if n.Address == "" || n.Address == schedule.Undefined {
		return nil
	}

	out, err := m.run(ctx, m.command, "-s", Subject(n.Schedule, n.Message), n.Address)
	metrics.RecordNotification("mail", err)

	if err != nil {
		return fmt.Errorf("mail to %s failed: %w: %s", n.Address, err, out)
	}

	m.logger.DebugContext(ctx, "mail sent", "schedule", n.Schedule, "address", n.Address)

	return nil
}
