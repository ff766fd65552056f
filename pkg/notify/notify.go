// Package notify implements the collaborators that deliver schedule
// completion notifications.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/pipesched/pkg/eventbus"
	"github.com/dukex/pipesched/pkg/events"
	"github.com/dukex/pipesched/pkg/metrics"
	"github.com/dukex/pipesched/pkg/schedule"
)

// EventNotifier publishes a ScheduleFinished event for every notification.
type EventNotifier struct {
	bus eventbus.EventPublisher
}

func NewEventNotifier(bus eventbus.EventPublisher) *EventNotifier {
	return &EventNotifier{bus: bus}
}

func (e *EventNotifier) Notify(ctx context.Context, n schedule.Notification) error {
	event := events.ScheduleFinished{
		BaseEvent: events.NewBaseEvent(events.ScheduleFinishedEvent, n.Schedule),
		Address:   n.Address,
		Message:   n.Message,
	}

	err := e.bus.Publish(ctx, n.Schedule, event)
	metrics.RecordNotification("event", err)

	return err
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n schedule.Notification) error {
	l.logger.InfoContext(ctx, "schedule reports", "schedule", n.Schedule, "address", n.Address, "message", n.Message)

	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []schedule.Notifier

func (m Multi) Notify(ctx context.Context, n schedule.Notification) error {
	var errs []error

	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
