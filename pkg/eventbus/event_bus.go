// Package eventbus publishes schedule lifecycle events over watermill.
package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/pipesched/pkg/events"
)

// ErrUnexpectedEvent is returned by typed handlers given a payload of another event type.
var ErrUnexpectedEvent = errors.New("unexpected event payload")

// Event is anything in pkg/events that can travel on events.Topic.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes an event keyed by schedule name, so all events of
// one schedule land on the same partition.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event struct. A returned
// error nacks the message.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// HandleEvent registers fn for eventType with the decoded payload already
// asserted to *T.
func HandleEvent[T any](sub EventSubscriber, eventType events.EventType, fn func(ctx context.Context, event *T) error) error {
	return sub.Handle(eventType, func(ctx context.Context, event any) error {
		typed, ok := event.(*T)
		if !ok {
			return fmt.Errorf("%s: got %T: %w", eventType, event, ErrUnexpectedEvent)
		}

		return fn(ctx, typed)
	})
}
