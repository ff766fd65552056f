// Package events defines event types and structures for schedule lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every schedule event.
const Topic = "pipesched.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ScheduleFinishedEvent EventType = "schedule.finished"
	ScheduleResetEvent    EventType = "schedule.reset"
	JobDispatchedEvent    EventType = "schedule.job.dispatched"
	TraversalFailedEvent  EventType = "schedule.traversal.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Schedule  string         `json:"schedule"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ScheduleFinished is published when traversal reaches an Exit node.
type ScheduleFinished struct {
	BaseEvent

	Address string `json:"address,omitempty"`
	Message string `json:"message"`
}

func (e ScheduleFinished) GetType() EventType {
	return ScheduleFinishedEvent
}

// ScheduleReset is published after variables and traversal position were restored.
type ScheduleReset struct {
	BaseEvent
}

func (e ScheduleReset) GetType() EventType {
	return ScheduleResetEvent
}

// JobDispatched is published when the runner hands a job to its launcher.
type JobDispatched struct {
	BaseEvent

	Job          string `json:"job"`
	OriginalName string `json:"original_name"`
	Mode         string `json:"mode"`
	Resumed      bool   `json:"resumed"`
}

func (e JobDispatched) GetType() EventType {
	return JobDispatchedEvent
}

// TraversalFailed is published when advancing the graph returns an error.
type TraversalFailed struct {
	BaseEvent

	Node  string `json:"node,omitempty"`
	Error string `json:"error"`
}

func (e TraversalFailed) GetType() EventType {
	return TraversalFailedEvent
}

func NewBaseEvent(eventType EventType, schedule string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Schedule:  schedule,
		Metadata:  make(map[string]any),
	}
}
