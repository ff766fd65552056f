package otelhelper

import (
	"context"
	"errors"

	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorEvent is the span event added for every recorded failure.
const ErrorEvent = "schedule.error"

// ErrorKind maps err onto a small set of labels usable for span filtering.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, persistence.ErrScheduleNotFound):
		return "schedule_not_found"
	case errors.Is(err, persistence.ErrInvalidScheduleName):
		return "invalid_schedule_name"
	case errors.Is(err, schedule.ErrNotFound):
		return "not_found"
	case errors.Is(err, schedule.ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, schedule.ErrStructural):
		return "structural"
	case errors.Is(err, schedule.ErrArithmetic):
		return "arithmetic"
	case errors.Is(err, schedule.ErrIO):
		return "io"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// SetError marks the span failed, records err and tags it with its kind.
// A nil err leaves the span untouched.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	kind := attribute.String(ErrorKindKey, ErrorKind(err))

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(kind)
	span.AddEvent(ErrorEvent, trace.WithAttributes(append(attrs, kind)...))
}
