// Package persistence stores named schedules. Every backend keeps the full
// record-file encoding of a schedule so it can be suspended and resumed.
package persistence

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dukex/pipesched/pkg/schedule"
)

type Persistence interface {
	Schedules(ctx context.Context) ([]string, error)
	SaveSchedule(ctx context.Context, s *schedule.Schedule) error
	ScheduleByName(ctx context.Context, name string, opts ...schedule.Option) (*schedule.Schedule, error)
	DeleteSchedule(ctx context.Context, name string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateName rejects names that cannot be used as a storage key or directory.
func ValidateName(name string) error {
	if err := validate.Var(name, "required,max=255,excludesall=/\\,excludes=..,printascii"); err != nil {
		return NewScheduleError("Validate", name, ErrInvalidScheduleName)
	}

	return nil
}

// Encode renders a schedule in its record-file form.
func Encode(s *schedule.Schedule) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode schedule %s: %w", s.Name(), err)
	}

	return buf.Bytes(), nil
}

// Decode parses a record-file body stored under name.
func Decode(name string, body []byte, opts ...schedule.Option) (*schedule.Schedule, error) {
	s, err := schedule.Read(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, NewScheduleError("Decode", name, err)
	}

	return s, nil
}
