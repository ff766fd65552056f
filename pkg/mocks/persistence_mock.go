// Package mocks provides testify mocks for the store and event bus interfaces.
package mocks

import (
	"context"

	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Schedules(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPersistence) SaveSchedule(ctx context.Context, s *schedule.Schedule) error {
	args := m.Called(ctx, s)

	return args.Error(0)
}

// ScheduleByName ignores opts when matching expectations.
func (m *MockPersistence) ScheduleByName(ctx context.Context, name string, _ ...schedule.Option) (*schedule.Schedule, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*schedule.Schedule), args.Error(1)
}

func (m *MockPersistence) DeleteSchedule(ctx context.Context, name string) error {
	args := m.Called(ctx, name)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
