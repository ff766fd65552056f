// Package redis provides Redis persistence for schedules. Each schedule body
// is stored under its own key and the names are tracked in a set.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
)

const (
	scheduleKeyPrefix = "pipesched:schedule:"
	scheduleListKey   = "pipesched:schedules"
)

// Persistence implements persistence.Persistence using Redis.
type Persistence struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPersistence connects to the redis:// URL and verifies the connection.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewPersistenceWithClient(logger, client), nil
}

// NewPersistenceWithClient creates a store using an existing Redis client.
func NewPersistenceWithClient(logger *slog.Logger, client *redis.Client) *Persistence {
	return &Persistence{client: client, logger: logger}
}

func scheduleKey(name string) string {
	return scheduleKeyPrefix + name
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Schedules returns the stored names in lexical order.
func (p *Persistence) Schedules(ctx context.Context) ([]string, error) {
	names, err := p.client.SMembers(ctx, scheduleListKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

// SaveSchedule stores the body and registers the name in one transaction.
func (p *Persistence) SaveSchedule(ctx context.Context, s *schedule.Schedule) error {
	if err := persistence.ValidateName(s.Name()); err != nil {
		return err
	}

	body, err := persistence.Encode(s)
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", s.Name(), err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, scheduleKey(s.Name()), body, 0)
	pipe.SAdd(ctx, scheduleListKey, s.Name())

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewScheduleError("SaveSchedule", s.Name(), err)
	}

	p.logger.DebugContext(ctx, "Schedule saved", "schedule", s.Name())

	return nil
}

func (p *Persistence) ScheduleByName(ctx context.Context, name string, opts ...schedule.Option) (*schedule.Schedule, error) {
	if err := persistence.ValidateName(name); err != nil {
		return nil, err
	}

	body, err := p.client.Get(ctx, scheduleKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewScheduleError("ScheduleByName", name, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return nil, persistence.NewScheduleError("ScheduleByName", name, err)
	}

	return persistence.Decode(name, body, opts...)
}

func (p *Persistence) DeleteSchedule(ctx context.Context, name string) error {
	pipe := p.client.TxPipeline()
	del := pipe.Del(ctx, scheduleKey(name))
	pipe.SRem(ctx, scheduleListKey, name)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewScheduleError("DeleteSchedule", name, err)
	}

	if del.Val() == 0 {
		return persistence.NewScheduleError("DeleteSchedule", name, persistence.ErrScheduleNotFound)
	}

	return nil
}
