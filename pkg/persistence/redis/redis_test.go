package redis_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dukex/pipesched/pkg/persistence"
	redisstore "github.com/dukex/pipesched/pkg/persistence/redis"
	"github.com/dukex/pipesched/pkg/schedule"
)

func setupRedis(t *testing.T) (*redisstore.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.Run(ctx, "redis:latest",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := redisstore.NewPersistence(ctx, logger, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = p.Close(ctx) })

	return p, ctx
}

func TestPersistence_ScheduleLifecycle(t *testing.T) {
	p, ctx := setupRedis(t)

	require.NoError(t, p.HealthCheck(ctx))

	quiet := schedule.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, name := range []string{"b", "a"} {
		s := schedule.New(name, quiet)
		require.NoError(t, s.AddFloatVariable("n", 1))
		_, err := s.AddExitNode()
		require.NoError(t, err)
		require.NoError(t, p.SaveSchedule(ctx, s))
	}

	names, err := p.Schedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	loaded, err := p.ScheduleByName(ctx, "a", quiet)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Name())
	assert.True(t, loaded.IsFloatVariable("n"))

	require.NoError(t, p.DeleteSchedule(ctx, "a"))
	assert.True(t, persistence.IsScheduleNotFound(p.DeleteSchedule(ctx, "a")))

	_, err = p.ScheduleByName(ctx, "a")
	assert.True(t, persistence.IsScheduleNotFound(err))

	names, err = p.Schedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := redisstore.NewPersistence(context.Background(), slog.Default(), "http://nope")
	assert.Error(t, err)
}
