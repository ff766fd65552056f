package file

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
)

func quiet() schedule.Option {
	return schedule.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sample(t *testing.T, name string) *schedule.Schedule {
	t.Helper()

	s := schedule.New(name, quiet())
	require.NoError(t, s.AddFloatVariable("iter", 0))
	require.NoError(t, s.AddTimerNode("pause", 5))
	_, err := s.AddExitNode()
	require.NoError(t, err)
	require.NoError(t, s.AddEdge("pause", "exit"))
	require.NoError(t, s.SetStartNode("pause"))

	return s
}

func TestNewPersistence(t *testing.T) {
	assert.Equal(t, "/tmp/test", NewPersistence("/tmp/test").root)
	assert.Equal(t, "/tmp/test", NewPersistence("file:///tmp/test").root)
	assert.Equal(t, "data", NewPersistence("file:data").root)
}

func TestPersistence_Close(t *testing.T) {
	assert.NoError(t, NewPersistence("./test-data").Close(t.Context()))
}

func TestPersistence_HealthCheck(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewPersistence(dir).HealthCheck(t.Context()))
	assert.Error(t, NewPersistence(filepath.Join(dir, "missing")).HealthCheck(t.Context()))
}

func TestPersistence_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := NewPersistence(dir)

	s := sample(t, "preprocess")
	require.NoError(t, s.SetFloatValue("iter", 3))
	require.NoError(t, p.SaveSchedule(ctx, s))

	_, err := os.Stat(filepath.Join(dir, "Schedules", "preprocess", "schedule.star"))
	require.NoError(t, err)

	loaded, err := p.ScheduleByName(ctx, "preprocess", quiet())
	require.NoError(t, err)
	assert.Equal(t, "preprocess", loaded.Name())

	iter, err := loaded.FindFloatVariable("iter")
	require.NoError(t, err)
	assert.Equal(t, 3.0, iter.Value)
	assert.Equal(t, 0.0, iter.OriginalValue)
	assert.Equal(t, "pause", loaded.StartNode().NodeName())
}

func TestPersistence_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	names, err := p.Schedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"zeta", "alpha"} {
		require.NoError(t, p.SaveSchedule(ctx, sample(t, n)))
	}

	names, err = p.Schedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.NoError(t, p.DeleteSchedule(ctx, "alpha"))

	err = p.DeleteSchedule(ctx, "alpha")
	assert.True(t, persistence.IsScheduleNotFound(err))

	_, err = p.ScheduleByName(ctx, "alpha")
	assert.True(t, persistence.IsScheduleNotFound(err))

	names, err = p.Schedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta"}, names)
}

func TestPersistence_RejectsBadNames(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	_, err := p.ScheduleByName(ctx, "../etc")
	assert.ErrorIs(t, err, persistence.ErrInvalidScheduleName)

	err = p.SaveSchedule(ctx, sample(t, "a/b"))
	assert.ErrorIs(t, err, persistence.ErrInvalidScheduleName)
}

func TestPersistence_CorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := NewPersistence(dir)

	path := p.Path("broken")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("_orphan value\n"), 0o644))

	_, err := p.ScheduleByName(ctx, "broken")
	require.Error(t, err)
	assert.False(t, persistence.IsScheduleNotFound(err))
}
