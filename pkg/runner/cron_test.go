package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukex/pipesched/pkg/persistence/file"
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signalLauncher struct {
	mu    sync.Mutex
	jobs  []string
	first chan struct{}
	once  sync.Once
}

func (l *signalLauncher) Launch(_ context.Context, _ string, job schedule.JobInfo) error {
	l.mu.Lock()
	l.jobs = append(l.jobs, job.Name)
	l.mu.Unlock()
	l.once.Do(func() { close(l.first) })

	return nil
}

func TestCronRunner_Add(t *testing.T) {
	c := NewCronRunner(New(file.NewPersistence(t.TempDir()), &recordingLauncher{}, quiet()), quiet())

	require.NoError(t, c.Add("countdown", "*/5 * * * *"))
	require.NoError(t, c.Add("countdown", "@hourly"))
	assert.Len(t, c.jobs, 1)

	require.Error(t, c.Add("countdown", "not a cron"))

	c.Remove("countdown")
	assert.Empty(t, c.jobs)
}

func TestCronRunner_RunsScheduledPass(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	countdown(t, store)

	launcher := &signalLauncher{first: make(chan struct{})}
	c := NewCronRunner(New(store, launcher, quiet(), WithScheduleOptions(schedule.WithLogger(quiet()))), quiet())

	require.NoError(t, c.Add("countdown", "@every 1s"))
	c.Start(context.Background())
	defer c.Stop()

	select {
	case <-launcher.first:
	case <-time.After(5 * time.Second):
		t.Fatal("cron pass did not run")
	}
}
