package schedule

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sent []Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.sent = append(r.sent, n)

	return r.err
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// jobDir creates a job directory with its marker file and returns its path.
func jobDir(t *testing.T, root, name string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, JobMarker), []byte("data_job\n"), 0o644))

	return dir
}

// loopSchedule builds A -> x+=1 -> B -> done? exit : A.
func loopSchedule(t *testing.T, opts ...Option) (*Schedule, string, string) {
	t.Helper()

	root := t.TempDir()
	s := New("loop", append([]Option{WithLogger(quietLogger())}, opts...)...)

	require.NoError(t, s.AddFloatVariable("x", 0))
	require.NoError(t, s.AddBooleanVariable("done", false))

	a, err := s.AddJobNode(jobDir(t, root, "A"), ModeNew)
	require.NoError(t, err)

	op, err := s.AddOperatorNode("float=plus_const", "x", "1", "x")
	require.NoError(t, err)

	b, err := s.AddJobNode(jobDir(t, root, "B"), ModeContinue)
	require.NoError(t, err)

	exit, err := s.AddExitNode()
	require.NoError(t, err)

	require.NoError(t, s.AddEdge(a, op))
	require.NoError(t, s.AddEdge(op, b))
	require.NoError(t, s.AddFork(b, "done", exit, a))
	require.NoError(t, s.SetStartNode(a))

	return s, a, b
}
