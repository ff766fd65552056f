package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/pipesched/pkg/channels/gochannel"
	"github.com/dukex/pipesched/pkg/eventbus"
	"github.com/dukex/pipesched/pkg/events"
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var finished = schedule.Notification{
	Schedule: "preprocess",
	Address:  "ops@example.org",
	Message:  "Finished successfully!",
}

func TestMailNotifier_Notify(t *testing.T) {
	var gotName string
	var gotArgs []string

	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args

		return nil, nil
	}

	m := NewMailNotifier("", slog.New(slog.DiscardHandler), WithCommandRunner(run))
	require.NoError(t, m.Notify(context.Background(), finished))

	assert.Equal(t, "mail", gotName)
	assert.Equal(t, []string{"-s", "Schedule: preprocess reports: Finished successfully!", "ops@example.org"}, gotArgs)
}

func TestMailNotifier_SkipsEmptyAddress(t *testing.T) {
	for _, address := range []string{"", schedule.Undefined} {
		t.Run("address="+address, func(t *testing.T) {
			called := false
			run := func(context.Context, string, ...string) ([]byte, error) {
				called = true

				return nil, nil
			}

			m := NewMailNotifier("mailx", slog.New(slog.DiscardHandler), WithCommandRunner(run))
			n := finished
			n.Address = address

			require.NoError(t, m.Notify(context.Background(), n))
			assert.False(t, called)
		})
	}
}

func TestMailNotifier_CommandFailure(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("no MTA"), errors.New("exit status 1")
	}

	m := NewMailNotifier("mail", slog.New(slog.DiscardHandler), WithCommandRunner(run))
	err := m.Notify(context.Background(), finished)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ops@example.org")
	assert.Contains(t, err.Error(), "no MTA")
}

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer

	l := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, l.Notify(context.Background(), finished))

	assert.Contains(t, buf.String(), "schedule=preprocess")
	assert.Contains(t, buf.String(), `message="Finished successfully!"`)
}

type notifierFunc func(ctx context.Context, n schedule.Notification) error

func (f notifierFunc) Notify(ctx context.Context, n schedule.Notification) error { return f(ctx, n) }

func TestMulti_JoinsErrorsAndCallsEveryone(t *testing.T) {
	errFirst := errors.New("first")
	calls := 0

	m := Multi{
		notifierFunc(func(context.Context, schedule.Notification) error { calls++; return errFirst }),
		notifierFunc(func(context.Context, schedule.Notification) error { calls++; return nil }),
	}

	err := m.Notify(context.Background(), finished)

	require.ErrorIs(t, err, errFirst)
	assert.Equal(t, 2, calls)
	assert.NoError(t, Multi{}.Notify(context.Background(), finished))
}

func TestEventNotifier_PublishesScheduleFinished(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ScheduleFinished, 1)
	require.NoError(t, eventbus.HandleEvent(bus, events.ScheduleFinishedEvent, func(_ context.Context, event *events.ScheduleFinished) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, NewEventNotifier(bus).Notify(ctx, finished))

	select {
	case got := <-received:
		assert.Equal(t, "preprocess", got.Schedule)
		assert.Equal(t, "ops@example.org", got.Address)
		assert.Equal(t, "Finished successfully!", got.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
