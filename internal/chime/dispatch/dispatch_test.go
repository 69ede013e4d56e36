package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/chime/internal/core/eventbus"
	"github.com/colonyops/chime/internal/core/eventbus/testbus"
	"github.com/colonyops/chime/internal/core/notify"
	"github.com/colonyops/chime/internal/data/db"
	"github.com/colonyops/chime/internal/data/stores"
)

type recordingPresenter struct {
	mu        sync.Mutex
	presented []notify.Notification
	options   notify.Options
}

func (p *recordingPresenter) WillPresent(_ context.Context, n notify.Notification, respond func(notify.Options)) {
	p.mu.Lock()
	p.presented = append(p.presented, n)
	p.mu.Unlock()
	respond(p.options)
}

func (p *recordingPresenter) identifiers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.presented))
	for _, n := range p.presented {
		out = append(out, n.Request.Identifier)
	}
	return out
}

func newTestStore(t *testing.T) *stores.CenterStore {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	return stores.NewCenterStore(database)
}

func request(identifier string, trigger notify.Trigger) notify.Request {
	return notify.Request{
		Identifier: identifier,
		Content: notify.Content{
			Title: "Wake up",
			Body:  "It is time",
		},
		Trigger: trigger,
	}
}

func TestTickDeliversDueRequests(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bus := testbus.New(t)
	presenter := &recordingPresenter{options: notify.OptionsAll}

	now := time.Now()
	require.NoError(t, store.Add(ctx, request("ALARM_NOTIFICATION_1", nil)))
	require.NoError(t, store.Add(ctx, request("ALARM_NOTIFICATION_2", notify.CalendarTrigger{At: now.Add(time.Hour)})))

	d := New(store, presenter, bus.EventBus, zerolog.Nop())
	require.NoError(t, d.Tick(ctx, now))

	assert.Equal(t, []string{"ALARM_NOTIFICATION_1"}, presenter.identifiers())

	delivered, err := store.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "ALARM_NOTIFICATION_1", delivered[0].Request.Identifier)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ALARM_NOTIFICATION_2", pending[0].Identifier)

	bus.AssertPublished(t, eventbus.EventNotificationDelivered)
}

func TestTickNothingDue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	presenter := &recordingPresenter{options: notify.OptionsAll}

	require.NoError(t, store.Add(ctx, request("ALARM_NOTIFICATION_5", notify.CalendarTrigger{At: time.Now().Add(time.Hour)})))

	d := New(store, presenter, nil, zerolog.Nop())
	require.NoError(t, d.Tick(ctx, time.Now()))

	assert.Empty(t, presenter.identifiers())
}

func TestTickFiresPastDueInOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	presenter := &recordingPresenter{options: notify.OptionsAll}

	now := time.Now()
	require.NoError(t, store.Add(ctx, request("ALARM_NOTIFICATION_9_2", notify.CalendarTrigger{At: now.Add(-time.Second)})))
	require.NoError(t, store.Add(ctx, request("ALARM_NOTIFICATION_9_1", notify.CalendarTrigger{At: now.Add(-2 * time.Second)})))
	require.NoError(t, store.Add(ctx, request("ALARM_NOTIFICATION_9", notify.CalendarTrigger{At: now.Add(-3 * time.Second)})))

	d := New(store, presenter, nil, zerolog.Nop())
	require.NoError(t, d.Tick(ctx, now))

	assert.Equal(t, []string{
		"ALARM_NOTIFICATION_9",
		"ALARM_NOTIFICATION_9_1",
		"ALARM_NOTIFICATION_9_2",
	}, presenter.identifiers())
}

func TestRunDeliversAndStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	presenter := &recordingPresenter{options: notify.OptionsAll}

	require.NoError(t, store.Add(context.Background(), request("ALARM_NOTIFICATION_3", nil)))

	d := New(store, presenter, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(presenter.identifiers()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
}
