package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []AlarmStoppedPayload
	)
	bus.SubscribeAlarmStopped(func(p AlarmStoppedPayload) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})

	go bus.Start(ctx)

	bus.PublishAlarmStopped(AlarmStoppedPayload{AlarmID: 7})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	assert.Equal(t, int64(7), got[0].AlarmID)
	mu.Unlock()
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	// Bus is never started, so the buffer fills up.
	bus := New(1)

	var dropped []Event
	bus.OnDrop(func(e Event, _ any) { dropped = append(dropped, e) })

	bus.PublishSweepCompleted(SweepCompletedPayload{})
	bus.PublishSweepCompleted(SweepCompletedPayload{})

	require.Len(t, dropped, 1)
	assert.Equal(t, EventSweepCompleted, dropped[0])
}

func TestEventBus_RecoversSubscriberPanic(t *testing.T) {
	bus := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		panicked []Event
		calls    int
	)
	bus.OnPanic(func(e Event, _ any, _ any) {
		mu.Lock()
		panicked = append(panicked, e)
		mu.Unlock()
	})

	bus.SubscribeNotificationScheduled(func(NotificationScheduledPayload) {
		panic("boom")
	})
	bus.SubscribeNotificationScheduled(func(NotificationScheduledPayload) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	go bus.Start(ctx)

	bus.PublishNotificationScheduled(NotificationScheduledPayload{AlarmID: 1})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1 && len(panicked) == 1
	})
}
