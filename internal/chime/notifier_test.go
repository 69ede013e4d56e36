package chime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/internal/core/notify"
	"github.com/colonyops/chime/internal/core/notify/notifytest"
)

func newTestNotifier(center *notifytest.Center) *Notifier {
	return NewNotifier(center, newTestRegistry(center), DefaultPolicy(), nil, zerolog.Nop())
}

func wakeUp() alarm.Settings {
	return alarm.Settings{Title: "Wake", Body: "Up", StopButton: "Stop"}
}

// allIdentifiers returns the full identifier set of one alarm's fan-out.
func allIdentifiers(alarmID int64) []string {
	ids := []string{notify.PrimaryIdentifier(alarmID)}
	for i := 0; i < MaxBackups; i++ {
		ids = append(ids, notify.BackupIdentifier(alarmID, i))
	}
	return ids
}

func TestNotifier_Schedule(t *testing.T) {
	ctx := context.Background()
	alarmTime := time.Date(2026, 9, 2, 7, 30, 0, 0, time.Local)

	t.Run("schedules primary plus backup fan-out", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))

		pending, err := center.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1+MaxBackups)

		primary, ok := center.PendingRequest(notify.PrimaryIdentifier(7))
		require.True(t, ok)
		require.IsType(t, notify.CalendarTrigger{}, primary.Trigger)
		assert.Equal(t, alarmTime, primary.Trigger.(notify.CalendarTrigger).At)
		assert.Equal(t, "Wake", primary.Content.Title)
		assert.Equal(t, "Up", primary.Content.Body)
		assert.Empty(t, primary.Content.Sound, "primary must be silent")
		assert.Equal(t, notify.InterruptionTimeSensitive, primary.Content.Interruption)
		assert.Equal(t, "ALARM_CATEGORY_WITH_ACTION_Stop", primary.Content.CategoryID)

		id, ok := notify.AlarmID(primary.Content.UserInfo)
		require.True(t, ok)
		assert.Equal(t, int64(7), id)
		assert.False(t, notify.IsBackup(primary.Content.UserInfo))
	})

	t.Run("backups start after the grace window and are audible", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))

		for i := 0; i < MaxBackups; i++ {
			req, ok := center.PendingRequest(notify.BackupIdentifier(7, i))
			require.True(t, ok, "backup %d missing", i)

			want := alarmTime.Add(BackupDelay + time.Duration(i)*BackupInterval)
			require.IsType(t, notify.CalendarTrigger{}, req.Trigger)
			assert.Equal(t, want, req.Trigger.(notify.CalendarTrigger).At, "backup %d fire time", i)

			assert.Equal(t, notify.SoundDefault, req.Content.Sound)
			assert.Equal(t, notify.CategoryNoAction, req.Content.CategoryID)
			assert.True(t, notify.IsBackup(req.Content.UserInfo))
			assert.True(t, notify.Owned(req.Content.UserInfo))
			assert.Equal(t, i, req.Content.UserInfo[notify.KeyIndex])
			assert.Equal(t, MaxBackups, req.Content.UserInfo[notify.KeyTotal])
		}
	})

	t.Run("nil alarm time schedules an immediate primary", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		before := time.Now()
		require.NoError(t, n.Schedule(ctx, 3, wakeUp(), nil))

		primary, ok := center.PendingRequest(notify.PrimaryIdentifier(3))
		require.True(t, ok)
		assert.Nil(t, primary.Trigger)

		// Backups still fan out, anchored to the submission time.
		first, ok := center.PendingRequest(notify.BackupIdentifier(3, 0))
		require.True(t, ok)
		fireAt := first.Trigger.(notify.CalendarTrigger).At
		assert.False(t, fireAt.Before(before.Add(BackupDelay).Truncate(time.Second)))
		assert.False(t, fireAt.After(time.Now().Add(BackupDelay)))
	})

	t.Run("unauthorized is a silent no-op", func(t *testing.T) {
		for _, status := range []notify.AuthorizationStatus{
			notify.AuthorizationNotDetermined,
			notify.AuthorizationDenied,
		} {
			center := notifytest.New()
			center.SetAuthorization(status)
			n := newTestNotifier(center)

			require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))

			pending, err := center.Pending(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending, "status %s", status)
		}
	})

	t.Run("rescheduling supersedes the previous fan-out", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		t1 := alarmTime
		t2 := alarmTime.Add(time.Hour)
		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &t1))
		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &t2))

		pending, err := center.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1+MaxBackups)

		primary, ok := center.PendingRequest(notify.PrimaryIdentifier(7))
		require.True(t, ok)
		assert.Equal(t, t2, primary.Trigger.(notify.CalendarTrigger).At)

		first, ok := center.PendingRequest(notify.BackupIdentifier(7, 0))
		require.True(t, ok)
		assert.Equal(t, t2.Add(BackupDelay), first.Trigger.(notify.CalendarTrigger).At)
	})

	t.Run("submission failures do not abort the fan-out", func(t *testing.T) {
		center := notifytest.New()
		center.FailAdd = func(req notify.Request) error {
			if req.Identifier == notify.BackupIdentifier(7, 3) {
				return errors.New("request rejected")
			}
			return nil
		}
		n := newTestNotifier(center)

		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))

		pending, err := center.Pending(ctx)
		require.NoError(t, err)
		assert.Len(t, pending, MaxBackups) // 11 minus the rejected one

		_, ok := center.PendingRequest(notify.BackupIdentifier(7, 9))
		assert.True(t, ok, "later backups must still be submitted")
	})
}

func TestNotifier_Cancel(t *testing.T) {
	ctx := context.Background()
	alarmTime := time.Date(2026, 9, 2, 7, 30, 0, 0, time.Local)

	t.Run("clears the whole fan-out", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))
		require.NoError(t, n.Cancel(ctx, 7))

		pending, err := center.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("leaves other alarms and foreign requests alone", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))
		require.NoError(t, n.Schedule(ctx, 70, wakeUp(), &alarmTime))
		require.NoError(t, center.Add(ctx, notify.Request{Identifier: "com.example.reminder"}))

		require.NoError(t, n.Cancel(ctx, 7))

		want := append(allIdentifiers(70), "com.example.reminder")
		assert.ElementsMatch(t, want, center.PendingIdentifiers())
	})

	t.Run("handles fan-outs larger than the current maximum", func(t *testing.T) {
		center := notifytest.New()
		n := newTestNotifier(center)

		// A fan-out left behind by an older build with more backups.
		for i := 0; i < MaxBackups+5; i++ {
			require.NoError(t, center.Add(ctx, notify.Request{
				Identifier: notify.BackupIdentifier(7, i),
				Content:    backupContent(7, wakeUp(), i, ""),
			}))
		}

		require.NoError(t, n.Cancel(ctx, 7))

		pending, err := center.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestNotifier_Dismiss(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	center := notifytest.New()
	n := newTestNotifier(center)

	center.Seed(notify.Notification{
		Request:     notify.Request{Identifier: notify.PrimaryIdentifier(7), Content: primaryContent(7, wakeUp(), notify.CategoryNoAction)},
		DeliveredAt: now,
	})
	center.Seed(notify.Notification{
		Request:     notify.Request{Identifier: notify.BackupIdentifier(7, 2), Content: backupContent(7, wakeUp(), 2, "")},
		DeliveredAt: now,
	})
	center.Seed(notify.Notification{
		Request:     notify.Request{Identifier: "com.example.reminder"},
		DeliveredAt: now,
	})

	require.NoError(t, n.Dismiss(ctx, 7))

	delivered, err := center.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "com.example.reminder", delivered[0].Request.Identifier)
}

func TestNotifier_RemoveAll(t *testing.T) {
	ctx := context.Background()
	alarmTime := time.Date(2026, 9, 2, 7, 30, 0, 0, time.Local)

	center := notifytest.New()
	n := newTestNotifier(center)

	require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))
	require.NoError(t, n.SendWarning(ctx, "Alarms may not ring", "The app was terminated"))
	require.NoError(t, center.Add(ctx, notify.Request{
		Identifier: "com.example.reminder",
		Content:    notify.Content{UserInfo: map[string]any{"kind": "reminder"}},
	}))
	center.Seed(notify.Notification{
		Request:     notify.Request{Identifier: notify.PrimaryIdentifier(8), Content: primaryContent(8, wakeUp(), notify.CategoryNoAction)},
		DeliveredAt: time.Now(),
	})
	center.Seed(notify.Notification{
		Request:     notify.Request{Identifier: "com.example.badge"},
		DeliveredAt: time.Now(),
	})

	require.NoError(t, n.RemoveAll(ctx))

	assert.Equal(t, []string{"com.example.reminder"}, center.PendingIdentifiers())

	delivered, err := center.Delivered(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "com.example.badge", delivered[0].Request.Identifier)
}

func TestNotifier_SendWarning(t *testing.T) {
	ctx := context.Background()

	center := notifytest.New()
	n := newTestNotifier(center)

	require.NoError(t, n.SendWarning(ctx, "Alarms may not ring", "The app was terminated"))

	req, ok := center.PendingRequest(notify.WarningIdentifier)
	require.True(t, ok)

	require.IsType(t, notify.IntervalTrigger{}, req.Trigger)
	assert.Equal(t, warningDelay, req.Trigger.(notify.IntervalTrigger).After)
	assert.Equal(t, notify.InterruptionTimeSensitive, req.Content.Interruption)

	id, ok := notify.AlarmID(req.Content.UserInfo)
	require.True(t, ok, "warning must be in sweep scope")
	assert.Equal(t, int64(0), id)
}

func TestNotifier_EveryRequestCarriesAlarmID(t *testing.T) {
	ctx := context.Background()
	alarmTime := time.Now().Add(time.Hour)

	center := notifytest.New()
	n := newTestNotifier(center)

	require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))
	require.NoError(t, n.Schedule(ctx, 8, alarm.Settings{Title: "T", Body: "B"}, nil))
	require.NoError(t, n.SendWarning(ctx, "t", "b"))

	pending, err := center.Pending(ctx)
	require.NoError(t, err)
	for _, req := range pending {
		assert.True(t, notify.Owned(req.Content.UserInfo), "request %s lacks alarm id", req.Identifier)
	}
}

func TestNotifier_ScheduleErrorPath(t *testing.T) {
	// A failing primary must not stop the backups: they exist for
	// exactly the case where the primary path is broken.
	ctx := context.Background()
	alarmTime := time.Now().Add(time.Hour)

	center := notifytest.New()
	center.FailAdd = func(req notify.Request) error {
		if req.Identifier == notify.PrimaryIdentifier(7) {
			return fmt.Errorf("quota exceeded")
		}
		return nil
	}
	n := newTestNotifier(center)

	require.NoError(t, n.Schedule(ctx, 7, wakeUp(), &alarmTime))

	pending, err := center.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, MaxBackups)
}
