// Package chime implements the alarm notification lifecycle: category
// registration, primary-plus-backup scheduling fan-out, cancellation and
// dismissal, and the presentation and action callbacks from the host
// notification center.
package chime

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/internal/core/eventbus"
	"github.com/colonyops/chime/internal/core/notify"
)

// Fan-out constants. These are a fixed contract with the alarm engine:
// the 30 second grace window gives the in-process alarm path time to
// take over and cancel the backups before they fire.
const (
	// BackupDelay is how long after the primary fire time the first
	// backup fires.
	BackupDelay = 30 * time.Second
	// BackupInterval spaces consecutive backup notifications.
	BackupInterval = 3 * time.Second
	// MaxBackups is the size of the backup fan-out.
	MaxBackups = 10
)

// warningDelay is the trigger interval of the app-killed warning
// notification.
const warningDelay = 2 * time.Second

// Policy holds the behavior knobs that differ between deployments.
type Policy struct {
	// BackupSound is the sound attached to backup notifications.
	// Empty makes backups silent like the primary.
	BackupSound string
	// Foreign is the presentation returned for notifications that do
	// not belong to this subsystem.
	Foreign notify.Options
}

// DefaultPolicy returns the standard policy: audible backups, foreign
// notifications presented in full.
func DefaultPolicy() Policy {
	return Policy{
		BackupSound: notify.SoundDefault,
		Foreign:     notify.OptionsAll,
	}
}

// Notifier schedules and removes alarm notifications through the host
// center. It holds no notification state of its own: every operation
// re-queries the center's stores.
type Notifier struct {
	center     notify.Center
	categories *CategoryRegistry
	policy     Policy
	bus        *eventbus.EventBus
	log        zerolog.Logger
}

// NewNotifier creates a notifier. bus may be nil when no lifecycle
// events are wanted.
func NewNotifier(center notify.Center, categories *CategoryRegistry, policy Policy, bus *eventbus.EventBus, logger zerolog.Logger) *Notifier {
	return &Notifier{
		center:     center,
		categories: categories,
		policy:     policy,
		bus:        bus,
		log:        logger,
	}
}

// Schedule submits the primary notification for an alarm plus the backup
// fan-out. alarmTime nil means the primary fires immediately. Any
// notifications previously scheduled for the alarm are cancelled first.
//
// Missing authorization is not an error: the caller has in-process
// fallbacks and the condition is only logged.
func (n *Notifier) Schedule(ctx context.Context, alarmID int64, settings alarm.Settings, alarmTime *time.Time) error {
	status, err := n.center.AuthorizationStatus(ctx)
	if err != nil {
		return fmt.Errorf("authorization status: %w", err)
	}
	if status != notify.AuthorizationAuthorized {
		n.log.Error().
			Int64("alarm_id", alarmID).
			Stringer("status", status).
			Msg("notification permission not granted, cannot schedule alarm notification")
		return nil
	}

	// Drop any previous fan-out for this alarm so a reschedule cannot
	// leave stale notifications behind.
	if err := n.Cancel(ctx, alarmID); err != nil {
		n.log.Error().Err(err).Int64("alarm_id", alarmID).Msg("cancel existing notifications")
	}

	categoryID, err := n.categories.EnsureCategory(ctx, settings.StopButton)
	if err != nil {
		n.log.Error().Err(err).Int64("alarm_id", alarmID).Msg("register category, falling back to no-action")
		categoryID = notify.CategoryNoAction
	}

	var trigger notify.Trigger
	fireBase := time.Now()
	if alarmTime != nil {
		trigger = notify.NewCalendarTrigger(*alarmTime)
		fireBase = *alarmTime
	}

	req := notify.Request{
		Identifier: notify.PrimaryIdentifier(alarmID),
		Content:    primaryContent(alarmID, settings, categoryID),
		Trigger:    trigger,
	}

	if err := n.center.Add(ctx, req); err != nil {
		n.log.Error().Err(err).Int64("alarm_id", alarmID).Msg("schedule alarm notification")
	} else {
		n.log.Debug().
			Int64("alarm_id", alarmID).
			Str("identifier", req.Identifier).
			Msg("alarm notification scheduled")
		n.publishScheduled(alarmID, req.Identifier, alarmTime, false)
	}

	n.scheduleBackups(ctx, alarmID, settings, fireBase)

	return nil
}

// scheduleBackups fans out the redundant backup notifications, starting
// BackupDelay after the primary fire time. Submission failures do not
// abort the remaining requests.
func (n *Notifier) scheduleBackups(ctx context.Context, alarmID int64, settings alarm.Settings, alarmTime time.Time) {
	start := alarmTime.Add(BackupDelay)

	for i := 0; i < MaxBackups; i++ {
		fireAt := start.Add(time.Duration(i) * BackupInterval)
		req := notify.Request{
			Identifier: notify.BackupIdentifier(alarmID, i),
			Content:    backupContent(alarmID, settings, i, n.policy.BackupSound),
			Trigger:    notify.NewCalendarTrigger(fireAt),
		}

		if err := n.center.Add(ctx, req); err != nil {
			n.log.Error().
				Err(err).
				Int64("alarm_id", alarmID).
				Int("index", i).
				Msg("schedule backup notification")
			continue
		}

		n.publishScheduled(alarmID, req.Identifier, &fireAt, true)
	}

	n.log.Debug().
		Int64("alarm_id", alarmID).
		Time("first", start).
		Msg("backup notifications scheduled")
}

// Cancel removes all pending notifications for an alarm. It enumerates
// the pending store rather than synthesizing identifiers so that
// fan-outs of any historical size are caught.
func (n *Notifier) Cancel(ctx context.Context, alarmID int64) error {
	pending, err := n.center.Pending(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	var ids []string
	for _, req := range pending {
		if notify.MatchesAlarm(req.Identifier, alarmID) {
			ids = append(ids, req.Identifier)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := n.center.RemovePending(ctx, ids); err != nil {
		return fmt.Errorf("remove pending: %w", err)
	}

	n.log.Debug().Int64("alarm_id", alarmID).Int("count", len(ids)).Msg("cancelled notifications")
	return nil
}

// Dismiss removes the alarm's notifications from the delivered store,
// clearing them from the tray.
func (n *Notifier) Dismiss(ctx context.Context, alarmID int64) error {
	delivered, err := n.center.Delivered(ctx)
	if err != nil {
		return fmt.Errorf("list delivered: %w", err)
	}

	var ids []string
	for _, notif := range delivered {
		if notify.MatchesAlarm(notif.Request.Identifier, alarmID) {
			ids = append(ids, notif.Request.Identifier)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := n.center.RemoveDelivered(ctx, ids); err != nil {
		return fmt.Errorf("remove delivered: %w", err)
	}

	n.log.Debug().Int64("alarm_id", alarmID).Int("count", len(ids)).Msg("dismissed notifications")
	return nil
}

// RemoveAll sweeps every pending and delivered notification owned by
// this subsystem. Notifications without an alarm id in their user-info
// belong to the host application and are never touched.
func (n *Notifier) RemoveAll(ctx context.Context) error {
	pending, err := n.center.Pending(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	var cancel []string
	for _, req := range pending {
		if notify.Owned(req.Content.UserInfo) {
			cancel = append(cancel, req.Identifier)
		}
	}
	if len(cancel) > 0 {
		if err := n.center.RemovePending(ctx, cancel); err != nil {
			return fmt.Errorf("remove pending: %w", err)
		}
	}
	n.log.Debug().Int("count", len(cancel)).Msg("cancelled pending notifications")

	delivered, err := n.center.Delivered(ctx)
	if err != nil {
		return fmt.Errorf("list delivered: %w", err)
	}

	var dismiss []string
	for _, notif := range delivered {
		if notify.Owned(notif.Request.Content.UserInfo) {
			dismiss = append(dismiss, notif.Request.Identifier)
		}
	}
	if len(dismiss) > 0 {
		if err := n.center.RemoveDelivered(ctx, dismiss); err != nil {
			return fmt.Errorf("remove delivered: %w", err)
		}
	}
	n.log.Debug().Int("count", len(dismiss)).Msg("dismissed delivered notifications")

	if n.bus != nil {
		n.bus.PublishSweepCompleted(eventbus.SweepCompletedPayload{
			Cancelled: len(cancel),
			Dismissed: len(dismiss),
		})
	}

	return nil
}

// SendWarning schedules the one-shot warning notification used to tell
// the user the app was terminated. It carries alarm id 0 so the sweep
// catches it.
func (n *Notifier) SendWarning(ctx context.Context, title, body string) error {
	req := notify.Request{
		Identifier: notify.WarningIdentifier,
		Content: notify.Content{
			Title:        title,
			Body:         body,
			Sound:        notify.SoundDefault,
			Interruption: notify.InterruptionTimeSensitive,
			UserInfo: map[string]any{
				notify.KeyAlarmID: int64(0),
			},
		},
		Trigger: notify.IntervalTrigger{After: warningDelay},
	}

	if err := n.center.Add(ctx, req); err != nil {
		n.log.Error().Err(err).Msg("schedule warning notification")
		return fmt.Errorf("schedule warning: %w", err)
	}

	n.log.Debug().Msg("warning notification scheduled")
	return nil
}

func (n *Notifier) publishScheduled(alarmID int64, identifier string, fireAt *time.Time, backup bool) {
	if n.bus == nil {
		return
	}
	p := eventbus.NotificationScheduledPayload{
		AlarmID:    alarmID,
		Identifier: identifier,
		Backup:     backup,
	}
	if fireAt != nil {
		p.FireAt = *fireAt
	}
	n.bus.PublishNotificationScheduled(p)
}
