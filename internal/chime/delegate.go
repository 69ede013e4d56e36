package chime

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/internal/core/eventbus"
	"github.com/colonyops/chime/internal/core/logging"
	"github.com/colonyops/chime/internal/core/notify"
)

// Delegate receives the host center's foreground-presentation and
// user-response callbacks. Both take an explicit completion callback
// which the host requires to be invoked exactly once per call; every
// return path below goes through it.
type Delegate struct {
	notifier *Notifier
	engine   alarm.Engine
	policy   Policy
	bus      *eventbus.EventBus
	log      zerolog.Logger
}

// NewDelegate creates a delegate. engine must be non-nil; use
// alarm.Unavailable when no alarm runtime is loaded.
func NewDelegate(notifier *Notifier, engine alarm.Engine, policy Policy, bus *eventbus.EventBus, logger zerolog.Logger) *Delegate {
	return &Delegate{
		notifier: notifier,
		engine:   engine,
		policy:   policy,
		bus:      bus,
		log:      logger,
	}
}

// WillPresent decides how a notification arriving while the app is
// foregrounded is rendered. When the alarm is already ringing in-process
// the UI is redundant and gets suppressed; a ringing alarm also makes
// the backup fan-out obsolete, so a backup arriving in that state
// cancels its remaining siblings.
func (d *Delegate) WillPresent(ctx context.Context, n notify.Notification, respond func(notify.Options)) {
	info := n.Request.Content.UserInfo

	alarmID, ok := notify.AlarmID(info)
	if !ok {
		// Not ours; the host application's own rules decide.
		respond(d.policy.Foreign)
		return
	}

	if d.engine.IsRinging(alarmID) {
		if notify.IsBackup(info) {
			if err := d.notifier.Cancel(ctx, alarmID); err != nil {
				d.log.Error().Err(err).Int64("alarm_id", alarmID).Msg("cancel superseded fan-out")
			}
		}

		d.log.Debug().
			Int64("alarm_id", alarmID).
			Str("identifier", n.Request.Identifier).
			Msg("alarm already ringing, suppressing notification")

		if d.bus != nil {
			d.bus.PublishNotificationSuppressed(eventbus.NotificationSuppressedPayload{
				AlarmID:    alarmID,
				Identifier: n.Request.Identifier,
			})
		}

		respond(0)
		return
	}

	respond(notify.OptionsAll)
}

// DidReceiveResponse handles a user tap or action button press. Only the
// stop action is routed to the alarm engine; stop failures are logged
// and not retried, the engine owns retry.
func (d *Delegate) DidReceiveResponse(ctx context.Context, resp notify.Response, complete func()) {
	defer complete()

	info := resp.Notification.Request.Content.UserInfo

	alarmID, ok := notify.AlarmID(info)
	if !ok {
		return
	}

	if resp.ActionID != notify.StopActionID {
		return
	}

	d.log.Info().
		Int64("alarm_id", alarmID).
		Str("identifier", resp.Notification.Request.Identifier).
		Msg("stop action triggered")

	ctx = logging.WithAlarmID(ctx, alarmID)
	if err := d.engine.StopAlarm(ctx, alarmID); err != nil {
		d.log.Error().Err(err).Int64("alarm_id", alarmID).Msg("stop alarm")
		return
	}

	if d.bus != nil {
		d.bus.PublishAlarmStopped(eventbus.AlarmStoppedPayload{AlarmID: alarmID})
	}
}
