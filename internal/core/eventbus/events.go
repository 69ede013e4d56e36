// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within chime.
package eventbus

import (
	"time"

	"github.com/colonyops/chime/internal/core/notify"
)

// Event names the lifecycle events published by the notification
// subsystem. Keep list sorted A-Z.
type Event string

const (
	EventAlarmStopped            Event = "alarm.stopped"
	EventNotificationDelivered   Event = "notification.delivered"
	EventNotificationScheduled   Event = "notification.scheduled"
	EventNotificationSuppressed  Event = "notification.suppressed"
	EventSweepCompleted          Event = "sweep.completed"
)

// AlarmStoppedPayload is emitted when the stop action dispatches to the
// alarm engine successfully.
type AlarmStoppedPayload struct {
	AlarmID int64
}

// NotificationScheduledPayload is emitted when a request is accepted by
// the host center's pending store.
type NotificationScheduledPayload struct {
	AlarmID    int64
	Identifier string
	FireAt     time.Time // zero for immediate requests
	Backup     bool
}

// NotificationDeliveredPayload is emitted when the dispatcher moves a
// due request into the delivered store.
type NotificationDeliveredPayload struct {
	Identifier string
	Options    notify.Options
}

// NotificationSuppressedPayload is emitted when a foreground
// presentation is suppressed because the alarm is already ringing.
type NotificationSuppressedPayload struct {
	AlarmID    int64
	Identifier string
}

// SweepCompletedPayload is emitted after a bulk remove of the
// subsystem's notifications.
type SweepCompletedPayload struct {
	Cancelled int
	Dismissed int
}
