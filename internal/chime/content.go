package chime

import (
	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/internal/core/notify"
)

// primaryContent builds the content of the lead notification. It is
// silent: alarm audio is played in-process by the alarm engine, not by
// the notification.
func primaryContent(alarmID int64, settings alarm.Settings, categoryID string) notify.Content {
	return notify.Content{
		Title:        settings.Title,
		Body:         settings.Body,
		Interruption: notify.InterruptionTimeSensitive,
		CategoryID:   categoryID,
		UserInfo: map[string]any{
			notify.KeyAlarmID: alarmID,
		},
	}
}

// backupContent builds the content of the index-th backup notification.
// Backups are audible: they exist precisely for the case where the
// silent primary was suppressed and no in-process audio fired.
func backupContent(alarmID int64, settings alarm.Settings, index int, sound string) notify.Content {
	return notify.Content{
		Title:        settings.Title,
		Body:         settings.Body,
		Sound:        sound,
		Interruption: notify.InterruptionTimeSensitive,
		CategoryID:   notify.CategoryNoAction,
		UserInfo: map[string]any{
			notify.KeyAlarmID:  alarmID,
			notify.KeyIsBackup: true,
			notify.KeyIndex:    index,
			notify.KeyTotal:    MaxBackups,
		},
	}
}
