// Package logging carries log correlation values through contexts and
// builds per-component subloggers.
package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey string

const alarmIDKey contextKey = "alarm_id"

// Component returns a sublogger tagged with the given component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// WithAlarmID adds an alarm ID to the context so downstream engines can
// correlate their logs with the triggering notification.
func WithAlarmID(ctx context.Context, alarmID int64) context.Context {
	return context.WithValue(ctx, alarmIDKey, alarmID)
}

// AlarmID retrieves the alarm ID from the context.
func AlarmID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(alarmIDKey).(int64)
	return id, ok
}
