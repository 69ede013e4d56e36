// Package alarm defines the boundary to the alarm engine, which owns
// audio playback and ringing state. The notification subsystem only ever
// consults it through the Engine interface.
package alarm

import (
	"context"
	"errors"
)

// Settings describes the notification shown for an alarm. Immutable once
// passed to the scheduler.
type Settings struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// StopButton is the caption of the stop action button. Empty means
	// the notification carries no action.
	StopButton string `json:"stopButton,omitempty"`
}

// Engine is the alarm engine consumed by the notification delegate.
// IsRinging must be safe to call from presentation callbacks and returns
// false when the engine is not loaded.
type Engine interface {
	StopAlarm(ctx context.Context, alarmID int64) error
	IsRinging(alarmID int64) bool
}

// ErrUnavailable is returned by StopAlarm when no alarm engine is loaded,
// e.g. the process was cold-launched from a notification.
var ErrUnavailable = errors.New("alarm engine not available")

// Unavailable is the Engine placeholder for a process without a loaded
// alarm runtime.
type Unavailable struct{}

var _ Engine = Unavailable{}

func (Unavailable) StopAlarm(context.Context, int64) error { return ErrUnavailable }

func (Unavailable) IsRinging(int64) bool { return false }
