package alarm

import (
	"context"
	"sync"
)

// Registry is an in-process ringing tracker implementing Engine. The
// embedding application marks alarms as ringing when audio starts and
// clears them when it stops; the notification delegate reads that state
// during presentation callbacks.
type Registry struct {
	mu      sync.RWMutex
	ringing map[int64]struct{}

	// OnStop, when set, is invoked for every StopAlarm call after the
	// ringing state has been cleared.
	OnStop func(ctx context.Context, alarmID int64) error
}

var _ Engine = (*Registry)(nil)

// NewRegistry creates an empty ringing registry.
func NewRegistry() *Registry {
	return &Registry{ringing: make(map[int64]struct{})}
}

// SetRinging marks an alarm as actively ringing in-process.
func (r *Registry) SetRinging(alarmID int64) {
	r.mu.Lock()
	r.ringing[alarmID] = struct{}{}
	r.mu.Unlock()
}

// ClearRinging removes the ringing mark for an alarm.
func (r *Registry) ClearRinging(alarmID int64) {
	r.mu.Lock()
	delete(r.ringing, alarmID)
	r.mu.Unlock()
}

// IsRinging reports whether the alarm is currently ringing in-process.
func (r *Registry) IsRinging(alarmID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ringing[alarmID]
	return ok
}

// StopAlarm clears the ringing state and forwards to OnStop when set.
func (r *Registry) StopAlarm(ctx context.Context, alarmID int64) error {
	r.ClearRinging(alarmID)
	if r.OnStop != nil {
		return r.OnStop(ctx, alarmID)
	}
	return nil
}
