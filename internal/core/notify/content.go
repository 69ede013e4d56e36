package notify

import "time"

// Sound names understood by the host center. An empty sound means the
// notification is silent.
const SoundDefault = "default"

// InterruptionLevel controls how aggressively the host surfaces a
// notification.
type InterruptionLevel string

const (
	InterruptionActive        InterruptionLevel = "active"
	InterruptionTimeSensitive InterruptionLevel = "time-sensitive"
)

// Content is the payload of a notification: what the user sees plus the
// user-info map carried alongside it.
type Content struct {
	Title        string
	Body         string
	Sound        string
	Interruption InterruptionLevel
	CategoryID   string
	UserInfo     map[string]any
}

// Trigger determines when a pending request fires. A nil Trigger fires
// at submission time.
type Trigger interface {
	// FireTime resolves the absolute instant the trigger fires,
	// relative to now for interval triggers.
	FireTime(now time.Time) time.Time
}

// CalendarTrigger fires when the wall clock matches the stored instant.
// The host scheduler matches at second granularity, so the instant is
// truncated accordingly.
type CalendarTrigger struct {
	At time.Time
}

// NewCalendarTrigger builds a calendar trigger for the given instant,
// truncated to second granularity.
func NewCalendarTrigger(at time.Time) CalendarTrigger {
	return CalendarTrigger{At: at.Truncate(time.Second)}
}

func (t CalendarTrigger) FireTime(time.Time) time.Time { return t.At }

// IntervalTrigger fires a fixed duration after submission.
type IntervalTrigger struct {
	After time.Duration
}

func (t IntervalTrigger) FireTime(now time.Time) time.Time { return now.Add(t.After) }

// Request is a notification waiting in the pending store.
type Request struct {
	Identifier string
	Content    Content
	Trigger    Trigger
}

// Notification is a delivered notification.
type Notification struct {
	Request     Request
	DeliveredAt time.Time
}
