// Package notify defines the domain model for alarm notifications and the
// Center interface through which the host notification service is consumed.
// The subsystem keeps no in-memory mirror of notification state; the host
// center's pending and delivered stores are authoritative.
package notify

import "context"

// Wire-level constants shared with the host platform. These are a fixed
// contract; changing any of them breaks identifier enumeration of
// previously scheduled notifications.
const (
	// CategoryNoAction is the sentinel category carrying no actions.
	CategoryNoAction = "ALARM_CATEGORY_NO_ACTION"

	// CategoryActionPrefix derives a category identifier from a stop
	// button caption: CategoryActionPrefix + caption.
	CategoryActionPrefix = "ALARM_CATEGORY_WITH_ACTION_"

	// IdentifierPrefix marks every notification identifier owned by
	// this subsystem.
	IdentifierPrefix = "ALARM_NOTIFICATION_"

	// StopActionID identifies the destructive stop action inside a
	// derived category.
	StopActionID = "ALARM_STOP_ACTION"

	// WarningIdentifier is the fixed identifier of the one-shot warning
	// notification sent when the app is killed. Distinct from all alarm
	// identifiers.
	WarningIdentifier = "notification on app kill immediate"
)

// AuthorizationStatus reports whether the host has granted permission to
// post notifications.
type AuthorizationStatus int

const (
	AuthorizationNotDetermined AuthorizationStatus = iota
	AuthorizationDenied
	AuthorizationAuthorized
)

func (s AuthorizationStatus) String() string {
	switch s {
	case AuthorizationDenied:
		return "denied"
	case AuthorizationAuthorized:
		return "authorized"
	default:
		return "not-determined"
	}
}

// ParseAuthorizationStatus converts the string form back to a status.
// Unknown values map to AuthorizationNotDetermined.
func ParseAuthorizationStatus(s string) AuthorizationStatus {
	switch s {
	case "denied":
		return AuthorizationDenied
	case "authorized":
		return AuthorizationAuthorized
	default:
		return AuthorizationNotDetermined
	}
}

// Options is the set of presentation options returned from a foreground
// presentation callback. The zero value suppresses the notification UI
// entirely.
type Options uint8

const (
	OptionBadge Options = 1 << iota
	OptionSound
	OptionAlert
)

// OptionsAll presents the notification with badge, sound, and alert.
const OptionsAll = OptionBadge | OptionSound | OptionAlert

func (o Options) String() string {
	if o == 0 {
		return "none"
	}
	var s string
	if o&OptionBadge != 0 {
		s += "badge,"
	}
	if o&OptionSound != 0 {
		s += "sound,"
	}
	if o&OptionAlert != 0 {
		s += "alert,"
	}
	return s[:len(s)-1]
}

// Action is a single button attached to a notification category.
type Action struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Foreground  bool   `json:"foreground"`
	Destructive bool   `json:"destructive"`
}

// Category groups actions under an identifier. Notifications bind to a
// category to acquire its action buttons. The category set held by the
// host is append-only from this subsystem's perspective.
type Category struct {
	Identifier string   `json:"identifier"`
	Actions    []Action `json:"actions,omitempty"`
}

// Response is a user interaction with a delivered notification: a tap or
// an action button press.
type Response struct {
	Notification Notification
	ActionID     string
}

// Center is the host notification service. Implementations own the
// pending-request and delivered-notification stores; callers must
// re-query rather than cache results.
type Center interface {
	AuthorizationStatus(ctx context.Context) (AuthorizationStatus, error)

	Categories(ctx context.Context) ([]Category, error)
	SetCategories(ctx context.Context, categories []Category) error

	// Add submits a request to the pending store. A request with an
	// identifier already present replaces the existing entry.
	Add(ctx context.Context, req Request) error

	Pending(ctx context.Context) ([]Request, error)
	Delivered(ctx context.Context) ([]Notification, error)

	RemovePending(ctx context.Context, identifiers []string) error
	RemoveDelivered(ctx context.Context, identifiers []string) error
}
