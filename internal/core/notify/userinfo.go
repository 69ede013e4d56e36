package notify

import (
	"encoding/json"
	"math"
)

// User-info keys carried with every notification owned by this subsystem.
const (
	KeyAlarmID  = "ALARM_ID"
	KeyIsBackup = "IS_BACKUP"
	KeyIndex    = "notificationIndex"
	KeyTotal    = "totalNotifications"
)

// AlarmID extracts the alarm id from a user-info map. ok is false when
// the key is absent or not an integer; such notifications are foreign
// and must be left alone. Numeric widening covers JSON round-trips
// through the host store, which surface integers as float64.
func AlarmID(info map[string]any) (int64, bool) {
	switch v := info[KeyAlarmID].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Owned reports whether a user-info map belongs to this subsystem.
func Owned(info map[string]any) bool {
	_, ok := AlarmID(info)
	return ok
}

// IsBackup reports whether a user-info map marks a backup notification.
func IsBackup(info map[string]any) bool {
	b, _ := info[KeyIsBackup].(bool)
	return b
}
