package notify

import (
	"strconv"
	"strings"
)

// backupSep separates the alarm identifier from the backup index.
const backupSep = "_"

// PrimaryIdentifier returns the identifier of the primary notification
// for an alarm.
func PrimaryIdentifier(alarmID int64) string {
	return IdentifierPrefix + strconv.FormatInt(alarmID, 10)
}

// BackupIdentifier returns the identifier of the index-th backup
// notification for an alarm. Backups share the primary identifier as a
// common prefix so a single prefix scan finds the whole fan-out.
func BackupIdentifier(alarmID int64, index int) string {
	return PrimaryIdentifier(alarmID) + backupSep + strconv.Itoa(index)
}

// MatchesAlarm reports whether identifier names the primary or any backup
// notification of the given alarm. A bare prefix test would also match
// other alarms (alarm 7 against alarm 70), so backups are matched on the
// separated form.
func MatchesAlarm(identifier string, alarmID int64) bool {
	base := PrimaryIdentifier(alarmID)
	return identifier == base || strings.HasPrefix(identifier, base+backupSep)
}
